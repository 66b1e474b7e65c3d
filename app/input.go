package app

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

type inputResult struct {
	text []byte
	err  error
}

// input reads lines on demand from one background goroutine so a blocked
// read never outlives the view that asked for it: an abandoned read is kept
// and handed to the next caller. Only one goroutine may call readLine at a
// time.
type input struct {
	r        *bufio.Reader
	fd       int
	terminal bool

	reqs    chan bool
	results chan inputResult
	pending bool
}

func newInput(r io.Reader) *input {
	in := &input{
		r:       bufio.NewReader(r),
		reqs:    make(chan bool),
		results: make(chan inputResult, 1),
	}
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		in.fd = int(f.Fd())
		in.terminal = true
	}
	return in
}

func (in *input) start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case secret := <-in.reqs:
				in.results <- in.read(secret)
			}
		}
	}()
}

func (in *input) read(secret bool) inputResult {
	if secret && in.terminal {
		b, err := term.ReadPassword(in.fd)
		return inputResult{text: b, err: err}
	}
	line, err := in.r.ReadBytes('\n')
	if err == io.EOF && len(line) > 0 {
		err = nil
	}
	return inputResult{text: []byte(strings.TrimRight(string(line), "\r\n")), err: err}
}

// readLine returns the next line without its terminator. When secret is set
// and the input is a terminal, the line is read without echo.
func (in *input) readLine(ctx context.Context, secret bool) ([]byte, error) {
	if !in.pending {
		select {
		case in.reqs <- secret:
			in.pending = true
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	select {
	case r := <-in.results:
		in.pending = false
		return r.text, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

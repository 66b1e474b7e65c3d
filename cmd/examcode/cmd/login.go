package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jmcleod/examcode/client"
)

var (
	loginUser     string
	passwordStdin bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		in := bufio.NewReader(cmd.InOrStdin())
		out := cmd.OutOrStdout()

		user := loginUser
		if user == "" {
			fmt.Fprint(out, "User: ")
			line, err := readLine(in)
			if err != nil {
				return fmt.Errorf("failed to read user name: %w", err)
			}
			user = line
		}

		password, err := readPassword(cmd, in, !passwordStdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		if err := e.auth.Login(cmd.Context(), client.NewCredentials(user, password)); err != nil {
			return errors.New(e.alerts.Current().Message)
		}
		fmt.Fprintln(out, "Logged in.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVarP(&loginUser, "user", "u", "", "User name (prompted when empty)")
	loginCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPassword reads without echo when prompting on a terminal and falls
// back to a plain line otherwise.
func readPassword(cmd *cobra.Command, in *bufio.Reader, prompt bool) ([]byte, error) {
	if prompt {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(cmd.OutOrStdout())
			return b, err
		}
	}
	line, err := readLine(in)
	if err != nil {
		return nil, err
	}
	return []byte(line), nil
}

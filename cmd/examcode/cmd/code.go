package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmcleod/examcode/alert"
	"github.com/jmcleod/examcode/auth"
	"github.com/jmcleod/examcode/client"
	"github.com/jmcleod/examcode/clock"
)

var errNotLoggedIn = errors.New("not logged in, run examcode login first")

var codeOnce bool

var codeCmd = &cobra.Command{
	Use:   "code",
	Short: "Show the current code and its countdown",
	Long: `Show the current code and the time left until it rotates, refreshing once a
second and fetching a new code when it expires. Runs until interrupted or
until the server ends the session.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		if e.sessions.GetID() == "" {
			return errNotLoggedIn
		}
		if codeOnce {
			return showCodeOnce(cmd, e)
		}

		out := cmd.OutOrStdout()
		unsubscribe := e.alerts.Subscribe(func(a alert.Alert) {
			if !a.Hidden {
				fmt.Fprintf(cmd.ErrOrStderr(), "! %s\n", a.Message)
			}
		})
		defer unsubscribe()

		c := clock.New(e.client, e.sessions, e.auth, e.alerts,
			clock.WithLogger(logger),
			clock.WithObserver(func(s clock.Snapshot) {
				if s.State == clock.StateCounting || s.State == clock.StateRefetching {
					fmt.Fprintf(out, "Code: %s  expires in %s\n", s.Code, s.Countdown)
				}
			}),
		)
		if err := c.Run(cmd.Context()); err != nil {
			return err
		}
		if e.sessions.GetID() == "" {
			return errors.New(auth.MsgExpired)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(codeCmd)
	codeCmd.Flags().BoolVar(&codeOnce, "once", false, "Print the current code once and exit")
}

func showCodeOnce(cmd *cobra.Command, e *env) error {
	code, err := e.client.FetchCode(cmd.Context(), e.sessions.GetID())
	if err != nil {
		if client.KindOf(err) == client.KindUnauthorized {
			e.auth.Logout(true)
			return errors.New(auth.MsgExpired)
		}
		return errors.New(auth.GenericMessage(err))
	}

	nowMs := time.Now().UnixMilli()
	st := clock.CodeState{
		Code:              code.Code,
		ExpiresAtServerMs: code.ExpiresAtMs,
		ClockOffsetMs:     nowMs - code.ServerTimeMs,
		NowMs:             nowMs,
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Code: %s  expires in %s\n", st.Code, clock.NewCountdown(st.Remaining()))
	return nil
}

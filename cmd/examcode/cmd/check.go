package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmcleod/examcode/auth"
)

var checkCmd = &cobra.Command{
	Use:   "check CODE",
	Short: "Ask the server whether CODE is the current code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		ok, err := e.client.CheckCode(cmd.Context(), args[0])
		if err != nil {
			return errors.New(auth.GenericMessage(err))
		}
		if !ok {
			return fmt.Errorf("code %q is not current", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Code %q is current.\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

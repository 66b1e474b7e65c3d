package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jmcleod/examcode/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive client (the default)",
	Args:  cobra.NoArgs,
	RunE:  runInteractive,
}

func runInteractive(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	printBanner(cmd.OutOrStdout())
	a := app.New(app.Deps{
		Router:   e.router,
		Auth:     e.auth,
		Alerts:   e.alerts,
		Fetcher:  e.client,
		Sessions: e.sessions,
	},
		app.WithInput(cmd.InOrStdin()),
		app.WithOutput(cmd.OutOrStdout()),
		app.WithLogger(logger),
	)
	return a.Run(cmd.Context())
}

func init() {
	rootCmd.AddCommand(runCmd)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func getCmdVerify(gs *GlobalState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run one verification and save the screenshot",
		Long: `Wait for the dashboard to start, load it in a browser, pick the last 30
days in the date range picker and save a full-page screenshot once the
gross revenue KPI is visible.`,
		Example: `  # Default run against http://localhost:8080/new-dashboard
  dashverify verify

  # Skip the startup pause and write somewhere else
  dashverify verify --delay 0s -o /tmp/dashboard.png

  # Use go-rod and watch the browser work
  dashverify verify --engine rod --headed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(gs, cmd)
		},
	}

	gs.run.register(cmd.Flags())
	return cmd
}

func runVerify(gs *GlobalState, cmd *cobra.Command) error {
	a, err := gs.newApp(cmd)
	if err != nil {
		return err
	}

	res, err := a.Verify(cmd.Context())
	if err != nil {
		return err
	}

	// The path goes to stdout so scripts can pick it up
	_, err = fmt.Fprintln(gs.Stdout, res.Output)
	return err
}

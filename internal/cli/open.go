package cli

import (
	"github.com/spf13/cobra"
)

func getCmdOpen(gs *GlobalState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open the last screenshot or the config file",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "screenshot",
			Short: "Open the last screenshot in the system image viewer",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := gs.newApp(cmd)
				if err != nil {
					return err
				}
				return a.ViewScreenshot()
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Open the config file in the default editor",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := gs.newApp(cmd)
				if err != nil {
					return err
				}
				return a.ViewConfig()
			},
		},
	)

	return cmd
}

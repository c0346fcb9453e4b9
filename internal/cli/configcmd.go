package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/dashverify/internal/config"
)

func getCmdConfig(gs *GlobalState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := gs.resolveConfigPath()
			if err != nil {
				return fmt.Errorf("failed to get config path: %w", err)
			}

			exists, err := afero.Exists(gs.FS, path)
			if err != nil {
				return err
			}
			if exists && !force {
				return fmt.Errorf("config file %s already exists, use --force to overwrite", path)
			}

			if err := config.Default().Save(gs.FS, path); err != nil {
				return err
			}
			gs.Logger.WithField("path", path).Info("Created default config")
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := gs.resolveConfigPath()
			if err != nil {
				return fmt.Errorf("failed to get config path: %w", err)
			}
			_, err = fmt.Fprintln(gs.Stdout, path)
			return err
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := gs.newApp(cmd)
			if err != nil {
				return err
			}
			return toml.NewEncoder(gs.Stdout).Encode(a.Config())
		},
	}

	cmd.AddCommand(initCmd, pathCmd, showCmd)
	return cmd
}

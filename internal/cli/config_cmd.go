package cli

import (
	"tally-cli/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:         "init",
		Short:       "Write a default config file",
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.ConfigPath
			if path == "" {
				p, err := config.Path()
				if err != nil {
					return writeErr(cmd, err)
				}
				path = p
			}
			if err := config.WriteDefault(path); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"path": path})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:         "path",
		Short:       "Print the config file path",
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.ConfigPath
			if path == "" {
				p, err := config.Path()
				if err != nil {
					return writeErr(cmd, err)
				}
				path = p
			}
			return writeOut(cmd, app, map[string]any{"path": path})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective config (defaults, file, env, flags)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeOut(cmd, app, app.cfg)
		},
	})

	return cmd
}

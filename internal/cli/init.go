package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long:  "Create the configuration and data directories, write a default config.yaml\nif none exists, and create the records table.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, err := a.resolveDataDir()
			if err != nil {
				return sysError(fmt.Errorf("resolve data dir: %w", err))
			}

			wrote, err := a.writeConfigIfMissing(dataDir)
			if err != nil {
				return sysError(err)
			}

			backend, err := a.attachBackend()
			if err != nil {
				return err
			}
			path := backend.DatabasePath()
			if err := backend.Detach(); err != nil {
				return sysError(fmt.Errorf("finalize storage: %w", err))
			}

			out := cmd.OutOrStdout()
			if wrote {
				writeLine(out, "wrote %s", filepath.Join(a.configDir, configFileExt))
			}
			writeLine(out, "database ready at %s", path)
			return nil
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/crudweb/internal/sqlite"
	"github.com/mesh-intelligence/crudweb/pkg/types"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write all records to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRecords(func(backend *sqlite.Backend, _ types.RecordTable) error {
				n, err := backend.ExportJSONL(cmd.Context(), args[0])
				if err != nil {
					return sysError(fmt.Errorf("export: %w", err))
				}
				writeLine(cmd.OutOrStdout(), "exported %d records to %s", n, args[0])
				return nil
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Append records from a JSONL file",
		Long:  "Append every record in a JSONL file. Imported records receive new IDs;\nmalformed lines are skipped.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRecords(func(backend *sqlite.Backend, _ types.RecordTable) error {
				n, err := backend.ImportJSONL(cmd.Context(), args[0])
				if err != nil {
					return sysError(fmt.Errorf("import: %w", err))
				}
				writeLine(cmd.OutOrStdout(), "imported %d records from %s", n, args[0])
				return nil
			})
		},
	}
}

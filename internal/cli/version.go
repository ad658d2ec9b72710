package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/crudweb/pkg/crudweb"
)

const modulePath = "github.com/mesh-intelligence/crudweb"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the crudweb version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "crudweb v%s\nmodule: %s\n", crudweb.Version, modulePath)
			return nil
		},
	}
}

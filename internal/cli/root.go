// Package cli implements the crudweb command-line interface: the web
// server entry point plus record commands that call the same query layer.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/crudweb/internal/paths"
	"github.com/mesh-intelligence/crudweb/internal/sqlite"
	"github.com/mesh-intelligence/crudweb/pkg/crudweb"
	"github.com/mesh-intelligence/crudweb/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	output    string
}

// app carries the state shared by one command tree.
type app struct {
	flags     rootFlags
	v         *viper.Viper
	configDir string
}

// NewRootCmd creates the top-level "crudweb" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{v: newViper()}

	root := &cobra.Command{
		Use:     "crudweb",
		Short:   "A small web application over a single records table",
		Long:    "crudweb serves create, read, update, delete, and substring search\npages over a SQLite records table, and exposes the same operations\nfrom the command line.",
		Version: crudweb.Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.loadConfig()
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.crudweb-db)")
	root.PersistentFlags().StringVarP(&a.flags.output, "output", "o", outputText, "output format: text, json, or yaml")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newGetCmd(a))
	root.AddCommand(newCreateCmd(a))
	root.AddCommand(newUpdateCmd(a))
	root.AddCommand(newDeleteCmd(a))
	root.AddCommand(newSearchCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newImportCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "crudweb:", err)
		os.Exit(exitCode(err))
	}
}

// cliError pairs an error with the process exit code it should produce.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

// userError marks err as caused by bad input (exit 1).
func userError(err error) error {
	return &cliError{code: exitUserError, err: err}
}

// sysError marks err as an environment or storage failure (exit 2).
func sysError(err error) error {
	return &cliError{code: exitSysError, err: err}
}

// exitCode maps an error returned by a command to a process exit code.
// Unclassified errors come from cobra itself (bad flags, unknown
// commands) and count as user errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return exitUserError
}

// attachBackend resolves the data directory, creates a SQLite backend, and
// attaches it. The caller must defer backend.Detach().
func (a *app) attachBackend() (*sqlite.Backend, error) {
	cfg, err := a.storeConfig()
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve data dir: %w", err))
	}

	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		if isConfigError(err) {
			return nil, userError(fmt.Errorf("invalid configuration: %w", err))
		}
		return nil, sysError(fmt.Errorf("attach backend: %w", err))
	}
	return backend, nil
}

// withRecords attaches the backend, runs fn against its records table, and
// detaches.
func (a *app) withRecords(fn func(backend *sqlite.Backend, records types.RecordTable) error) (err error) {
	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	defer func() {
		if derr := backend.Detach(); derr != nil && err == nil {
			err = sysError(derr)
		}
	}()

	records, err := backend.Records()
	if err != nil {
		return sysError(err)
	}
	return fn(backend, records)
}

// resolveDataDir applies the flag > config.yaml > env > CWD precedence.
func (a *app) resolveDataDir() (string, error) {
	return paths.ResolveDataDir(a.flags.dataDir, a.configDataDir())
}

func isConfigError(err error) bool {
	for _, target := range []error{
		types.ErrBackendEmpty,
		types.ErrBackendUnknown,
		types.ErrDatabaseFileInvalid,
		types.ErrMaxOpenConnsInvalid,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func writeLine(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}

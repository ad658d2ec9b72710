package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/crudweb/internal/sqlite"
	"github.com/mesh-intelligence/crudweb/internal/web"
	"github.com/mesh-intelligence/crudweb/pkg/types"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Long:  "Serve the record pages over HTTP until interrupted (SIGINT or SIGTERM).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), a.v.GetString(cfgKeyLogLevel), a.v.GetString(cfgKeyLogFormat))
			if err != nil {
				return userError(err)
			}

			return a.withRecords(func(backend *sqlite.Backend, records types.RecordTable) error {
				srv, err := web.NewServer(records, logger, web.Options{
					Addr:            a.v.GetString(cfgKeyListenAddr),
					ReadTimeout:     a.v.GetDuration(cfgKeyReadTimeout),
					WriteTimeout:    a.v.GetDuration(cfgKeyWriteTimeout),
					ShutdownTimeout: a.v.GetDuration(cfgKeyShutdownTimeout),
					Health:          backend,
				})
				if err != nil {
					return sysError(err)
				}

				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				logger.Info("serving records", "database", backend.DatabasePath(), "addr", srv.Addr())
				if err := srv.ListenAndServe(ctx); err != nil {
					return sysError(fmt.Errorf("serve: %w", err))
				}
				return nil
			})
		},
	}

	cmd.Flags().String("addr", "", "listen address (overrides listen_addr)")
	_ = a.v.BindPFlag(cfgKeyListenAddr, cmd.Flags().Lookup("addr"))
	return cmd
}

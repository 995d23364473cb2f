package commands

import (
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/fakturownik/fakturownik/internal/logger"
	"github.com/fakturownik/fakturownik/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculation and declaration API over HTTP",
		Long: `Serve the calculation and declaration API over HTTP. Rate lookups and
deadline settings come from the project file in --dir.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			rates, err := a.rateService(cfg)
			if err != nil {
				return err
			}

			s := a.settings.Server
			if addr != "" {
				s.Addr = addr
			}
			if s.Mode != "" {
				gin.SetMode(s.Mode)
			}

			log := logger.WithComponent("server")
			h := server.NewHandler(rates, server.WithPeriodOptions(cfg.PeriodOptions()))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, server.NewRouter(h, log), s, log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from FAKTUROWNIK_SERVER_ADDR)")
	return cmd
}

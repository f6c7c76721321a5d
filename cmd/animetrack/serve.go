package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/varoOP/animetrack/internal/api"
	"github.com/varoOP/animetrack/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog and your list over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		remindEvery, _ := cmd.Flags().GetDuration("remind-every")

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			log := a.Logger()
			if err := a.Ping(ctx); err != nil {
				return err
			}

			handler := api.NewHandler(log, a.Catalog, a.List, api.WithHealthCheck(a.Ping))
			srv := api.NewServer(a.Config().ServerAddr, handler.Routes())

			if remindEvery > 0 {
				go runReminderLoop(ctx, a, remindEvery)
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", srv.Addr).Msg("listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "address to listen on")
	serveCmd.Flags().Duration("remind-every", 5*time.Minute, "check reminders at this interval, 0 disables")
	viper.BindPFlag("server_addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

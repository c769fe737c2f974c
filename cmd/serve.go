package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/ecomap/internal/dataset"
	"github.com/sells-group/ecomap/internal/metrics"
	"github.com/sells-group/ecomap/internal/server"
	"github.com/sells-group/ecomap/internal/session"
)

var servePort int

const pruneInterval = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the map API",
	Long:  "Starts the HTTP API immediately and loads the dataset in the background. API requests return 503 until the load finishes; a failed load is permanent until restart.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		m := metrics.NewMetrics()
		state := dataset.NewState()
		sessions := session.NewRegistry(session.RegistryOptions{
			Zoom:     cfg.Map.SelectZoom,
			Duration: cfg.Map.FlyDuration(),
			Metrics:  m,
		})
		srv := server.New(state, server.Options{
			Port:           cfg.Server.Port,
			CORSOrigins:    cfg.Server.CORSOrigins,
			RateLimitRPS:   cfg.Server.RateLimitRPS,
			RateLimitBurst: cfg.Server.RateLimitBurst,
			MaxSuggestions: cfg.Search.MaxSuggestions,
			View:           viewOptions(cfg),
			Sessions:       sessions,
			Metrics:        m,
		})

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			ds, err := loadDataset(gctx, cfg, m)
			if rerr := state.Resolve(ds, err); rerr != nil {
				return rerr
			}
			if err != nil {
				zap.L().Error("dataset unavailable",
					zap.String("message", dataset.UserMessage(err)),
					zap.Error(err),
				)
			}
			return nil
		})

		g.Go(func() error {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "serve: listen")
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			timeout := time.Duration(cfg.Server.ShutdownSecs) * time.Second
			if timeout <= 0 {
				timeout = 10 * time.Second
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		g.Go(func() error {
			return pruneSessions(gctx, sessions, time.Duration(cfg.Server.SessionIdleMinutes)*time.Minute)
		})

		return g.Wait()
	},
}

// pruneSessions drops idle sessions until ctx is done. A zero maxIdle keeps
// sessions forever.
func pruneSessions(ctx context.Context, reg *session.Registry, maxIdle time.Duration) error {
	if maxIdle <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			reg.Prune(maxIdle)
		}
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

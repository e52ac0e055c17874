package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/axellelanca/linkshorter/cmd"
	"github.com/axellelanca/linkshorter/internal/api"
	"github.com/axellelanca/linkshorter/internal/cache"
	"github.com/axellelanca/linkshorter/internal/config"
	"github.com/axellelanca/linkshorter/internal/services"
	"github.com/axellelanca/linkshorter/internal/store"
	"github.com/axellelanca/linkshorter/internal/sweeper"
)

// ServeCmd runs the HTTP server until SIGINT or SIGTERM.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Opens the database, starts the expiry sweeper when configured and serves
the landing page, the write API and the redirects until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := cmd.OpenStore()
		if err != nil {
			return err
		}
		defer st.Close()

		return run(ctx, cmd.Cfg, st)
	},
}

func init() {
	ServeCmd.Flags().StringP("listen", "l", "", "address to listen on (default 0.0.0.0:1566)")
	_ = viper.BindPFlag("server.listen", ServeCmd.Flags().Lookup("listen"))

	cmd.RootCmd.AddCommand(ServeCmd)
}

// run serves until ctx is done, then drains in-flight requests.
func run(ctx context.Context, cfg *config.Config, st *store.Store) error {
	gin.SetMode(gin.ReleaseMode)

	shorterCache := cache.New(cfg.CacheTTL())
	shorterService := services.NewShorterService(st, shorterCache, cfg.Shorter.PathLength)
	slog.Info("services initialized", "database", cfg.Database.Path, "cache_ttl", cfg.CacheTTL())

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.New(shorterService, cfg.SweepInterval()).Run(ctx)
	}()

	srv := &http.Server{
		Addr:    cfg.Server.Listen,
		Handler: api.NewRouter(shorterService, api.Options{Scheme: cfg.Server.Scheme}),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutdown signal received, stopping server", "timeout", cfg.ShutdownTimeout())
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stream_ledger/internal/config"
	httpServer "stream_ledger/internal/http"
	"stream_ledger/internal/http/handlers"
	"stream_ledger/internal/logger"
	"stream_ledger/internal/migrations"
	"stream_ledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "app",
		Short:         "Streaming platform economy and trust ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newSweepCommand(), newInitSettingsCommand())
	return root
}

func loadConfig() *config.Config {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	return cfg
}

func newServeCommand() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, event workers and sweep scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			defer logger.Sync()

			if migrate && cfg.StoreBackend == config.StoreBackendPostgres {
				if err := migrations.Up(cfg.DatabaseURL); err != nil {
					return err
				}
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply database migrations before serving")
	return cmd
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	tokens, err := service.NewTokenIssuer(cfg.JWTSecret, service.DefaultTokenTTL)
	if err != nil {
		return err
	}

	a.dispatcher.Start()
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer a.scheduler.Stop()

	if a.redis != nil {
		go func() {
			if err := a.hub.RunRedis(ctx, a.redis); err != nil {
				logger.Error("notification relay stopped", "error", err)
			}
		}()
	}

	r := gin.Default()

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (cfg.AllowedOrigin == "" || origin == cfg.AllowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	checks := map[string]handlers.PingFunc{"ledger": a.store.Ping}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Handler: handlers.NewHandler(handlers.Services{
			Slots:      a.slots,
			Gifts:      a.gifts,
			Payouts:    a.payouts,
			Friends:    a.friends,
			Moderation: a.moderation,
			Reaper:     a.reaper,
			Settings:   a.settings,
		}),
		Health:        handlers.NewHealthHandler(version, checks),
		Tokens:        tokens,
		Bans:          a.moderation,
		Hub:           a.hub,
		Redis:         a.redis,
		RateLimit:     cfg.APIRateLimit,
		RateWindow:    cfg.APIRateWindow,
		AllowedOrigin: cfg.AllowedOrigin,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "port", cfg.AppPort, "backend", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

func newSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run every sweep once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			defer logger.Sync()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := build(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close()

			a.dispatcher.Start()
			a.scheduler.RunOnce(ctx)
			return nil
		},
	}
}

func newInitSettingsCommand() *cobra.Command {
	var (
		in  service.SettingsInput
		fee float64
	)
	cmd := &cobra.Command{
		Use:   "init-settings",
		Short: "Create the platform settings document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			defer logger.Sync()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := build(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close()

			in.PlatformFeePercentage = &fee
			if err := a.settings.Bootstrap(ctx, in); err != nil {
				return err
			}
			logger.Info("settings initialized",
				"premium_rate", in.PremiumPayoutPercentage,
				"standard_rate", in.StandardPayoutPercentage,
				"max_premium_slots", in.MaxPremiumSlots)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&in.PremiumPayoutPercentage, "premium-rate", 0.7, "payout fraction for premium receivers")
	flags.Float64Var(&in.StandardPayoutPercentage, "standard-rate", 0.5, "payout fraction for standard receivers")
	flags.IntVar(&in.MaxPremiumSlots, "max-premium-slots", 10, "number of premium slots")
	flags.Float64Var(&fee, "platform-fee", 0.10, "fee fraction kept on approved payouts")
	return cmd
}

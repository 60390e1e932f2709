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

	"github.com/havaxeban925-ux/scm-backend/config"
	"github.com/havaxeban925-ux/scm-backend/internal/app/controller"
	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/internal/app/repository"
	"github.com/havaxeban925-ux/scm-backend/internal/app/service"
	"github.com/havaxeban925-ux/scm-backend/internal/db"
	"github.com/havaxeban925-ux/scm-backend/internal/events"
	"github.com/havaxeban925-ux/scm-backend/internal/middleware"
	"github.com/havaxeban925-ux/scm-backend/internal/router"
	"github.com/havaxeban925-ux/scm-backend/internal/scheduler"
	ws "github.com/havaxeban925-ux/scm-backend/internal/websocket"
	"github.com/havaxeban925-ux/scm-backend/pkg/logger"
	"github.com/havaxeban925-ux/scm-backend/pkg/redis"
	"github.com/havaxeban925-ux/scm-backend/pkg/util"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var rootCmd = &cobra.Command{
	Use:   "scm-server",
	Short: "Style allocation and lifecycle engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
	SilenceUsage: true,
}

func main() {
	registerCommands()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func registerCommands() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, event hub and sweep scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cleanup, err := bootstrap()
			if err != nil {
				return err
			}
			defer cleanup()
			return db.Migrate()
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "reconcile-quota",
		Short: "Recompute every shop quota from its assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, func(ctx context.Context, sweeps service.SweepService) error {
				drifts, err := sweeps.ReconcileQuotas(ctx)
				for _, d := range drifts {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: recorded=%d actual=%d\n", d.ShopID, d.Recorded, d.Actual)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "repaired %d ledger rows\n", len(drifts))
				return err
			})
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "close-listings",
		Short: "Close full listings whose assignments have all finished",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, func(ctx context.Context, sweeps service.SweepService) error {
				closed, err := sweeps.CloseSettledListings(ctx)
				fmt.Fprintf(cmd.OutOrStdout(), "closed %d listings\n", closed)
				return err
			})
		},
	})
	rootCmd.AddCommand(issueTokenCmd())
}

// issueTokenCmd signs a token with the configured secret for local testing.
func issueTokenCmd() *cobra.Command {
	var role, shopID string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "issue-token <subject>",
		Short: "Sign a development token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !model.Role(role).Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			token, err := util.GenerateToken(args[0], role, shopID, cfg.JWT.Secret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(model.RoleBuyer), "buyer, shop or admin")
	cmd.Flags().StringVar(&shopID, "shop-id", "", "shop id for shop accounts")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

// bootstrap loads configuration, initializes the logger and opens the database.
func bootstrap() (*config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	if err := db.Initialize(&cfg.Database); err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}
	return cfg, cleanup, nil
}

func runSweep(cmd *cobra.Command, fn func(ctx context.Context, sweeps service.SweepService) error) error {
	cfg, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	conn := db.GetDB()
	sweeps := service.NewSweepService(conn, repository.NewRepositories(conn), events.Nop{}, cfg.Allocation)
	return fn(cmd.Context(), sweeps)
}

func serve(ctx context.Context) error {
	cfg, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("Starting SCM Backend Server", map[string]interface{}{
		"environment":         cfg.Server.Environment,
		"port":                cfg.Server.Port,
		"pool_abandon_policy": cfg.Allocation.PoolAbandonPolicy,
	})

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Event fan-out
	hub := ws.NewHub()
	go hub.Run(ctx)
	publishers := events.Multi{hub}
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			return err
		}
		defer func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
		publishers = append(publishers, events.NewRedisPublisher(redis.GetClient(), cfg.Redis.Channel))
	}

	// Initialize repositories and services
	conn := db.GetDB()
	repos := repository.NewRepositories(conn)
	allocationService := service.NewAllocationService(conn, repos, publishers, cfg.Allocation)
	lifecycleService := service.NewLifecycleService(conn, repos, publishers, cfg.Allocation)
	catalogService := service.NewCatalogService(conn, repos, cfg.Allocation)
	sweepService := service.NewSweepService(conn, repos, publishers, cfg.Allocation)

	if cfg.Scheduler.Enabled {
		sweepScheduler := scheduler.NewSweepScheduler(sweepService, cfg.Scheduler)
		if err := sweepScheduler.Start(); err != nil {
			return err
		}
		defer sweepScheduler.Stop()
	}

	r := router.NewRouter(
		controller.NewAllocationController(allocationService, catalogService),
		controller.NewPoolController(allocationService, catalogService),
		controller.NewLifecycleController(lifecycleService),
		controller.NewEventController(catalogService, hub, cfg.CORS.AllowedOrigins),
		middleware.NewAuthMiddleware(cfg.JWT.Secret),
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", err)
		return err
	}
	logger.Info("Server stopped successfully")
	return nil
}

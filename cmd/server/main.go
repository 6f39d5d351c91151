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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/yukikurage/task-tracker-api/internal/auth"
	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/logger"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/server"
	"github.com/yukikurage/task-tracker-api/internal/services"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "task-tracker",
		Short:        "Multi-user task tracking API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run migrations and start the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				_, log, db, err := bootstrap()
				if err != nil {
					return err
				}
				defer closeDB(db, log)

				if err := database.Migrate(db); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
				log.Info("migrations applied")
				return nil
			},
		},
		newCreateAdminCmd(),
	)

	return root
}

func newCreateAdminCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer closeDB(db, log)

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}

			users := services.NewUserService(repository.NewStore(db), cfg.BcryptCost)
			user, created, err := users.EnsureAdmin(cmd.Context(), username, email, password)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}

			log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username, "created": created}).
				Info("admin account ready")
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func bootstrap() (*config.Config, *logrus.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.WithError(err).Error("database connection failed")
		return nil, nil, nil, err
	}

	return cfg, log, db, nil
}

func closeDB(db *gorm.DB, log *logrus.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Warn("close database failed")
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer closeDB(db, log)

	gin.SetMode(cfg.GinMode)

	if err := database.Migrate(db); err != nil {
		log.WithError(err).Error("migrations failed")
		return err
	}

	var revoker auth.Revoker = auth.NoopRevoker{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unreachable; revoked tokens will be rejected until it recovers")
		}
		cancel()
		revoker = auth.NewRedisDenylist(rdb)
	} else {
		log.Info("REDIS_ADDR not set; logout is stateless")
	}

	router := server.NewRouter(server.Deps{
		Log:        log,
		Store:      repository.NewStore(db),
		Tokens:     auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL),
		Revoker:    revoker,
		BcryptCost: cfg.BcryptCost,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("api server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("server run failed")
			return err
		}
	}

	log.Info("shutting down api server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown failed")
		return err
	}
	return nil
}

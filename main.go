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

	"dentalclinic-backend/config"
	"dentalclinic-backend/routes"
	"dentalclinic-backend/services"
	"dentalclinic-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "dentalclinic",
		Short:        "Dental clinic practice-management backend",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(digestCmd())
	rootCmd.AddCommand(secretCmd())
	return rootCmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			defer config.CloseDB(db) //nolint:errcheck

			logger.Info("Migrations applied", zap.String("driver", cfg.Database.Driver))
			return nil
		},
	}
}

func digestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Send the end-of-day digest to every opted-in clinic",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			day, err := utils.ParseDay(date, time.Local)
			if err != nil {
				return err
			}

			cfg, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			defer config.CloseDB(db) //nolint:errcheck

			sent, err := newDigestService(cfg, db, logger).SendAll(cmd.Context(), day)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %d digests for %s\n", sent, day.Format(utils.DayLayout))
			return nil
		},
	}
	cmd.Flags().String("date", "", "day to summarise (YYYY-MM-DD, default today)")
	return cmd
}

func secretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Print a random value for JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			size, _ := cmd.Flags().GetInt("bytes")
			secret, err := utils.GenerateJWTSecret(size)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	}
	cmd.Flags().Int("bytes", 32, "random bytes before base64 encoding")
	return cmd
}

// bootstrap loads configuration, builds the logger and opens a migrated database.
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := config.NewLogger(cfg.Log)

	db, err := config.ConnectDB(cfg.Database, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := config.Migrate(db); err != nil {
		_ = config.CloseDB(db)
		return nil, nil, nil, err
	}
	return cfg, logger, db, nil
}

func newDigestService(cfg *config.Config, db *gorm.DB, logger *zap.Logger) *services.DigestService {
	var notifier services.Notifier
	if cfg.Twilio.Configured() {
		notifier = services.NewTwilioNotifier(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber)
	} else {
		logger.Warn("Twilio not configured, digests will be logged only")
		notifier = services.NewLogNotifier(logger)
	}
	return services.NewDigestService(db, notifier, logger)
}

func runServer() error {
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	defer config.CloseDB(db) //nolint:errcheck

	if err := cfg.JWT.Validate(); err != nil {
		return err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Digest.Enabled {
		digest := newDigestService(cfg, db, logger)
		if err := digest.Start(cfg.Digest.Cron); err != nil {
			return err
		}
		defer digest.Stop()
	}

	r, err := routes.SetupRouter(db, cfg, logger)
	if err != nil {
		return err
	}
	for _, route := range r.Routes() {
		logger.Debug("Route", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

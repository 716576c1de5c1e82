package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shivaapratim/mini-crm/internal/core/api"
	"github.com/shivaapratim/mini-crm/internal/core/auth"
	"github.com/shivaapratim/mini-crm/internal/core/config"
	"github.com/shivaapratim/mini-crm/internal/core/db"
	"github.com/shivaapratim/mini-crm/internal/core/server"
	"github.com/shivaapratim/mini-crm/internal/ingest"
	"github.com/shivaapratim/mini-crm/internal/segments"
	"github.com/shivaapratim/mini-crm/internal/worker"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "HTTP server host")
	serveCmd.Flags().Int("port", 5001, "HTTP server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	log, err := newLogger()
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("host") {
		host, _ := cmd.Flags().GetString("host")
		cfg.Host = host
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		cfg.Port = port
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := db.MigrateUp(database); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	store, err := db.NewStore(database)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	ingestSvc := ingest.NewService(store, log)
	segmentSvc := segments.NewService(store, log)
	reconciler := worker.NewReconciler(store, cfg.WorkerBatchSize, log)

	secret := config.CronSecret()
	if secret == "" {
		log.Warn("MINICRM_CRON_SECRET not set, job trigger endpoints are unauthenticated")
	}
	guard := auth.NewTriggerGuard(secret, log)

	service, err := api.NewService(ingestSvc, segmentSvc, reconciler, guard, log)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	httpServer, err := server.NewHTTPServer(cfg, service)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Info("starting mini-crm API", "version", Version, "addr", httpServer.Addr())
	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		log.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

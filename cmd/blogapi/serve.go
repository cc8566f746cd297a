package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"blog-api/internal/cleanup"
	"blog-api/internal/config"
	"blog-api/internal/httpapi"
	"blog-api/internal/obs"
	"blog-api/internal/store"
	"blog-api/internal/store/memory"
	"blog-api/internal/store/postgres"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(configFile *string) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return serve(cmd.Context(), cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving (postgres only)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, migrate bool) error {
	logger, err := obs.NewLogger(obs.LogConfig{
		Level:           cfg.Log.Level,
		Pretty:          cfg.Log.Pretty,
		App:             cfg.App.Name,
		Env:             cfg.App.Env,
		Ver:             cfg.App.Version,
		AuditFile:       cfg.Log.AuditFile,
		AuditMaxSizeMB:  cfg.Log.AuditMaxSizeMB,
		AuditMaxBackups: cfg.Log.AuditMaxBackups,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	tel, err := obs.SetupOTel(ctx, obs.OTELConfig{
		Enable:      cfg.OTEL.Enable,
		Endpoint:    cfg.OTEL.OTLPEndpoint,
		ServiceName: cfg.App.Name,
		SampleRatio: cfg.OTEL.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init otel: %w", err)
	}
	defer func() {
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tel.Shutdown(ctxShutdown)
	}()

	st, closeStore, err := openStore(ctx, cfg, migrate, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	runner := cleanup.New(logger.Named("cleanup"), st, cfg.Cleanup.Interval, cfg.Cleanup.Retention)
	go func() { _ = runner.Run(runCtx) }()

	var metricsServer *http.Server
	if cfg.Metrics.Addr != "" {
		metricsServer = obs.BootstrapMetricsServer(cfg.Metrics.Addr, st.Ping, logger)
	}

	api, err := httpapi.NewServer(cfg, st, logger)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("%s is running", cfg.App.Name), zap.String("addr", cfg.Server.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			serveErr = fmt.Errorf("http server: %w", err)
		}
	}

	cancelRun()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancelShutdown()
	if metricsServer != nil {
		_ = metricsServer.Shutdown(ctxShutdown)
	}
	if err := httpServer.Shutdown(ctxShutdown); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}

func openStore(ctx context.Context, cfg config.Config, migrate bool, logger *zap.Logger) (store.Store, func(), error) {
	if !cfg.UsePostgres() {
		logger.Info("using memory store")
		return memory.NewStore(), func() {}, nil
	}

	if migrate {
		if err := postgres.Migrate(ctx, cfg.DB.DSN, "up"); err != nil {
			return nil, nil, err
		}
		logger.Info("migrations applied")
	}

	pg, err := postgres.NewStore(ctx, cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init postgres store: %w", err)
	}
	logger.Info("using postgres store")
	return pg, pg.Close, nil
}

package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/VerminX/SanctuaryThree-sub004/internal/config"
	"github.com/VerminX/SanctuaryThree-sub004/internal/domain/lcd"
	"github.com/VerminX/SanctuaryThree-sub004/internal/domain/woundcare"
	"github.com/VerminX/SanctuaryThree-sub004/internal/platform/auth"
	"github.com/VerminX/SanctuaryThree-sub004/internal/platform/db"
	"github.com/VerminX/SanctuaryThree-sub004/internal/platform/metrics"
	"github.com/VerminX/SanctuaryThree-sub004/internal/platform/middleware"
	"github.com/VerminX/SanctuaryThree-sub004/internal/platform/rules"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lcd-server",
		Short:         "Medicare LCD wound care compliance service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(assessCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantCmd())
	return rootCmd
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	logger := zerolog.New(out).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the compliance API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stdout)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if err := cfg.RequireDatabase(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	recorder := metrics.NewRecorder()

	provider, err := rules.NewFileProvider(cfg.RulesFile, logger, rules.WithReloadObserver(recorder))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise rules provider")
	}
	if cfg.RulesWatch {
		provider.Watch()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(otelecho.Middleware("lcd-server", otelecho.WithSkipper(auth.AuthSkipper)))
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	if cfg.MetricsEnabled {
		e.Use(recorder.Middleware())
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader, "X-Tenant-ID"},
	}))

	if cfg.IsDev() && cfg.AuthSigningKey == "" && cfg.AuthJWKSURL == "" {
		logger.Warn().Msg("development auth enabled, every request runs as admin")
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
			Skipper:    auth.AuthSkipper,
		}))
	}

	e.Use(tenantScoped(db.TenantMiddleware(pool, cfg.DefaultTenant)))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool, func() map[string]interface{} {
		return rulesHealth(provider)
	}))
	if cfg.MetricsEnabled {
		e.GET("/metrics", recorder.Handler())
	}

	apiV1 := e.Group("/api/v1")

	episodes := woundcare.NewEpisodeRepoPG(pool)
	encounters := woundcare.NewEncounterRepoPG(pool)
	exceptions := woundcare.NewExceptionRepoPG(pool)

	woundcare.NewHandler(woundcare.NewService(episodes, encounters, exceptions)).RegisterRoutes(apiV1)

	engine := lcd.NewEngine(provider, logger)
	lcdSvc := lcd.NewService(episodes, encounters, exceptions, engine, lcd.WithObserver(recorder))
	lcd.NewHandler(lcdSvc).RegisterRoutes(apiV1)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("rules_file", cfg.RulesFile).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// tenantScoped skips the tenant connection for health and metrics probes so
// they never hold a pooled connection.
func tenantScoped(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		scoped := mw(next)
		return func(c echo.Context) error {
			if auth.IsPublicPath(c.Path()) {
				return next(c)
			}
			return scoped(c)
		}
	}
}

func rulesHealth(p rules.Provider) map[string]interface{} {
	snap, err := p.Current()
	if err != nil {
		return map[string]interface{}{
			"rules_version": lcd.BuiltinRulesVersion,
			"rules_error":   err.Error(),
		}
	}
	return map[string]interface{}{
		"rules_version":   snap.Version(),
		"rules_loaded_at": snap.LoadedAt(),
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/derivativespricing/internal/risk/application"
	"github.com/wyfcoding/derivativespricing/internal/risk/domain"
	riskhttp "github.com/wyfcoding/derivativespricing/internal/risk/interfaces/http"
	"github.com/wyfcoding/derivativespricing/pkg/config"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/risk/config.toml", "path to config file")
	flag.Parse()

	// 1. Config
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("load config failed: %v", err))
	}

	// 2. Logger
	logger := logging.NewLogger(cfg.ServiceName, "main", cfg.Logger.Level)
	slog.SetDefault(logger.Logger)

	// 3. Domain
	varDefaults := domain.VaRConfig{
		Simulations: cfg.Risk.VaRSimulations,
		Horizon:     cfg.Risk.VaRHorizon,
		Confidence:  cfg.Risk.VaRConfidence,
		Epsilon:     cfg.Engine.ExpiryEpsilon,
	}
	marginCalc := domain.NewMarginCalculator(
		cfg.Risk.MarginBaseRate,
		cfg.Risk.MarginVolMultiplier,
		cfg.Risk.ConfidenceMultiplier,
		domain.DefaultScenarioGrid(cfg.Engine.ExpiryEpsilon),
		varDefaults,
	)

	// 4. Application
	appService := application.NewRiskService(logger.Logger, cfg.Engine.ExpiryEpsilon, marginCalc, varDefaults)

	// 5. Interfaces
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	sys := r.Group("/sys")
	{
		sys.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })
		sys.GET("/ready", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "READY"}) })
	}
	pp := r.Group("/debug/pprof")
	{
		pp.GET("/", gin.WrapF(pprof.Index))
		pp.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pp.GET("/profile", gin.WrapF(pprof.Profile))
		pp.GET("/symbol", gin.WrapF(pprof.Symbol))
		pp.GET("/trace", gin.WrapF(pprof.Trace))
	}

	handler := riskhttp.NewRiskHandler(appService)
	handler.RegisterRoutes(r)

	// 6. Start
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited", "error", err)
	}
}

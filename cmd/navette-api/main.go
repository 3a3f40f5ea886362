// README: Entry point; loads config, wires services, starts HTTP server and background tickers.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"navette/internal/config"
	httptransport "navette/internal/http"
	"navette/internal/infra"
	"navette/internal/maps"
	"navette/internal/modules/availability"
	"navette/internal/modules/directory"
	"navette/internal/modules/mission"
	"navette/internal/modules/pricing"
	"navette/internal/modules/recommend"
	"navette/internal/modules/trip"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on system env vars")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("postgres init failed", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	var routes trip.RouteSource
	if cfg.Maps.APIKey != "" {
		routeService, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			logger.Fatal("maps init failed", zap.Error(err))
		}
		routes = routeService
	}

	directoryStore := directory.NewStore(dbPool)
	directorySvc := directory.NewService(directoryStore)

	missionStore := mission.NewStore(dbPool)
	missionSvc := mission.NewService(missionStore, logger)

	tripEstimator := trip.NewEstimator(routes, trip.NewStore(redisClient, cfg.Trip.CacheTTL), logger)

	pricingSvc := pricing.NewService(pricing.NewStore(dbPool))

	availabilitySvc := availability.NewService(directorySvc, missionStore, logger,
		availability.WithQueryTimeout(cfg.Engine.QueryTimeout),
		availability.WithFanoutLimit(cfg.Engine.FanoutLimit),
	)

	recommendSvc := recommend.NewService(availabilitySvc, directoryStore, tripEstimator, pricingSvc, logger,
		recommend.WithQueryTimeout(cfg.Engine.QueryTimeout),
		recommend.WithFanoutLimit(cfg.Engine.FanoutLimit),
	)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Recommend:    recommendSvc,
		Availability: availabilitySvc,
		Mission:      missionSvc,
		Logger:       logger,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go missionSvc.RunCompletionTicker(ctx, cfg.Mission.CompletionInterval)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
}

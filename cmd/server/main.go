package main

import (
	"context"
	"errors"
	"fuel-route-service/internal/adapters/cache"
	"fuel-route-service/internal/adapters/elevation"
	"fuel-route-service/internal/adapters/repositories"
	"fuel-route-service/internal/api"
	"fuel-route-service/internal/config"
	"fuel-route-service/internal/platform/db"
	"fuel-route-service/internal/platform/metrics"
	"fuel-route-service/internal/platform/tracing"
	"fuel-route-service/internal/ports"
	"fuel-route-service/internal/services"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

type store interface {
	ports.RouteRepository
	ports.EvaluationStore
}

// main is the application composition root.
// It wires concrete adapters (Postgres or memory, Redis, ORS) behind ports and starts the HTTP server.
func main() {
	config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, tracing.TracerName, config.GetBool("TRACE_STDOUT", false), os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	defer tracing.Shutdown(context.Background(), shutdownTracing)

	repo, closeRepo, err := openStore(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer closeRepo()

	collector, err := metrics.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal(err)
	}

	evaluator := &services.Evaluator{
		Routes:    repo,
		Store:     repo,
		Elevation: newElevationProvider(),
		Metrics:   collector,
		Workers:   config.GetInt("SEGMENT_WORKERS", runtime.GOMAXPROCS(0)),
	}

	if addr := config.Get("REDIS_ADDR", ""); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		defer client.Close()
		evaluator.Cache = cache.NewRedisEvaluationCache(client, config.GetDuration("EVAL_CACHE_TTL", time.Hour))
		log.Printf("evaluation cache enabled backend=redis addr=%s", addr)
	}

	router := api.NewRouter(api.Deps{
		Routes:    repo,
		Store:     repo,
		Evaluator: evaluator,
		Metrics:   collector,
	})

	port := config.Get("PORT", "8080")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Optimizations on long routes and cold elevation lookups take a while.
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("Server listening addr=:%s", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// openStore uses Postgres when DATABASE_URL is set and otherwise serves the seed
// routes from memory.
func openStore(ctx context.Context) (store, func(), error) {
	if url := config.Get("DATABASE_URL", ""); url != "" {
		conn, err := db.Open(ctx, url)
		if err != nil {
			return nil, nil, err
		}
		log.Println("route store backend=postgres")
		return repositories.NewPostgresRouteRepository(conn), func() { _ = conn.Close() }, nil
	}

	seedPath := config.Get("SEED_PATH", "data/seeds/routes.json")
	data, err := os.ReadFile(seedPath)
	if err != nil {
		return nil, nil, err
	}
	routes, err := repositories.ParseRouteSeeds(data)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("route store backend=memory routes=%d seed=%s", len(routes), seedPath)
	return repositories.NewMemoryRouteRepository(routes...), func() {}, nil
}

// newElevationProvider prefers ORS with Open-Elevation as fallback. Without an
// ORS key only Open-Elevation is used.
func newElevationProvider() ports.ElevationProvider {
	rps := config.GetFloat("ELEVATION_RPS", 5)
	open := elevation.NewOpenElevation(config.Get("OPEN_ELEVATION_URL", ""), rps)

	key := config.Get("ORS_API_KEY", "")
	if key == "" {
		log.Println("ORS_API_KEY not set, elevation provider=open-elevation")
		return open
	}

	ors, err := elevation.NewORSElevation(key, config.Get("ORS_BASE_URL", ""), rps, 0)
	if err != nil {
		log.Printf("ors elevation disabled: %v", err)
		return open
	}
	return elevation.NewFallbackElevation(ors, open)
}

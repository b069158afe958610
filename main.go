package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"xandpulse/config"
	"xandpulse/handlers"
	"xandpulse/middleware"
	"xandpulse/models"
	"xandpulse/services"
	"xandpulse/utils"
)

func main() {
	// 1. Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("Unknown log level %q, using info", cfg.LogLevel)
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	log.Println("=== Configuration ===")
	log.Printf("Server: %s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Default cluster: %s", cfg.DefaultCluster())
	for _, nc := range cfg.NetworkConfigs() {
		log.Printf("  %-8s %s", nc.Name, nc.RPCEndpoint)
	}
	if cfg.Redis.Enabled {
		log.Printf("Redis: %s", cfg.Redis.Address)
	}

	// 2. Core services
	geo := utils.NewGeoResolver(cfg.GeoIP.DBPath)
	defer geo.Close()

	seed := cfg.Synthetic.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	generator := services.NewSyntheticGenerator(rand.New(rand.NewSource(seed)), time.Now, geo)

	rpc := services.NewRPCClient(cfg)
	cache := services.NewCacheService(cfg)
	topology := services.NewTopologyService()

	poller := services.NewPoller(cfg, cache, func(network models.NetworkConfig) *services.ClusterClient {
		return services.NewClusterClient(network, rpc, generator, cfg.Synthetic.NodeCount)
	})

	// 3. Background services
	log.Println("=== Starting Services ===")
	cache.Start()
	log.Printf("✓ Cache Service started (mode: %s)", cache.GetCacheMode())
	poller.Start()
	log.Printf("✓ Poller started (every %s)", cfg.RefreshIntervalDuration())

	// 4. Web server
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.LoggerMiddleware())
	e.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("Recovered from panic: %v", r)
					c.Error(fmt.Errorf("internal server error"))
				}
			}()
			return next(c)
		}
	})

	h := handlers.NewHandler(cfg, cache, poller, topology)
	cacheHandlers := handlers.NewCacheHandlers(cache)
	handlers.Register(e, h, cacheHandlers)

	// 5. Start HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	go func() {
		log.Printf("🚀 Server running on http://%s", serverAddr)
		if err := e.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("shutting down the server: %v", err)
		}
	}()

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("⏳ Graceful shutdown initiated...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Errorf("Server shutdown: %v", err)
	}

	log.Println("Stopping services...")
	poller.Stop()
	cache.Stop()
	log.Println("✓ Server exited cleanly")
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kirana/internal/api"
	"kirana/internal/config"
	"kirana/internal/console"
	"kirana/internal/dashboard"
	"kirana/internal/monitoring"
	"kirana/internal/notify"
	"kirana/internal/session"
	"kirana/internal/workbench"
)

var (
	port        = flag.Int("port", 0, "Console server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "", "Path to configuration file")
	backendURL  = flag.String("backend", "", "Backend base URL (overrides config)")
)

func main() {
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort != 0 {
		cfg.Server.MetricsPort = *metricsPort
	}
	if *backendURL != "" {
		cfg.Backend.URL = *backendURL
	}

	monitor := monitoring.NewMonitor()
	client := api.NewClient(cfg.Backend.URL, cfg.Backend.Token)

	poller := notify.NewPoller(client, monitor,
		notify.WithInterval(cfg.Poller.Interval.Std()),
		notify.WithPageSize(cfg.Poller.PageSize),
		notify.WithCap(cfg.Poller.NotificationCap),
	)

	sess, err := session.Open(ctx, cfg.Backend.Token, poller)
	if err != nil {
		log.Fatalf("Failed to open session: %v", err)
	}
	defer sess.Close()

	wb := workbench.New(client, monitor)
	wb.SetDebounce(cfg.Workbench.SearchDebounce.Std())
	wb.SetPageSize(cfg.Workbench.PageSize)
	dash := dashboard.NewService(client, cfg.Dashboard.SampleSize)

	consoleServer := console.NewServer(wb, poller, dash, sess)

	go startMetricsServer(cfg.Server.MetricsPort)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: consoleServer.Router(),
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down console...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Console server shutdown error: %v", err)
		}

		cancel()
	}()

	log.Printf("Starting console server on port %d (backend %s)", cfg.Server.Port, cfg.Backend.URL)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Console server error: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func startMetricsServer(port int) {
	metricsRouter := gin.Default()
	metricsRouter.GET("/metrics", gin.WrapH(promhttp.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	log.Printf("Starting metrics server on port %d", port)
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	v1 "github.com/jayant810/chatSphere/cmd/api/router/v1"
	brokerAdapter "github.com/jayant810/chatSphere/internal/infrastructure/broker/adapter"
	"github.com/jayant810/chatSphere/internal/infrastructure/config"
	"github.com/jayant810/chatSphere/internal/infrastructure/database"
	queueAdapter "github.com/jayant810/chatSphere/internal/infrastructure/queue/adapter"
	"github.com/jayant810/chatSphere/internal/infrastructure/realtime"
	"github.com/jayant810/chatSphere/internal/pkg/chat/application/task"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := database.Connect(connectCtx, cfg.DatabaseURL)
	if err != nil {
		log.Error("connect database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	broker, err := brokerAdapter.NewRedisBroker(cfg.RedisURL)
	if err != nil {
		log.Error("connect broker", "error", err)
		os.Exit(1)
	}
	defer broker.Close()

	queueClient, err := queueAdapter.NewAsynqClient(cfg.RedisURL)
	if err != nil {
		log.Error("create queue client", "error", err)
		os.Exit(1)
	}
	defer queueClient.Close()

	queueServer, err := queueAdapter.NewAsynqServer(cfg.RedisURL, log)
	if err != nil {
		log.Error("create queue server", "error", err)
		os.Exit(1)
	}
	task.RegisterRepublishTask(queueServer, broker)

	registry := realtime.NewRegistry()

	r := gin.Default()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	v1.RegisterRoutes(r, pool, broker, queueClient, registry, log, cfg.RequestTimeout)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	go func() {
		if err := queueServer.Run(ctx); err != nil {
			log.Error("queue server stopped", "error", err)
		}
	}()

	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	registry.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	_ = queueServer.Stop(shutdownCtx)
}

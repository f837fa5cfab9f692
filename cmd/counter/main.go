package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"giftcounter/internal/config"
	"giftcounter/internal/counter"
	"giftcounter/internal/giftclient"
	"giftcounter/internal/httpmiddleware"
	"giftcounter/internal/metrics"
	"giftcounter/internal/web"
)

func main() {
	cfg := config.Load()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	diag := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("component", "counter")

	m := metrics.New(prometheus.DefaultRegisterer)
	gifts := giftclient.New(cfg.GiftAPIURL, m)
	log.Printf("gift API at %s", cfg.GiftAPIURL)
	if cfg.ReportTransportErrors {
		log.Println("transport errors will be shown to counter staff")
	}

	sessions := web.NewSessions(func() *counter.Controller {
		return counter.NewController(gifts,
			counter.WithLogger(diag),
			counter.WithRecorder(m),
			counter.WithTransportNotices(cfg.ReportTransportErrors),
		)
	}, cfg.SessionIdleTTL, m)

	format := counter.TimeFormat{Layout: cfg.DisplayTimeLayout, Location: cfg.Location()}
	handler := web.NewHandler(sessions, format, gifts, cfg.Production())

	r := gin.New()

	r.Use(gin.Recovery())

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(securityHeaders())

	r.Use(httpmiddleware.NewClientLimiter(cfg.RateLimitPerMin, cfg.RateLimitPerMin, 10*time.Minute).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := handler.Register(r); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Printf("Starting counter on :%s", cfg.HTTPPort)
		srvErr <- srv.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-stopCtx.Done():
		log.Println("Shutting down server...")
	}

	// Give in-flight lookups and redemptions 10 seconds to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// Package httpapi wires the relay's health and metrics server. The bot
// itself talks to Telegram over long polling; this Gin engine only
// exposes liveness probes for the hosting platform and a Prometheus
// scrape endpoint, behind the shared middleware chain.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tbourn/go-support-relay/internal/config"
	"github.com/tbourn/go-support-relay/internal/http/middleware"
)

// liveBody is the plain-text liveness response served on / and /healthz.
const liveBody = "Bot is alive and running!"

// RegisterRoutes attaches middleware and endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. RequestID: generate/propagate correlation id
//  2. Logger: structured access logs
//  3. Recovery: capture panics after logger
//  4. Metrics
//  5. Rate limiter (per IP)
//  6. CORS and security headers
func RegisterRoutes(r *gin.Engine, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	// CORS posture (safe defaults: allow all if none configured).
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header so
		// simple health checks see it too.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS).
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
		NoStore:    false,
	}))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "message": "route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"code": "method_not_allowed", "message": "method not allowed"})
	})

	// Liveness probes. Some platforms ping "/", others "/healthz".
	live := func(c *gin.Context) { c.String(http.StatusOK, liveBody) }
	r.GET("/", live)
	r.GET("/healthz", live)
}

// NewServer builds the http.Server for the health endpoints with the
// configured timeouts.
func NewServer(r *gin.Engine, cfg config.Config) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

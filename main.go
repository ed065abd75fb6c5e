package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/workforcehub/hubauth/handlers"
	"github.com/workforcehub/hubauth/internal/api"
	"github.com/workforcehub/hubauth/internal/authclient"
	"github.com/workforcehub/hubauth/internal/config"
	"github.com/workforcehub/hubauth/internal/credstore"
	"github.com/workforcehub/hubauth/internal/eventbus"
	"github.com/workforcehub/hubauth/internal/exchange"
	"github.com/workforcehub/hubauth/internal/identity"
	"github.com/workforcehub/hubauth/internal/provider"
	"github.com/workforcehub/hubauth/internal/renewal"
	"github.com/workforcehub/hubauth/pkg/logger"
	"github.com/workforcehub/hubauth/pkg/metrics"
	"github.com/workforcehub/hubauth/pkg/middleware"
)

var startTime = time.Now()

// buildStorage selects the credential persistence medium from configuration.
// Redis and file failures fall back to memory so a misconfigured backend never
// blocks sign-in; the session just loses restart survival.
func buildStorage(cfg *config.Config) credstore.Storage {
	switch cfg.Storage.Backend {
	case "redis":
		if cfg.Redis.Host == "" {
			logger.Warnf("CREDENTIAL_STORAGE=redis but REDIS_HOST is empty; using in-memory storage")
			return credstore.NewMemoryStorage()
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v; using in-memory storage", cfg.Redis.Host, cfg.Redis.Port, err)
			return credstore.NewMemoryStorage()
		}
		logger.Infof("credential storage: redis (%s:%s)", cfg.Redis.Host, cfg.Redis.Port)
		return credstore.NewRedisStorage(client, "credential:", cfg.Redis.TTL)
	case "file":
		fs, err := credstore.NewFileStorage(cfg.Storage.Dir)
		if err != nil {
			logger.Warnf("failed to initialize file storage in %s: %v; using in-memory storage", cfg.Storage.Dir, err)
			return credstore.NewMemoryStorage()
		}
		logger.Infof("credential storage: file (%s)", cfg.Storage.Dir)
		return fs
	default:
		logger.Infof("credential storage: memory")
		return credstore.NewMemoryStorage()
	}
}

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: authority=%s gateway=%s storage=%s", cfg.Provider.Authority, cfg.Gateway.URL, cfg.Storage.Backend)

	store := credstore.NewStore(buildStorage(cfg))
	bus := eventbus.New()

	// outbound client: credential precedence + 401 signalling
	transport := authclient.NewTransport(nil, store, bus)
	apiClient := api.NewClient(cfg.Gateway.URL, transport.Client(cfg.Gateway.Timeout))

	ctx := context.Background()
	var extra map[string]string
	if cfg.Provider.IdentityHint != "" {
		extra = map[string]string{"kc_idp_hint": cfg.Provider.IdentityHint}
	}
	session, err := provider.NewSession(ctx, provider.Config{
		Authority:             cfg.Provider.Authority,
		ClientID:              cfg.Provider.ClientID,
		RedirectURI:           cfg.Provider.RedirectURI,
		PostLogoutRedirectURI: cfg.Provider.PostLogoutRedirectURI,
		Scopes:                cfg.Provider.Scopes,
		AutomaticSilentRenew:  cfg.Provider.AutomaticSilentRenew,
		SilentRedirectURI:     cfg.Provider.SilentRedirectURI,
		LoadUserInfo:          cfg.Provider.LoadUserInfo,
		ExtraAuthParams:       extra,
	})
	if err != nil {
		logger.Fatalf("failed to initialize identity provider session: %v", err)
	}
	transport.RegisterProviderTokenAccessor(session.AccessToken)

	// renewal: one attempt at a time, throttled against 401 storms
	coordinator := renewal.NewCoordinator(session, store, rate.NewLimiter(rate.Every(10*time.Second), 1))
	unsubscribe := coordinator.Subscribe(bus)
	defer unsubscribe()

	flow := exchange.NewFlow(store, &http.Client{Timeout: cfg.Gateway.Timeout}, cfg.Gateway.URL+"/auth/google")
	resolver := identity.NewResolver(store, session, apiClient)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
			"deps": gin.H{
				"provider": true,
				"storage":  cfg.Storage.Backend,
			},
			"uptime": time.Since(startTime).String(),
		})
	})

	// the auth routes carry a modest per-IP budget so a redirect loop cannot
	// hammer the provider or the exchange endpoint; health, readiness and
	// metrics stay outside the bucket
	authRoutes := r.Group("/", middleware.RateLimitMiddleware(5, 10))
	handlers.NewAuthHandler(session, flow, store, resolver).Register(authRoutes)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Starting session coordinator on %s", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

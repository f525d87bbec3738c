package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-tracker/internal/config"
	"github.com/adanyl0v/go-task-tracker/internal/delivery/http/v1"
	"github.com/adanyl0v/go-task-tracker/internal/services"
)

const version = "1.0.0"

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router, err := newRouter(httpCfg)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Strs("trusted_proxies", httpCfg.TrustedProxies).
			Msg("failed to set trusted proxies")
		panic(err)
	}
	registerRoutes(router)
	if httpCfg.StaticDir != "" {
		serveClient(router, httpCfg.StaticDir)
	}

	server := &http.Server{
		Addr:         net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler:      router,
		ReadTimeout:  httpCfg.ReadTimeout,
		WriteTimeout: httpCfg.WriteTimeout,
		IdleTimeout:  httpCfg.IdleTimeout,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err = server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

// newRouter builds the engine. Client addresses come from forwarding
// headers only when the peer is one of the trusted proxies, and handlers
// see the request context through *gin.Context.
func newRouter(httpCfg config.HTTPConfig) (*gin.Engine, error) {
	router := gin.New()
	router.ContextWithFallback = true
	router.Use(gin.Recovery())

	err := router.SetTrustedProxies(httpCfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	return router, nil
}

func registerRoutes(router gin.IRouter) {
	cfg := config.Global()
	jwtCfg := cfg.JWT

	authService := services.NewAuthService(
		componentLogger("auth_service"),
		globalStorage,
		jwtCfg.Issuer,
		jwtCfg.Audience,
		[]byte(jwtCfg.SigningKey),
		jwtCfg.AccessTokenTTL,
	)
	taskService := services.NewTaskService(
		componentLogger("task_service"),
		globalStorage,
		newBroadcaster(),
	)
	v1Handler := v1.New(
		componentLogger("http"),
		authService,
		taskService,
		globalStorage,
		cfg.Env,
		version,
	)

	var middlewares []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		middlewares = append(middlewares, v1.NewRateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	}
	v1.RegisterRoutes(router, v1Handler, middlewares...)
}

// serveClient serves the built browser client. Unknown paths outside /api
// fall back to index.html so client side routes survive a reload.
func serveClient(router *gin.Engine, dir string) {
	index := filepath.Join(dir, "index.html")
	fileServer := http.FileServer(http.Dir(dir))

	router.NoRoute(func(c *gin.Context) {
		p := c.Request.URL.Path
		if strings.HasPrefix(p, "/api/") || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": http.StatusText(http.StatusNotFound)})
			return
		}

		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(path.Clean("/"+p))))
		if err == nil && !info.IsDir() {
			fileServer.ServeHTTP(c.Writer, c.Request)
			return
		}
		c.File(index)
	})
	globalLogger.Info().
		Str("dir", dir).
		Msg("serving browser client")
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ardiutama/Piutang/internal/backend"
	"github.com/ardiutama/Piutang/internal/config"
	apphttp "github.com/ardiutama/Piutang/internal/http"
	applog "github.com/ardiutama/Piutang/internal/log"
	"github.com/ardiutama/Piutang/internal/realtime"
	"github.com/ardiutama/Piutang/internal/session"
	"github.com/ardiutama/Piutang/internal/store"
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(slogger)
	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentApp})

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", applog.FieldError, err.Error())
		os.Exit(1)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory := backend.NewFactory(slogger)
	res, err := factory.CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to create backend", applog.FieldError, err.Error(), applog.FieldBackend, cfg.Backend)
		os.Exit(1)
	}
	defer func() {
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", applog.FieldError, err.Error())
			}
		}
	}()

	// The remote variant keeps one store per session owner, each
	// hydrated on the owner's first authenticated request. The local
	// variant has no sessions and serves a single store loaded here.
	var (
		provider store.Provider
		owned    *store.OwnerProvider
	)
	if res.Sessions != nil {
		owned = store.NewOwnerProvider(res.Backend)
		provider = owned
	} else {
		st := store.New(res.Backend)
		if err := st.Load(ctx); err != nil {
			logger.Error("Failed to load records", applog.FieldError, err.Error())
			os.Exit(1)
		}
		provider = store.NewSingleProvider(st)
	}

	srv := apphttp.NewServer(":"+cfg.Port, provider, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// The remote variant authenticates every data request; probes and
	// static assets stay open.
	if res.Sessions != nil {
		srv.Server.Handler = withSessionAuth(res.Sessions, srv.Server.Handler)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting server",
			"port", cfg.Port,
			applog.FieldBackend, cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if res.Feed != nil {
		g.Go(func() error {
			logger.Info("Starting change feed consumer", applog.FieldExchange, cfg.AMQPExchange)
			return res.Feed.Consume(gctx, func(event realtime.ChangeEvent) error {
				change, err := event.ToChange()
				if err != nil {
					logger.Warn("Discarding malformed change event", applog.FieldError, err.Error())
					return err
				}
				if owned != nil {
					// Route the event to the owner's store. Owners with
					// no hydrated store here pick up the change from the
					// backend on their next request.
					st, ok := owned.Lookup(event.Owner)
					if !ok {
						return nil
					}
					return st.ApplyExternalChange(change)
				}
				st, err := provider.StoreFor(gctx)
				if err != nil {
					return err
				}
				return st.ApplyExternalChange(change)
			})
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// withSessionAuth requires a session token on every route except health
// probes and static assets.
func withSessionAuth(resolver session.Resolver, next http.Handler) http.Handler {
	authed := session.Middleware(resolver)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/healthz", r.URL.Path == "/readyz":
			next.ServeHTTP(w, r)
		case strings.HasPrefix(r.URL.Path, "/static/"):
			next.ServeHTTP(w, r)
		default:
			authed.ServeHTTP(w, r)
		}
	})
}

package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jjudge-oj/usersapi/config"
	"github.com/jjudge-oj/usersapi/internal/db"
	"github.com/jjudge-oj/usersapi/internal/events"
	"github.com/jjudge-oj/usersapi/internal/handlers"
	"github.com/jjudge-oj/usersapi/internal/logging"
	"github.com/jjudge-oj/usersapi/internal/mq"
	"github.com/jjudge-oj/usersapi/internal/password"
	"github.com/jjudge-oj/usersapi/internal/services"
	"github.com/jjudge-oj/usersapi/internal/storage"
	"github.com/jjudge-oj/usersapi/internal/store"
	"github.com/redis/go-redis/v9"
)

// Server wraps the HTTP server, router and the connections it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        logging.Logger
	deps       *Deps
}

// Deps holds the backends built from configuration. Optional backends are nil
// when disabled.
type Deps struct {
	DB      *sql.DB
	Redis   *redis.Client
	MQ      *mq.MQ
	Storage *storage.Storage
	Users   *services.UserService
}

// BuildDeps connects every configured backend and assembles the user service.
func BuildDeps(ctx context.Context, cfg config.Config, log logging.Logger) (*Deps, error) {
	deps := &Deps{}
	fail := func(err error) (*Deps, error) {
		_ = deps.Close()
		return nil, err
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	deps.DB = dbConn

	var repo store.Users
	if dbConn != nil {
		repo = store.NewUserRepository(dbConn)
	} else {
		log.Warn(ctx, "using in-memory user store")
		repo = store.NewMemoryUserRepository()
	}

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fail(fmt.Errorf("parse redis url: %w", err))
		}
		deps.Redis = redis.NewClient(opts)
		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			return fail(fmt.Errorf("ping redis: %w", err))
		}
		repo = store.NewCachedUserRepository(repo, deps.Redis, cfg.Redis.TTL, log)
	}

	var opts []services.Option

	queue, err := mq.Open(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	if queue != nil {
		deps.MQ = queue
		opts = append(opts, services.WithEvents(events.NewEmitter(queue, cfg.MQ.EventsChannel)))
	}

	objects, err := storage.Open(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	if objects != nil {
		deps.Storage = objects
		opts = append(opts, services.WithExportStorage(objects))
	}

	hasher := password.NewHasher(cfg.Password.BcryptCost, cfg.Password.MinLength)
	deps.Users = services.NewUserService(repo, hasher, log, opts...)
	return deps, nil
}

// Close releases every backend connection.
func (d *Deps) Close() error {
	var errs []error
	if d.MQ != nil {
		errs = append(errs, d.MQ.Close())
	}
	if d.Storage != nil {
		errs = append(errs, d.Storage.Close())
	}
	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}
	if d.DB != nil {
		errs = append(errs, d.DB.Close())
	}
	return errors.Join(errs...)
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	deps, err := BuildDeps(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var pinger handlers.Pinger
	if deps.DB != nil {
		pinger = deps.DB
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.NewHealthHandler(pinger).Healthz)
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, deps.Users, log)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		log:        log,
		deps:       deps,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.log.Info(context.Background(), "listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes backend connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	return errors.Join(err, s.deps.Close())
}

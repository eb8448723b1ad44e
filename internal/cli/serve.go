package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flowgrid/flowgrid/pkg/buildinfo"
	"github.com/flowgrid/flowgrid/pkg/cache"
	"github.com/flowgrid/flowgrid/pkg/errors"
	"github.com/flowgrid/flowgrid/pkg/flow"
	"github.com/flowgrid/flowgrid/pkg/render"
	"github.com/flowgrid/flowgrid/pkg/snapshot"
	"github.com/flowgrid/flowgrid/pkg/wire"
)

const serverShutdownTimeout = 10 * time.Second

// newServeCmd creates the serve command running the diagram HTTP API.
func newServeCmd(configPath *string) *cobra.Command {
	var addr, storeKind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the diagram HTTP API",
		Long: `Run an HTTP server exposing stored diagrams.

Endpoints:
  GET    /healthz
  GET    /api/snapshots
  POST   /api/snapshots
  GET    /api/snapshots/{id}
  PUT    /api/snapshots/{id}
  DELETE /api/snapshots/{id}
  GET    /api/snapshots/{id}/render?format=svg|png|dot&module=Home

The snapshot backend is selected with --store (or [server].store in the
config file): memory, file, redis or mongo.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if storeKind != "" {
				cfg.Server.Store = storeKind
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&storeKind, "store", "", "snapshot backend: memory, file, redis, mongo")

	return cmd
}

func runServe(ctx context.Context, cfg Config) error {
	logger := loggerFromContext(ctx)

	store, cleanup, err := newSnapshotStore(ctx, cfg.Server)
	if err != nil {
		return err
	}
	defer cleanup()

	artifacts, ttl, err := newArtifactCache(cfg.Cache)
	if err != nil {
		return err
	}
	defer artifacts.Close()

	srv := &server{
		store:     store,
		artifacts: artifacts,
		cacheTTL:  ttl,
		logger:    logger,
	}

	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", cfg.Server.Addr, "store", cfg.Server.Store)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

// newSnapshotStore builds the configured snapshot backend. The returned
// cleanup closes any owned client connections.
func newSnapshotStore(ctx context.Context, cfg ServerConfig) (snapshot.Store, func(), error) {
	noop := func() {}
	switch cfg.Store {
	case "", "memory":
		return snapshot.NewMemoryStore(), noop, nil

	case "file":
		store, err := snapshot.NewFileStore(cfg.StoreDir)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store := snapshot.NewRedisStore(client)
		if err := store.Ping(ctx); err != nil {
			client.Close()
			return nil, noop, err
		}
		return store, func() { client.Close() }, nil

	case "mongo":
		client, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, noop, errors.Wrap(errors.ErrCodeStorage, err, "connect mongo")
		}
		coll := client.Database(cfg.MongoDatabase).Collection("snapshots")
		cleanup := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}
		return snapshot.NewMongoStore(coll), cleanup, nil

	default:
		return nil, noop, errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", cfg.Store)
	}
}

func newArtifactCache(cfg CacheConfig) (cache.Cache, time.Duration, error) {
	if !cfg.Enabled {
		return cache.NewNullCache(), 0, nil
	}
	ttl, err := cfg.cacheTTL()
	if err != nil {
		return nil, 0, err
	}
	return cache.NewMemoryCache(), ttl, nil
}

// =============================================================================
// HTTP server
// =============================================================================

type server struct {
	store     snapshot.Store
	artifacts cache.Cache
	cacheTTL  time.Duration
	logger    *log.Logger
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/snapshots", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Put("/", s.handleUpdate)
			r.Delete("/", s.handleDelete)
			r.Get("/render", s.handleRender)
		})
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if infos == nil {
		infos = []snapshot.Info{}
	}
	writeJSON(w, http.StatusOK, infos)
}

// createRequest is the body of POST and PUT snapshot calls.
type createRequest struct {
	Name     string         `json:"name"`
	Snapshot *wire.Snapshot `json:"snapshot"`
}

func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}
	if req.Snapshot == nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "missing snapshot"))
		return
	}
	// Reject snapshots that would not survive a round trip.
	if _, err := wire.ToStore(req.Snapshot, false); err != nil {
		s.writeError(w, err)
		return
	}

	rec := snapshot.NewRecord(req.Name, req.Snapshot)
	if err := s.store.Set(r.Context(), rec); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Debug("Stored snapshot", "id", rec.ID, "name", rec.Name)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}
	if req.Name != "" {
		rec.Name = req.Name
	}
	if req.Snapshot != nil {
		if _, err := wire.ToStore(req.Snapshot, false); err != nil {
			s.writeError(w, err)
			return
		}
		rec.Snapshot = *req.Snapshot
	}

	if err := s.store.Set(r.Context(), rec); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "svg"
	}
	module := r.URL.Query().Get("module")
	if module == "" {
		module = flow.DefaultModule
	}
	detailed := r.URL.Query().Get("detailed") == "true"

	dot := render.ToDOT(&rec.Snapshot, module, render.Options{Detailed: detailed})

	key := cache.ArtifactKey(format, dot)
	if data, ok, _ := s.artifacts.Get(r.Context(), key); ok {
		writeArtifact(w, format, data)
		return
	}

	var data []byte
	switch format {
	case "dot":
		data = []byte(dot)
	case "svg":
		data, err = render.RenderSVG(r.Context(), dot)
	case "png":
		data, err = render.RenderPNG(r.Context(), dot)
	default:
		s.writeError(w, errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", format))
		return
	}
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format))
		return
	}

	_ = s.artifacts.Set(r.Context(), key, data, s.cacheTTL)
	writeArtifact(w, format, data)
}

// =============================================================================
// Response helpers
// =============================================================================

var formatContentTypes = map[string]string{
	"svg": "image/svg+xml",
	"png": "image/png",
	"dot": "text/vnd.graphviz",
}

func writeArtifact(w http.ResponseWriter, format string, data []byte) {
	w.Header().Set("Content-Type", formatContentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusForCode(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "code", code, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: errorBody{
		Code:    string(code),
		Message: errors.UserMessage(err),
	}})
}

func statusForCode(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodeSnapshotNotFound, errors.ErrCodeTemplateNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidSnapshot, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidConfig, errors.ErrCodeCorrupted:
		return http.StatusBadRequest
	case errors.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

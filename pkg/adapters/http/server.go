package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/speriment"
	"github.com/aretw0/speriment/pkg/adapters/document"
	"github.com/aretw0/speriment/pkg/domain"
	"github.com/aretw0/speriment/pkg/ports"
	"github.com/aretw0/speriment/pkg/schema"
	"github.com/go-chi/chi/v5"
)

// MaxDocumentSize bounds request bodies.
const MaxDocumentSize = 4 << 20

// Server exposes the compiler over HTTP.
type Server struct {
	Compiler *speriment.Compiler
	// Store receives named artifacts from /compile and serves /artifacts. Optional.
	Store ports.ArtifactStore
	// Seed is the first identifier of every compilation unless the request overrides it.
	Seed    int
	Metrics http.Handler
	Logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStore enables persistence of compiled artifacts.
func WithStore(store ports.ArtifactStore) Option {
	return func(s *Server) {
		s.Store = store
	}
}

// WithSeed sets the default identifier seed.
func WithSeed(seed int) Option {
	return func(s *Server) {
		s.Seed = seed
	}
}

// WithMetrics mounts h (typically promhttp.Handler()) on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates a new HTTP handler for the compiler.
func NewHandler(c *speriment.Compiler, opts ...Option) http.Handler {
	s := &Server{Compiler: c, Logger: slog.New(slog.NewJSONHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/schema", s.GetSchema)
	r.Post("/compile", s.Compile)
	r.Post("/validate", s.Validate)
	r.Route("/artifacts", func(r chi.Router) {
		r.Get("/", s.ListArtifacts)
		r.Get("/{name}", s.GetArtifact)
		r.Delete("/{name}", s.DeleteArtifact)
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Problem is the JSON body of every error response.
type Problem struct {
	Error string `json:"error"`
	// Kind and Field locate structural and container errors in the document.
	Kind  string `json:"kind,omitempty"`
	ID    string `json:"id,omitempty"`
	Field string `json:"field,omitempty"`
}

// ValidationResult is the body of a /validate response.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Problem *Problem `json:"problem,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// problemOf maps an error to a status code and a Problem.
func problemOf(err error) (int, *Problem) {
	p := &Problem{Error: err.Error()}

	var se *domain.StructuralError
	var cte *domain.ContainerTypeError
	var sv *domain.SchemaViolationError
	switch {
	case errors.As(err, &se):
		p.Kind, p.ID, p.Field = string(se.Kind), se.ID, se.Field
		return http.StatusUnprocessableEntity, p
	case errors.As(err, &cte):
		p.Kind, p.Field = string(cte.Kind), cte.Field
		return http.StatusUnprocessableEntity, p
	case errors.As(err, &sv):
		return http.StatusUnprocessableEntity, p
	case errors.Is(err, domain.ErrArtifactNotFound):
		return http.StatusNotFound, p
	case errors.Is(err, domain.ErrInvalidVariableName),
		errors.Is(err, document.ErrEmptyDocument),
		errors.Is(err, document.ErrTablesDisabled),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, p
	}
	return http.StatusInternalServerError, p
}

var errBadRequest = errors.New("bad request")

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, p := problemOf(err)
	if status >= 500 {
		s.Logger.Error("Request failed", "path", r.URL.Path, "error", err)
	} else {
		s.Logger.Debug("Request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, p)
}

// readDocument parses the request body as an authoring document.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (*document.Document, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %v", errBadRequest, err)
	}
	doc, err := document.Parse(data, document.WithoutTables())
	if err != nil {
		var cte *domain.ContainerTypeError
		if errors.As(err, &cte) || errors.Is(err, document.ErrEmptyDocument) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return doc, nil
}

func (s *Server) seed(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("seed")
	if raw == "" {
		return s.Seed, nil
	}
	seed, err := strconv.Atoi(raw)
	if err != nil || seed < 0 {
		return 0, fmt.Errorf("%w: seed must be a non-negative integer, got %q", errBadRequest, raw)
	}
	return seed, nil
}

// Compile handles POST /compile. The body is an authoring document; the
// response is the artifact JSON, or the host script with ?format=script.
// When a store is configured and a name is given (?name= or the document's
// name), the artifact is saved under it.
func (s *Server) Compile(w http.ResponseWriter, r *http.Request) {
	doc, err := s.readDocument(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	seed, err := s.seed(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = doc.Name
	}
	if name != "" && !domain.ValidVariableName(name) {
		s.fail(w, r, fmt.Errorf("%w: %q", domain.ErrInvalidVariableName, name))
		return
	}

	art, err := s.Compiler.Build(seed, doc.Build)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if s.Store != nil && name != "" {
		if err := s.Store.Save(r.Context(), name, art.JSON); err != nil {
			s.fail(w, r, fmt.Errorf("failed to store artifact: %w", err))
			return
		}
		w.Header().Set("Location", "/artifacts/"+name)
	}
	w.Header().Set("X-Speriment-Pages", strconv.Itoa(art.Pages))
	s.writeArtifact(w, r, name, art.JSON)
}

func (s *Server) writeArtifact(w http.ResponseWriter, r *http.Request, name string, artifact []byte) {
	if r.URL.Query().Get("format") == "script" {
		if name == "" {
			name = "experiment"
		}
		script, err := domain.Script(name, artifact)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = w.Write(script)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(artifact)
}

// Validate handles POST /validate. Structural problems are reported in the body
// with status 200; only malformed requests fail.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	doc, err := s.readDocument(w, r)
	if err == nil {
		_, err = s.Compiler.Build(s.Seed, doc.Build)
	}
	if err != nil {
		status, p := problemOf(err)
		if status != http.StatusUnprocessableEntity {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ValidationResult{Valid: false, Problem: p})
		return
	}
	writeJSON(w, http.StatusOK, ValidationResult{Valid: true})
}

// ListArtifacts handles GET /artifacts.
func (s *Server) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeJSON(w, http.StatusOK, []string{})
		return
	}
	names, err := s.Store.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// GetArtifact handles GET /artifacts/{name}.
func (s *Server) GetArtifact(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if s.Store == nil {
		s.fail(w, r, domain.ErrArtifactNotFound)
		return
	}
	name = strings.TrimSuffix(name, ".js")
	artifact, err := s.Store.Load(r.Context(), name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeArtifact(w, r, name, artifact)
}

// DeleteArtifact handles DELETE /artifacts/{name}.
func (s *Server) DeleteArtifact(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		s.fail(w, r, domain.ErrArtifactNotFound)
		return
	}
	if err := s.Store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSchema handles GET /schema with the artifact schema document.
func (s *Server) GetSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(schema.Document())
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "speriment-http",
		"version": strings.TrimSpace(speriment.Version),
	})
}

package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/pkg/builder"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed openapi.yaml
var rawSpec []byte

var (
	swaggerOnce sync.Once
	swagger     *openapi3.T
	swaggerErr  error
)

// GetSwagger returns the parsed and validated OpenAPI document served at /openapi.yaml.
func GetSwagger() (*openapi3.T, error) {
	swaggerOnce.Do(func() {
		loader := openapi3.NewLoader()
		swagger, swaggerErr = loader.LoadFromData(rawSpec)
		if swaggerErr == nil {
			swaggerErr = swagger.Validate(context.Background())
		}
	})
	return swagger, swaggerErr
}

// Studio is the builder surface the HTTP adapter drives.
type Studio interface {
	NewSession(ctx context.Context) (*builder.Session, error)
	Open(ctx context.Context, scenarioID string) (*builder.Session, error)
	Session(ctx context.Context, id string) (*builder.Session, error)
	Do(ctx context.Context, id string, fn func(context.Context, *builder.Session) error) error
	Save(ctx context.Context, id string) (*builder.SaveResult, error)
	Abandon(ctx context.Context, id string) error
	Sessions(ctx context.Context) ([]string, error)
	Catalog() *builder.Catalog
}

// Server serves a Studio over HTTP.
type Server struct {
	Studio  Studio
	Streams *StreamManager
	Version string
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = v
	}
}

// NewHandler creates a new HTTP handler for the studio.
func NewHandler(studio Studio, opts ...Option) http.Handler {
	s := &Server{
		Studio:  studio,
		Streams: NewStreamManager(),
		Version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s.Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/catalog", s.GetCatalog)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{sessionId}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.AbandonSession)
			r.Put("/metadata", s.SubmitMetadata)
			r.Post("/questions", s.AddQuestion)
			r.Put("/questions/{nodeId}", s.EditQuestion)
			r.Post("/sections", s.AddSection)
			r.Put("/sections/{nodeId}", s.EditSection)
			r.Patch("/nodes/{nodeId}", s.PatchNode)
			r.Delete("/nodes/{nodeId}", s.DeleteNode)
			r.Put("/nodes/{nodeId}/position", s.MoveNode)
			r.Post("/edges", s.Connect)
			r.Delete("/edges/{edgeId}", s.RemoveEdge)
			r.Get("/export", s.Export)
			r.Post("/import", s.Import)
			r.Post("/save", s.Save)
			r.Get("/graph", s.GetGraph)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Quire API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := GetSwagger(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "quire-http",
		"version":     s.Version,
		"api_version": apiVersion,
	})
}

// GetCatalog handles the GET /catalog request.
func (s *Server) GetCatalog(w http.ResponseWriter, r *http.Request) {
	c := s.Studio.Catalog()
	facilities, err := c.Facilities(r.Context())
	if err != nil {
		s.writeError(w, r, &upstreamError{err})
		return
	}
	services, err := c.Services(r.Context())
	if err != nil {
		s.writeError(w, r, &upstreamError{err})
		return
	}
	s.writeJSON(w, http.StatusOK, catalogView{Facilities: facilities, Services: services})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

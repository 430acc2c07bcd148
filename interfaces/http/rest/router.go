package rest

import (
	"net/http"

	"omnichannel/application/ports"
	"omnichannel/interfaces/http/rest/handlers"
	"omnichannel/interfaces/http/rest/middleware"
	ws "omnichannel/interfaces/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	repo       ports.ClientRepository
	issuer     ports.UploadLinkIssuer
	logStream  *ws.Server
	enableCORS bool
	logger     *zap.Logger
}

// NewRouter creates a new router instance. logStream may be nil when the
// process has no live log endpoint (the Lambda deployment, for instance).
func NewRouter(
	repo ports.ClientRepository,
	issuer ports.UploadLinkIssuer,
	logStream *ws.Server,
	enableCORS bool,
	logger *zap.Logger,
) *Router {
	return &Router{
		repo:       repo,
		issuer:     issuer,
		logStream:  logStream,
		enableCORS: enableCORS,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			clientHandler := handlers.NewClientHandler(rt.repo, rt.logger)
			r.Get("/", clientHandler.ListClients)
			r.Post("/", clientHandler.CreateClient)
			r.Get("/{clientID}", clientHandler.GetClient)
			r.Put("/{clientID}", clientHandler.UpdateClient)
			r.Delete("/{clientID}", clientHandler.DeleteClient)
		})

		r.Get("/uploads/token", handlers.NewUploadHandler(rt.issuer, rt.logger).IssueUploadLink)
	})

	if rt.logStream != nil {
		router.Get("/ws/logs", rt.logStream.HandleWebSocket)
	}

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports whether the service can take traffic. The failover
// design means a degraded primary is still ready, so this only proves the
// process is serving.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

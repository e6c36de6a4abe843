package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"routine-advisor/internal/handlers"
	"routine-advisor/internal/service"
	"routine-advisor/internal/storage"
)

// RoutinePath is the single pipeline endpoint.
const RoutinePath = "/api/routine"

// Deps holds dependencies for the HTTP router.
type Deps struct {
	RoutineService service.RoutineService
	Renderer       handlers.Renderer    // Optional, enables ?format=html
	Products       storage.ProductStore // Optional, enables /api/products
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// CORS first so every response carries the header
	r.Use(CORS)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.Handle(RoutinePath, handlers.NewRoutineHandler(deps.RoutineService, deps.Renderer, RoutinePath))

	if deps.Products != nil {
		productsHandler := handlers.NewProductsHandler(deps.Products)
		r.Route("/api/products", func(r chi.Router) {
			r.Get("/", productsHandler.List)
			r.Get("/{id}", productsHandler.Get)
		})
	}

	return r
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"routine-advisor/internal/contextutil"
	"routine-advisor/internal/storage"
)

// ProductsHandler serves the read-only product catalog.
type ProductsHandler struct {
	store storage.ProductStore
}

// NewProductsHandler creates a new ProductsHandler.
func NewProductsHandler(store storage.ProductStore) *ProductsHandler {
	return &ProductsHandler{store: store}
}

// ProductListResponse wraps a catalog listing in the products.json shape.
type ProductListResponse struct {
	Products []storage.Product `json:"products"`
}

// List handles GET /api/products?category=&q=.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	filter := storage.ProductFilter{
		Category: r.URL.Query().Get("category"),
		Query:    r.URL.Query().Get("q"),
	}

	products, err := h.store.List(ctx, filter)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list products", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error: failed to list products")
		return
	}

	writeJSON(ctx, w, http.StatusOK, ProductListResponse{Products: products})
}

// Get handles GET /api/products/{id}.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request: invalid product id")
		return
	}

	product, err := h.store.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to get product", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Server error: failed to get product")
		return
	}

	writeJSON(ctx, w, http.StatusOK, product)
}

package catalog

import (
	"errors"
	"log"
	"net/http"

	"bookshelf/internal/httpx"
	"bookshelf/internal/platform/openlibrary"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// Search handles GET /v1/search
// @Summary Search the catalog
// @Tags catalog
// @Produce json
// @Param q query string false "Free-text query"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /v1/search [get]
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	books, err := h.svc.Search(r.Context(), q)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, books, map[string]any{
		"query": q,
		"count": len(books),
	})
}

// GetBook handles GET /v1/books/{id}
// @Summary Get a book with resolved authors
// @Tags catalog
// @Produce json
// @Param id path string true "Work id, e.g. OL45883W"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /v1/books/{id} [get]
func (h *HTTPHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Book id is required", nil)
		return
	}

	book, err := h.svc.Book(r.Context(), id)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, book, nil)
}

// GetAuthor handles GET /v1/authors/{id}
// @Summary Get an author and their works
// @Tags catalog
// @Produce json
// @Param id path string true "Author id, e.g. OL79034A"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /v1/authors/{id} [get]
func (h *HTTPHandler) GetAuthor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Author id is required", nil)
		return
	}

	author, err := h.svc.Author(r.Context(), id)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, author, nil)
}

func writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, openlibrary.ErrInvalidID):
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid catalog id", nil)
	case errors.Is(err, openlibrary.ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Not found in catalog", nil)
	case errors.Is(err, openlibrary.ErrCatalogUnavailable):
		log.Printf("catalog unavailable request_id=%s error=%v", httpx.RequestIDFrom(r), err)
		httpx.JSONError(w, r, http.StatusBadGateway, "CATALOG_UNAVAILABLE", "The book catalog is unavailable, please retry", nil)
	default:
		log.Printf("catalog request failed request_id=%s error=%v", httpx.RequestIDFrom(r), err)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}

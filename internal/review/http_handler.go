package review

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"bookshelf/internal/httpx"
	"bookshelf/internal/platform/openlibrary"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type submitRequest struct {
	Rating int     `json:"rating"`
	Text   *string `json:"text"`
}

// bookID accepts both "OL45883W" and "/works/OL45883W" so reviews attach to
// the same id the catalog pages use.
func bookID(r *http.Request) string {
	return openlibrary.WorkID(r.PathValue("id"))
}

// List handles GET /v1/books/{id}/reviews
// @Summary List reviews of a book, newest first
// @Description Signed-in callers also get meta.viewer_reviewed
// @Tags reviews
// @Produce json
// @Param id path string true "Work id"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 503 {object} httpx.ErrorResponse
// @Router /v1/books/{id}/reviews [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	id := bookID(r)
	reviews, err := h.service.ListReviews(r.Context(), id)
	if err != nil {
		writeReviewError(w, r, err)
		return
	}

	meta := map[string]any{"count": len(reviews)}
	if userID := httpx.UserIDFrom(r); userID != "" {
		rv, err := h.service.UserReview(r.Context(), id, userID)
		if err != nil {
			log.Printf("viewer review lookup failed request_id=%s book_id=%s error=%v", httpx.RequestIDFrom(r), id, err)
		} else {
			meta["viewer_reviewed"] = rv != nil
		}
	}
	httpx.JSONSuccess(w, r, reviews, meta)
}

// Rating handles GET /v1/books/{id}/rating
// @Summary Average rating of a book
// @Tags reviews
// @Produce json
// @Param id path string true "Work id"
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/books/{id}/rating [get]
func (h *HTTPHandler) Rating(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.AverageRating(r.Context(), bookID(r))
	if err != nil {
		writeReviewError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, summary, nil)
}

// Mine handles GET /v1/books/{id}/reviews/me
// @Summary The signed-in user's review of a book
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Work id"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /v1/books/{id}/reviews/me [get]
func (h *HTTPHandler) Mine(w http.ResponseWriter, r *http.Request) {
	rv, err := h.service.UserReview(r.Context(), bookID(r), httpx.UserIDFrom(r))
	if err != nil {
		writeReviewError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, rv, map[string]any{"reviewed": rv != nil})
}

// Submit handles POST /v1/books/{id}/reviews
// @Summary Submit a review
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Work id"
// @Param review body submitRequest true "Rating 1-5 and optional text"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Failure 503 {object} httpx.ErrorResponse
// @Router /v1/books/{id}/reviews [post]
func (h *HTTPHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		writeReviewError(w, r, ErrNotAuthenticated)
		return
	}

	var body submitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body", nil)
		return
	}

	rv, err := h.service.Submit(r.Context(), SubmitInput{
		BookID: bookID(r),
		UserID: userID,
		Rating: body.Rating,
		Text:   body.Text,
	})
	if err != nil {
		writeReviewError(w, r, err)
		return
	}

	httpx.JSONSuccessCreated(w, r, rv)
}

func writeReviewError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid review", httpx.DetailsFromValidation(verr.Fields))
	case errors.Is(err, ErrNotAuthenticated):
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in to review books", nil)
	case errors.Is(err, ErrAlreadyReviewed):
		httpx.JSONError(w, r, http.StatusConflict, "ALREADY_REVIEWED", "You have already reviewed this book", nil)
	case errors.Is(err, ErrStoreUnavailable):
		log.Printf("review store unavailable request_id=%s error=%v", httpx.RequestIDFrom(r), err)
		httpx.JSONError(w, r, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Reviews are temporarily unavailable", nil)
	default:
		log.Printf("review request failed request_id=%s error=%v", httpx.RequestIDFrom(r), err)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}

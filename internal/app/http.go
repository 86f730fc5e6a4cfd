package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"inkwell/api/internal/auth"
	"inkwell/api/internal/metrics"
	"inkwell/api/internal/sitemap"
	"inkwell/api/internal/store"
)

// ContentStore is the subset of store.Store the router dispatches to.
type ContentStore interface {
	GetPost(ctx context.Context, slug string) (store.PostContent, error)
	ListPublished(ctx context.Context) ([]store.PostContent, error)
	ListCategories(ctx context.Context) ([]string, error)
	CreatePost(ctx context.Context, input store.NewPost) (sitemap.Post, error)
	UpdatePost(ctx context.Context, slug string, update store.PostUpdate) error
	DeletePost(ctx context.Context, slug string) error
	AddCategory(ctx context.Context, name string) (bool, error)
	UpdateCategory(ctx context.Context, old, name string) (bool, error)
	DeleteCategory(ctx context.Context, name string) (bool, error)
}

type HTTPServer struct {
	store      ContentStore
	gate       *auth.Gate
	corsOrigin string
	validate   *validator.Validate
	log        zerolog.Logger
}

func NewHTTPServer(contentStore ContentStore, gate *auth.Gate, corsOrigin string, logger zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		store:      contentStore,
		gate:       gate,
		corsOrigin: corsOrigin,
		validate:   validator.New(),
		log:        logger,
	}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

type createPostBody struct {
	Slug     *string `json:"slug" validate:"required"`
	Title    *string `json:"title" validate:"required"`
	Category *string `json:"category" validate:"required"`
	Content  *string `json:"content" validate:"required"`
}

type updatePostBody struct {
	Content  *string `json:"content"`
	Title    *string `json:"title"`
	Category *string `json:"category"`
}

type createCategoryBody struct {
	Category *string `json:"category" validate:"required"`
}

type updateCategoryBody struct {
	NewCategory *string `json:"newCategory" validate:"required"`
}

// publishedPost is the flattened list item returned by GET /posts.
type publishedPost struct {
	sitemap.Post
	Content string `json:"content"`
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if !s.gate.Authorize(auth.Credential(r.Header.Get("Authorization"))) {
		s.fail(w, r, errUnauthorized)
		return
	}

	parts := splitPath(r.URL.Path)
	switch {
	case len(parts) == 1 && parts[0] == "posts":
		s.handlePosts(w, r)
	case len(parts) == 2 && parts[0] == "posts":
		s.handlePost(w, r, parts[1])
	case len(parts) == 1 && parts[0] == "categories":
		s.handleCategories(w, r)
	case len(parts) == 2 && parts[0] == "categories":
		s.handleCategory(w, r, parts[1])
	default:
		s.fail(w, r, errEndpointNotFound)
	}
}

func (s *HTTPServer) handlePosts(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		items, err := s.store.ListPublished(r.Context())
		if err != nil {
			s.fail(w, r, mapError(err, "Post"), err)
			return
		}
		payload := make([]publishedPost, 0, len(items))
		for _, item := range items {
			payload = append(payload, publishedPost{Post: item.Post, Content: item.Content})
		}
		writeJSON(w, http.StatusOK, payload)
		return
	}

	if r.Method == http.MethodPost {
		var body createPostBody
		if !s.decodeValid(w, r, &body) {
			return
		}
		_, err := s.store.CreatePost(r.Context(), store.NewPost{
			Slug:     *body.Slug,
			Title:    *body.Title,
			Category: *body.Category,
			Content:  *body.Content,
		})
		if err != nil {
			s.fail(w, r, mapError(err, "Post"), err)
			return
		}
		writeMessage(w, http.StatusCreated, "Post created successfully")
		return
	}

	s.fail(w, r, errMethodNotAllowed)
}

func (s *HTTPServer) handlePost(w http.ResponseWriter, r *http.Request, slug string) {
	if r.Method == http.MethodGet {
		payload, err := s.store.GetPost(r.Context(), slug)
		if err != nil {
			s.fail(w, r, mapError(err, "Post"), err)
			return
		}
		writeJSON(w, http.StatusOK, payload)
		return
	}

	if r.Method == http.MethodPut {
		// Every field is optional, so an empty body is a no-op update.
		var body updatePostBody
		if err := decodeBody(r, &body); err != nil && !errors.Is(err, errEmptyBody) {
			s.fail(w, r, errInvalidInput, err)
			return
		}
		err := s.store.UpdatePost(r.Context(), slug, store.PostUpdate{
			Content:  body.Content,
			Title:    body.Title,
			Category: body.Category,
		})
		if err != nil {
			s.fail(w, r, mapError(err, "Post"), err)
			return
		}
		writeMessage(w, http.StatusOK, "Post updated successfully")
		return
	}

	if r.Method == http.MethodDelete {
		if err := s.store.DeletePost(r.Context(), slug); err != nil {
			s.fail(w, r, mapError(err, "Post"), err)
			return
		}
		writeMessage(w, http.StatusOK, "Post deleted successfully")
		return
	}

	s.fail(w, r, errMethodNotAllowed)
}

func (s *HTTPServer) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		categories, err := s.store.ListCategories(r.Context())
		if err != nil {
			s.fail(w, r, mapError(err, "Category"), err)
			return
		}
		writeJSON(w, http.StatusOK, categories)
		return
	}

	if r.Method == http.MethodPost {
		var body createCategoryBody
		if !s.decodeValid(w, r, &body) {
			return
		}
		added, err := s.store.AddCategory(r.Context(), *body.Category)
		if err != nil {
			s.fail(w, r, mapError(err, "Category"), err)
			return
		}
		if !added {
			s.fail(w, r, mapError(store.ErrConflict, "Category"))
			return
		}
		writeMessage(w, http.StatusCreated, "Category added successfully")
		return
	}

	s.fail(w, r, errMethodNotAllowed)
}

func (s *HTTPServer) handleCategory(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method == http.MethodPut {
		var body updateCategoryBody
		if !s.decodeValid(w, r, &body) {
			return
		}
		updated, err := s.store.UpdateCategory(r.Context(), name, *body.NewCategory)
		if err != nil {
			s.fail(w, r, mapError(err, "Category"), err)
			return
		}
		if !updated {
			s.fail(w, r, mapError(store.ErrNotFound, "Category"))
			return
		}
		writeMessage(w, http.StatusOK, "Category updated successfully")
		return
	}

	if r.Method == http.MethodDelete {
		deleted, err := s.store.DeleteCategory(r.Context(), name)
		if err != nil {
			s.fail(w, r, mapError(err, "Category"), err)
			return
		}
		if !deleted {
			s.fail(w, r, mapError(store.ErrNotFound, "Category"))
			return
		}
		writeMessage(w, http.StatusOK, "Category deleted successfully")
		return
	}

	s.fail(w, r, errMethodNotAllowed)
}

// decodeValid decodes the JSON body into target and checks its required
// fields, answering 400 itself when either step fails.
func (s *HTTPServer) decodeValid(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := decodeBody(r, target); err != nil {
		s.fail(w, r, errInvalidInput, err)
		return false
	}
	if err := s.validate.Struct(target); err != nil {
		s.fail(w, r, errInvalidInput, err)
		return false
	}
	return true
}

// fail writes the envelope for domainErr. Server errors are logged with the
// underlying cause, which never reaches the response body.
func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, domainErr *DomainError, causes ...error) {
	if domainErr.Status >= http.StatusInternalServerError {
		event := s.log.Error().Str("request_id", requestID(r.Context())).Str("code", domainErr.Code)
		if len(causes) > 0 {
			event = event.Err(causes[0])
		}
		event.Msg("request failed")
	} else if len(causes) > 0 {
		s.log.Debug().Str("request_id", requestID(r.Context())).Str("code", domainErr.Code).Err(causes[0]).Msg("request rejected")
	}
	writeError(w, domainErr.Status, domainErr.Message)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		elapsed := time.Since(started)
		metrics.APIRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(writer.status)).Inc()
		metrics.APIRequestDuration.WithLabelValues(r.Method).Observe(elapsed.Seconds())
		s.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", writer.status).
			Int64("duration_ms", elapsed.Milliseconds()).
			Msg("request")
	})
}

type requestIDKey struct{}

func requestID(ctx context.Context) string {
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

var errEmptyBody = errors.New("missing JSON body")

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

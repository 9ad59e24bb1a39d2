package shortener

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sundayezeilo/shortlinks/internal/auth"
	"github.com/sundayezeilo/shortlinks/internal/errx"
	"github.com/sundayezeilo/shortlinks/internal/httpx"
)

// LinkRequest is the JSON body of the shorten and update endpoints.
type LinkRequest struct {
	OriginalURL string           `json:"original_url"`
	ShortCode   string           `json:"short_code,omitempty"`
	ExpiresAt   *httpx.Timestamp `json:"expires_at,omitempty"`
}

// LinkResponse is the JSON representation of a link.
type LinkResponse struct {
	ShortCode   string     `json:"short_code"`
	OriginalURL string     `json:"original_url"`
	ShortURL    string     `json:"short_url"`
	ExpiresAt   *time.Time `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
	Hits        int64      `json:"hits"`
	LastUsed    *time.Time `json:"last_used"`
	UserID      *string    `json:"user_id"`
}

// RedirectResponse carries the resolved target of a short code.
type RedirectResponse struct {
	URL string `json:"url"`
}

// StatsResponse is the usage summary of a link.
type StatsResponse struct {
	Hits      int64      `json:"hits"`
	CreatedAt time.Time  `json:"created_at"`
	LastUsed  *time.Time `json:"last_used"`
}

// DeleteAllResponse reports how many links an admin purge removed.
type DeleteAllResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

// Handler provides HTTP handlers for links.
type Handler struct {
	service Service
	logger  *slog.Logger
	baseURL string
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service Service
	Logger  *slog.Logger
	BaseURL string // prefix of short_url in responses, e.g. "https://sho.rt"
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service: cfg.Service,
		logger:  logger,
		baseURL: cfg.BaseURL,
	}
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With(
		"request_id", httpx.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

func (h *Handler) toResponse(link Link) LinkResponse {
	resp := LinkResponse{
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		ShortURL:    h.baseURL + "/links/" + link.ShortCode + "/redirect",
		ExpiresAt:   link.ExpiresAt,
		CreatedAt:   link.CreatedAt,
		Hits:        link.Hits,
		LastUsed:    link.LastUsed,
	}
	if link.OwnerID != nil {
		id := link.OwnerID.String()
		resp.UserID = &id
	}
	return resp
}

func (h *Handler) toResponses(links []Link) []LinkResponse {
	out := make([]LinkResponse, 0, len(links))
	for _, l := range links {
		out = append(out, h.toResponse(l))
	}
	return out
}

// Shorten handles POST /links/shorten. Authentication is optional; an
// authenticated caller becomes the owner.
func (h *Handler) Shorten(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	req, err := httpx.DecodeJSON[LinkRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	create := CreateLinkRequest{
		OriginalURL: req.OriginalURL,
		ShortCode:   req.ShortCode,
		ExpiresAt:   req.ExpiresAt.TimePtr(),
	}
	if p, ok := auth.PrincipalFrom(ctx); ok {
		create.OwnerID = &p.ID
	}

	link, err := h.service.Create(ctx, create)
	if err != nil {
		h.handleError(ctx, logger, w, err, "create link")
		return
	}

	logger.InfoContext(ctx, "link created",
		"short_code", link.ShortCode,
		"alias", req.ShortCode != "",
		"owned", link.OwnerID != nil,
	)
	httpx.WriteJSON(w, http.StatusCreated, h.toResponse(link))
}

// Update handles PUT /links/{short_code}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)
	code := r.PathValue("short_code")

	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		h.handleError(ctx, logger, w, err, "update link")
		return
	}

	req, err := httpx.DecodeJSON[LinkRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	link, err := h.service.Update(ctx, p, code, UpdateLinkRequest{
		OriginalURL: req.OriginalURL,
		ShortCode:   req.ShortCode,
		ExpiresAt:   req.ExpiresAt.TimePtr(),
	})
	if err != nil {
		h.handleError(ctx, logger, w, err, "update link")
		return
	}

	logger.InfoContext(ctx, "link updated",
		"short_code", code,
		"new_short_code", link.ShortCode,
	)
	httpx.WriteJSON(w, http.StatusOK, h.toResponse(link))
}

// Redirect handles GET /links/{short_code}/redirect and answers with the
// target URL instead of an HTTP redirect.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)
	code := r.PathValue("short_code")

	if len(code) > MaxCodeLength {
		// cannot exist; skip the cache and store round trips
		httpx.WriteKind(w, errx.NotFound, "link not found")
		return
	}

	target, err := h.service.Resolve(ctx, code)
	if err != nil {
		h.handleError(ctx, logger, w, err, "resolve link")
		return
	}

	logger.DebugContext(ctx, "short code resolved",
		"short_code", code,
		"user_agent", r.UserAgent(),
		"referer", r.Referer(),
	)
	httpx.WriteJSON(w, http.StatusOK, RedirectResponse{URL: target})
}

// Search handles GET /links/search?original_url=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	raw := queryValue(r.URL.RawQuery, "original_url")
	if raw == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "original_url query parameter is required", nil)
		return
	}

	links, err := h.service.Search(ctx, raw)
	if err != nil {
		h.handleError(ctx, logger, w, err, "search links")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.toResponses(links))
}

// queryValue returns the first value of key. Unlike url.Values it keeps a
// value with a malformed escape instead of dropping it.
func queryValue(rawQuery, key string) string {
	for pair := range strings.SplitSeq(rawQuery, "&") {
		k, v, _ := strings.Cut(pair, "=")
		if unescapeLenient(strings.ReplaceAll(k, "+", " ")) == key {
			return unescapeLenient(strings.ReplaceAll(v, "+", " "))
		}
	}
	return ""
}

// Mine handles GET /links/mine.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		h.handleError(ctx, logger, w, err, "list links")
		return
	}

	links, err := h.service.ListMine(ctx, p)
	if err != nil {
		h.handleError(ctx, logger, w, err, "list links")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.toResponses(links))
}

// Delete handles DELETE /links/{short_code}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)
	code := r.PathValue("short_code")

	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		h.handleError(ctx, logger, w, err, "delete link")
		return
	}

	if err := h.service.Delete(ctx, p, code); err != nil {
		h.handleError(ctx, logger, w, err, "delete link")
		return
	}

	logger.InfoContext(ctx, "link deleted", "short_code", code)
	httpx.WriteMessage(w, http.StatusOK, "link deleted")
}

// DeleteAll handles DELETE /links/. Admin only.
func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		h.handleError(ctx, logger, w, err, "delete all links")
		return
	}

	n, err := h.service.DeleteAll(ctx, p)
	if err != nil {
		h.handleError(ctx, logger, w, err, "delete all links")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, DeleteAllResponse{Message: "all links deleted", Deleted: n})
}

// Stats handles GET /stats/{short_code}/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)
	code := r.PathValue("short_code")

	stats, err := h.service.Stats(ctx, code)
	if err != nil {
		h.handleError(ctx, logger, w, err, "get stats")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, StatsResponse{
		Hits:      stats.Hits,
		CreatedAt: stats.CreatedAt,
		LastUsed:  stats.LastUsed,
	})
}

// handleError maps a service error to a response. Client errors are logged
// at WARN, everything else at ERROR without leaking the cause to the client.
func (h *Handler) handleError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, err error, action string) {
	kind := errx.KindOf(err)

	logAttrs := []any{
		"action", action,
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.NotFound:
		logger.WarnContext(ctx, "link not found", logAttrs...)
		httpx.WriteKind(w, kind, "link not found")

	case errx.Gone:
		logger.InfoContext(ctx, "link expired", logAttrs...)
		httpx.WriteKind(w, kind, "link expired")

	case errx.Conflict:
		logger.WarnContext(ctx, "short code conflict", logAttrs...)
		httpx.WriteError(w, http.StatusConflict, "conflict",
			"this short code is already taken",
			map[string]string{
				"hint": "choose a different short_code or omit it to get a generated one",
			})

	case errx.Invalid:
		logger.WarnContext(ctx, "invalid link request", logAttrs...)
		httpx.WriteKind(w, kind, errx.Message(err))

	case errx.Unauthorized:
		logger.WarnContext(ctx, "unauthenticated request", logAttrs...)
		httpx.WriteKind(w, kind, "authentication required")

	case errx.Forbidden:
		logger.WarnContext(ctx, "forbidden", logAttrs...)
		httpx.WriteKind(w, kind, "you do not have permission to "+action)

	default:
		logger.ErrorContext(ctx, "failed to "+action, logAttrs...)
		httpx.WriteKind(w, errx.Internal, "unable to "+action+" at this time, please try again")
	}
}

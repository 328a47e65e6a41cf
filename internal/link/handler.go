package link

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sundayezeilo/shortlinks/internal/errx"
	"github.com/sundayezeilo/shortlinks/internal/httpx"
)

// NamePathValue is the request path value the router stores the short
// name under before calling Redirect.
const NamePathValue = "name"

// Handler provides HTTP handlers for the management API and redirects.
// Handlers return errors; the caller hands them to an httpx.Rejecter.
type Handler struct {
	service      Service
	logger       *slog.Logger
	maxBodyBytes int64
	notFound     httpx.HandlerFunc
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service      Service
	Logger       *slog.Logger
	MaxBodyBytes int64
	// NotFound writes the response for a missing or disabled link. When nil
	// the not-found error is returned to the caller.
	NotFound httpx.HandlerFunc
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service:      cfg.Service,
		logger:       logger,
		maxBodyBytes: cfg.MaxBodyBytes,
		notFound:     cfg.NotFound,
	}
}

// Create handles POST /api.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	req, err := httpx.DecodeJSON[NewLink](w, r, h.maxBodyBytes)
	if err != nil {
		return err
	}

	created, err := h.service.Create(ctx, req)
	if err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "link created",
		"request_id", httpx.GetRequestID(ctx),
		"link_id", created.ID,
		"name", created.Name,
		"generated_name", req.Name == "",
	)

	httpx.WriteData(w, http.StatusCreated, created)
	return nil
}

// List handles GET /api.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) error {
	links, err := h.service.List(r.Context())
	if err != nil {
		return err
	}
	httpx.WriteData(w, http.StatusOK, links)
	return nil
}

// Update handles PUT /api/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	id, err := linkID(r)
	if err != nil {
		return err
	}

	changes, err := httpx.DecodeJSON[UpdatableLink](w, r, h.maxBodyBytes)
	if err != nil {
		return err
	}

	if err := h.service.Update(ctx, id, changes); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "link updated",
		"request_id", httpx.GetRequestID(ctx),
		"link_id", id,
	)

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Delete handles DELETE /api/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	id, err := linkID(r)
	if err != nil {
		return err
	}

	if err := h.service.Delete(ctx, id); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "link deleted",
		"request_id", httpx.GetRequestID(ctx),
		"link_id", id,
	)

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Redirect resolves the short name in the request and answers with a
// temporary redirect, so later edits and disables reach clients.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	name := r.PathValue(NamePathValue)

	dest, err := h.service.Resolve(ctx, name)
	if err != nil {
		if errx.KindOf(err) == errx.NotFound && h.notFound != nil {
			h.logger.DebugContext(ctx, "short link not found",
				"request_id", httpx.GetRequestID(ctx),
				"name", name,
				"error", err.Error(),
			)
			return h.notFound(w, r)
		}
		return err
	}

	http.Redirect(w, r, dest.String(), http.StatusTemporaryRedirect)
	return nil
}

// linkID parses the {id} URL parameter. Ids that can't exist are reported
// as not found.
func linkID(r *http.Request) (int64, error) {
	const op = "link.linkID"

	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errx.E(op, errx.NotFound, err)
	}
	if id <= 0 {
		return 0, errx.E(op, errx.NotFound, errors.New("id must be positive"))
	}
	return id, nil
}

package link

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayezeilo/shortlinks/internal/errx"
	"github.com/sundayezeilo/shortlinks/internal/httpx"
)

type mockService struct {
	createFunc  func(ctx context.Context, nl NewLink) (Link, error)
	listFunc    func(ctx context.Context) ([]Link, error)
	updateFunc  func(ctx context.Context, id int64, changes UpdatableLink) error
	deleteFunc  func(ctx context.Context, id int64) error
	resolveFunc func(ctx context.Context, name string) (*url.URL, error)
}

func (m *mockService) Create(ctx context.Context, nl NewLink) (Link, error) {
	return m.createFunc(ctx, nl)
}

func (m *mockService) List(ctx context.Context) ([]Link, error) {
	return m.listFunc(ctx)
}

func (m *mockService) Update(ctx context.Context, id int64, changes UpdatableLink) error {
	return m.updateFunc(ctx, id, changes)
}

func (m *mockService) Delete(ctx context.Context, id int64) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockService) Resolve(ctx context.Context, name string) (*url.URL, error) {
	return m.resolveFunc(ctx, name)
}

// newTestRouter mounts the handler the way the server does.
func newTestRouter(svc Service, maxBody int64) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rj := httpx.NewRejecter(logger, "test")
	h := NewHandler(HandlerConfig{
		Service:      svc,
		Logger:       logger,
		MaxBodyBytes: maxBody,
		NotFound: func(w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNotFound)
			_, err := io.WriteString(w, "fallback page")
			return err
		},
	})

	r := chi.NewRouter()
	r.Get("/api", rj.Handle(h.List))
	r.Post("/api", rj.Handle(h.Create))
	r.Put("/api/{id}", rj.Handle(h.Update))
	r.Delete("/api/{id}", rj.Handle(h.Delete))
	r.Get("/{name}", func(w http.ResponseWriter, r *http.Request) {
		r.SetPathValue(NamePathValue, chi.URLParam(r, "name"))
		rj.Handle(h.Redirect)(w, r)
	})
	return r
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

func TestHandler_Create(t *testing.T) {
	t.Run("returns 201 with the created link", func(t *testing.T) {
		svc := &mockService{createFunc: func(ctx context.Context, nl NewLink) (Link, error) {
			return Link{ID: 1, Name: nl.Name, Link: nl.Link, Enabled: true}, nil
		}}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(`{"name":"abc","link":"https://example.com"}`))

		newTestRouter(svc, 0).ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.JSONEq(t,
			`{"success":true,"data":{"id":1,"name":"abc","link":"https://example.com","enabled":true,"times_used":0}}`,
			rr.Body.String())
	})

	tests := []struct {
		name       string
		body       string
		maxBody    int64
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed body is 400 not 500",
			body:       `{"name":"abc","link":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "wrong field type",
			body:       `{"name":1,"link":"https://example.com"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "unknown field",
			body:       `{"name":"abc","link":"https://example.com","times_used":9}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "oversized body",
			body:       `{"name":"abc","link":"https://example.com/` + strings.Repeat("a", 64) + `"}`,
			maxBody:    32,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "payload_too_large",
		},
		{
			name:       "invalid link",
			body:       `{"name":"abc","link":"not a url"}`,
			serviceErr: errx.E("link.service.Create", errx.Invalid, errors.New("the provided link was invalid: missing scheme")),
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_input",
		},
		{
			name:       "name conflict",
			body:       `{"name":"abc","link":"https://example.com"}`,
			serviceErr: errx.E("link.service.Create", errx.Conflict, errors.New("duplicate key")),
			wantStatus: http.StatusConflict,
			wantCode:   "conflict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &mockService{createFunc: func(ctx context.Context, nl NewLink) (Link, error) {
				called = true
				return Link{}, tt.serviceErr
			}}
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(tt.body))

			newTestRouter(svc, tt.maxBody).ServeHTTP(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			body := decodeBody[httpx.ErrorResponse](t, rr)
			assert.Equal(t, tt.wantCode, body.Error)
			assert.Equal(t, tt.serviceErr != nil, called)
		})
	}
}

func TestHandler_List(t *testing.T) {
	svc := &mockService{listFunc: func(ctx context.Context) ([]Link, error) {
		return []Link{}, nil
	}}
	rr := httptest.NewRecorder()

	newTestRouter(svc, 0).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, rr.Body.String())
}

func TestHandler_Update(t *testing.T) {
	t.Run("disables a link", func(t *testing.T) {
		var gotID int64
		var got UpdatableLink
		svc := &mockService{updateFunc: func(ctx context.Context, id int64, changes UpdatableLink) error {
			gotID, got = id, changes
			return nil
		}}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/12", strings.NewReader(`{"enabled":false}`))

		newTestRouter(svc, 0).ServeHTTP(rr, req)

		require.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, rr.Body.String())
		assert.EqualValues(t, 12, gotID)
		require.NotNil(t, got.Enabled)
		assert.False(t, *got.Enabled)
		assert.Nil(t, got.Name)
		assert.Nil(t, got.Link)
	})

	t.Run("id that cannot exist is 404", func(t *testing.T) {
		svc := &mockService{}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/99999999999999999999", strings.NewReader(`{"enabled":false}`))

		newTestRouter(svc, 0).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("missing id is 404", func(t *testing.T) {
		svc := &mockService{updateFunc: func(ctx context.Context, id int64, changes UpdatableLink) error {
			return errx.E("link.service.Update", errx.NotFound, errNoRows)
		}}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/5", strings.NewReader(`{"enabled":true}`))

		newTestRouter(svc, 0).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestHandler_Delete(t *testing.T) {
	svc := &mockService{deleteFunc: func(ctx context.Context, id int64) error {
		if id == 1 {
			return nil
		}
		return errx.E("link.service.Delete", errx.NotFound, errNoRows)
	}}
	router := newTestRouter(svc, 0)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/1", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/2", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", decodeBody[httpx.ErrorResponse](t, rr).Error)
}

func TestHandler_Redirect(t *testing.T) {
	dest, _ := url.Parse("https://example.com/landing")

	tests := []struct {
		name         string
		err          error
		wantStatus   int
		wantLocation string
		wantBody     string
	}{
		{
			name:         "temporary redirect",
			wantStatus:   http.StatusTemporaryRedirect,
			wantLocation: "https://example.com/landing",
		},
		{
			name:       "not found uses fallback",
			err:        errx.E("link.service.Resolve", errx.NotFound, errors.New("disabled")),
			wantStatus: http.StatusNotFound,
			wantBody:   "fallback page",
		},
		{
			name:       "internal failure is rejected",
			err:        errx.E("link.service.Resolve", errx.Internal, errors.New("bad stored link")),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotName string
			svc := &mockService{resolveFunc: func(ctx context.Context, name string) (*url.URL, error) {
				gotName = name
				if tt.err != nil {
					return nil, tt.err
				}
				return dest, nil
			}}
			rr := httptest.NewRecorder()

			newTestRouter(svc, 0).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/abc", nil))

			assert.Equal(t, "abc", gotName)
			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantLocation, rr.Header().Get("Location"))
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rr.Body.String())
			}
		})
	}
}

func TestHandler_RedirectWithoutFallback(t *testing.T) {
	h := NewHandler(HandlerConfig{Service: &mockService{
		resolveFunc: func(ctx context.Context, name string) (*url.URL, error) {
			return nil, errx.E("link.service.Resolve", errx.NotFound, errors.New("missing"))
		},
	}})

	req := httptest.NewRequest(http.MethodGet, "/abc", nil)
	req.SetPathValue(NamePathValue, "abc")
	err := h.Redirect(httptest.NewRecorder(), req)

	assert.Equal(t, errx.NotFound, errx.KindOf(err))
}

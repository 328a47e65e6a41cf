package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sundayezeilo/shortlinks/internal/httpx"
)

func TestRouter_Precedence(t *testing.T) {
	var order []string
	route := func(name string, res Result, err error) Route {
		return Route{Name: name, Serve: func(w http.ResponseWriter, r *http.Request) (Result, error) {
			order = append(order, name)
			if res == Handled && err == nil {
				w.WriteHeader(http.StatusTeapot)
			}
			return res, err
		}}
	}
	rj := httpx.NewRejecter(slog.New(slog.NewTextHandler(io.Discard, nil)), "test")

	tests := []struct {
		name       string
		routes     []Route
		wantOrder  []string
		wantStatus int
	}{
		{
			name:       "first handler wins",
			routes:     []Route{route("a", Handled, nil), route("b", Handled, nil)},
			wantOrder:  []string{"a"},
			wantStatus: http.StatusTeapot,
		},
		{
			name:       "pass falls through in declared order",
			routes:     []Route{route("a", Pass, nil), route("b", Pass, nil), route("c", Handled, nil)},
			wantOrder:  []string{"a", "b", "c"},
			wantStatus: http.StatusTeapot,
		},
		{
			name:       "handled error is rejected",
			routes:     []Route{route("a", Handled, httpx.ErrMethodNotAllowed), route("b", Handled, nil)},
			wantOrder:  []string{"a"},
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "errors on pass are ignored",
			routes:     []Route{route("a", Pass, errors.New("ignored")), route("b", Handled, nil)},
			wantOrder:  []string{"a", "b"},
			wantStatus: http.StatusTeapot,
		},
		{
			name:       "nothing matched is no route",
			routes:     []Route{route("a", Pass, nil)},
			wantOrder:  []string{"a"},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order = nil
			rr := httptest.NewRecorder()

			NewRouter(rj, tt.routes...).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

			assert.Equal(t, tt.wantOrder, order)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestSingleSegment(t *testing.T) {
	tests := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{"/abc", "abc", true},
		{"/a.b-c_d", "a.b-c_d", true},
		{"/", "", false},
		{"", "", false},
		{"/a/b", "", false},
		{"/abc/", "abc", true},
		{"/abc//", "", false},
		{"//", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := singleSegment(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasPrefixSegment(t *testing.T) {
	assert.True(t, hasPrefixSegment("/api", "/api"))
	assert.True(t, hasPrefixSegment("/api/12", "/api"))
	assert.False(t, hasPrefixSegment("/apiary", "/api"))
	assert.False(t, hasPrefixSegment("/", "/api"))
}

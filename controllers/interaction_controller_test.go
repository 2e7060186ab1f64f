package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"hcplog/models"
	"hcplog/store"
)

var errBackend = errors.New("backend down")

// mockService returns canned results; unset funcs fail with errBackend.
type mockService struct {
	GetFunc    func(ctx context.Context, id int64) (*models.Interaction, error)
	DeleteFunc func(ctx context.Context, id int64) error
}

func (m *mockService) LogInteraction(context.Context, models.InteractionInput) (*models.Interaction, error) {
	return nil, errBackend
}

func (m *mockService) ChatLog(context.Context, models.ChatInput) (*models.Interaction, error) {
	return nil, errBackend
}

func (m *mockService) List(context.Context) ([]models.Interaction, error) {
	return nil, errBackend
}

func (m *mockService) Get(ctx context.Context, id int64) (*models.Interaction, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, errBackend
}

func (m *mockService) Update(context.Context, int64, models.InteractionInput) (*models.Interaction, error) {
	return nil, errBackend
}

func (m *mockService) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return errBackend
}

func (m *mockService) Ping(context.Context) error {
	return errBackend
}

func newTestEngine(svc InteractionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ic := NewInteractionController(svc)
	r := gin.New()
	r.GET("/healthz", ic.Health)
	r.POST("/log_interaction", ic.LogInteraction)
	r.POST("/chat_log", ic.ChatLog)
	r.GET("/interactions", ic.List)
	r.GET("/interactions/:id", ic.Get)
	r.PUT("/interactions/:id", ic.Update)
	r.DELETE("/interactions/:id", ic.Delete)
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBackendErrorsAre500(t *testing.T) {
	r := newTestEngine(&mockService{})
	tests := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/log_interaction", `{"hcp_name":"Dr. A","notes":"n"}`},
		{http.MethodPost, "/chat_log", `{"text":"Dr. A"}`},
		{http.MethodGet, "/interactions", ""},
		{http.MethodGet, "/interactions/1", ""},
		{http.MethodPut, "/interactions/1", `{"hcp_name":"Dr. A","notes":"n"}`},
		{http.MethodDelete, "/interactions/1", ""},
	}
	for _, tt := range tests {
		w := serve(r, tt.method, tt.path, tt.body)
		assert.Equal(t, http.StatusInternalServerError, w.Code, "%s %s", tt.method, tt.path)
		assert.NotContains(t, w.Body.String(), errBackend.Error())
	}
}

func TestWrappedNotFoundIs404(t *testing.T) {
	svc := &mockService{
		GetFunc: func(_ context.Context, id int64) (*models.Interaction, error) {
			return nil, errors.Wrapf(store.ErrNotFound, "id %d", id)
		},
		DeleteFunc: func(context.Context, int64) error {
			return errors.Wrap(store.ErrNotFound, "gone")
		},
	}
	r := newTestEngine(svc)

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/interactions/7", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodDelete, "/interactions/7", "").Code)
}

func TestHealthUnavailable(t *testing.T) {
	w := serve(newTestEngine(&mockService{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestParseIDRejectsNonIntegers(t *testing.T) {
	r := newTestEngine(&mockService{})
	for _, id := range []string{"abc", "1.5", "99999999999999999999"} {
		w := serve(r, http.MethodDelete, "/interactions/"+id, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
	}
}

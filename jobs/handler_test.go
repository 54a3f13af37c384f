package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modular-admin/modular-admin/internal/rbac"
)

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

type recordingEnqueuer struct {
	payloads []ExpiredRolesAuditPayload
	err      error
}

func (r *recordingEnqueuer) EnqueueExpiredRolesAudit(_ context.Context, payload ExpiredRolesAuditPayload) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.payloads = append(r.payloads, payload)
	return &asynq.TaskInfo{ID: "task-1", Type: TaskExpiredRolesAudit, Queue: QueueDefault}, nil
}

func serve(h *Handler, method string, params rbac.Params) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	h.MountRoutes(router)
	req := httptest.NewRequest(method, "/", nil)
	req = req.WithContext(rbac.ContextWithParams(req.Context(), params))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerDescribe(t *testing.T) {
	h := NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Size: 3, Pending: 2, Active: 1}}, nil, nil)
	rec := serve(h, http.MethodGet, rbac.Params{})
	require.Equal(t, http.StatusOK, rec.Code)

	var status QueueStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, QueueStatus{Queue: QueueDefault, Size: 3, Pending: 2, Active: 1}, status)
}

func TestHandlerDescribeEmptyQueue(t *testing.T) {
	h := NewHandler(stubInspector{err: asynq.ErrQueueNotFound}, nil, nil)
	rec := serve(h, http.MethodGet, rbac.Params{})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pending":0`)
}

func TestHandlerTrigger(t *testing.T) {
	enqueuer := &recordingEnqueuer{}
	h := NewHandler(nil, enqueuer, nil)

	rec := serve(h, http.MethodPost, rbac.Params{"customer_id": "acme"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, enqueuer.payloads, 1)
	assert.Equal(t, "acme", enqueuer.payloads[0].Customer)
	assert.Contains(t, rec.Body.String(), TaskExpiredRolesAudit)

	rec = serve(h, http.MethodPost, rbac.Params{"task": "mail:send"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerTriggerEnqueueFailure(t *testing.T) {
	h := NewHandler(nil, &recordingEnqueuer{err: errors.New("redis down")}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := serve(h, http.MethodPost, rbac.Params{})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "redis down")
}

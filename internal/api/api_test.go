package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kentwait/epidemicsim/internal/jobspec"
	"github.com/kentwait/epidemicsim/internal/orchestrator"
	"github.com/kentwait/epidemicsim/internal/store"
	"github.com/kentwait/epidemicsim/internal/wire"
)

// fakeTransport never reaches a real worker; GetTaskStatistics and task
// fan-out are not exercised here (orchestrator's own tests cover leasing
// only), so the router tests here only need CreateJob's zero-iteration
// boundary and the not-found/already-terminated error translation.
type fakeTransport struct{}

func (fakeTransport) Execute(ctx context.Context, taskID string, req wire.ExecuteRequest) error {
	return nil
}
func (fakeTransport) Terminate(ctx context.Context, taskID string) error { return nil }
func (fakeTransport) ReadStatistics(ctx context.Context, taskID string) (wire.StatisticsResponse, error) {
	return wire.StatisticsResponse{}, nil
}
func (fakeTransport) RemoveStatistics(ctx context.Context, taskID string) error { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	js := store.NewMemStore()
	workers := orchestrator.NewWorkerManager(nil)
	logger := zap.NewNop()
	mgr := orchestrator.NewManager(context.Background(), js, workers, logger)
	return NewRouter(mgr)
}

func TestCreateJobZeroIterationsCompletesImmediately(t *testing.T) {
	r := newTestRouter(t)

	body, err := json.Marshal(jobspec.JobConfig{IterationCount: 0})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["job_id"])

	id, err := uuid.Parse(resp["job_id"])
	require.NoError(t, err)

	getReq := httptest.NewRequest(http.MethodGet, "/jobs/"+id.String(), nil)
	getW := httptest.NewRecorder()
	r.ServeHTTP(getW, getReq)
	require.Equal(t, http.StatusOK, getW.Code)

	var job store.Job
	require.NoError(t, json.Unmarshal(getW.Body.Bytes(), &job))
	assert.Equal(t, store.JobCompleted, job.State)
}

func TestGetJobUnknownIDReturnsNotFound(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetJobMalformedIDReturnsBadRequest(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/jobs/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTerminateJobUnknownIDReturnsNotFound(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/jobs/"+uuid.New().String()+"/terminate", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTerminateJobAlreadyCompletedReturnsConflict(t *testing.T) {
	r := newTestRouter(t)

	body, err := json.Marshal(jobspec.JobConfig{IterationCount: 0})
	require.NoError(t, err)
	createReq := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(body))
	createW := httptest.NewRecorder()
	r.ServeHTTP(createW, createReq)
	require.Equal(t, http.StatusOK, createW.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(createW.Body.Bytes(), &resp))

	termReq := httptest.NewRequest(http.MethodPost, "/jobs/"+resp["job_id"]+"/terminate", nil)
	termW := httptest.NewRecorder()
	r.ServeHTTP(termW, termReq)

	assert.Equal(t, http.StatusConflict, termW.Code)
}

func TestGetTaskStatisticsUnknownIDReturnsNotFound(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/tasks/"+uuid.New().String()+"/statistics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

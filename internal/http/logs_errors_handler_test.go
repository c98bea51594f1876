package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"calibops-data/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubErrorLogService struct {
	unviewed bool
	marked   int64
	listResp *service.ListErrorLogsResponse
}

func (s *stubErrorLogService) List(ctx context.Context, req service.ListErrorLogsRequest) (*service.ListErrorLogsResponse, error) {
	return s.listResp, nil
}

func (s *stubErrorLogService) HasUnviewed(ctx context.Context) (bool, error) {
	return s.unviewed, nil
}

func (s *stubErrorLogService) MarkAllViewed(ctx context.Context) (int64, error) {
	s.unviewed = false
	return s.marked, nil
}

func newErrorLogTestRouter(stub *stubErrorLogService) *Router {
	logger := zap.NewNop()
	router := NewRouter(logger)
	router.RegisterErrorLogRoutes(NewErrorLogsHandler(stub, logger))
	return router
}

func TestErrorLogsUnviewedEndpoint(t *testing.T) {
	router := newErrorLogTestRouter(&stubErrorLogService{unviewed: true})

	req := httptest.NewRequest(http.MethodGet, "/api/logs-errors/unviewed", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body["hasUnviewed"])
}

func TestErrorLogsMarkViewedEndpoint(t *testing.T) {
	stub := &stubErrorLogService{unviewed: true, marked: 3}
	router := newErrorLogTestRouter(stub)

	// 只接受 PUT
	req := httptest.NewRequest(http.MethodGet, "/api/logs-errors/mark-viewed", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/api/logs-errors/mark-viewed", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(3), body["modifiedCount"])
	assert.False(t, stub.unviewed)
}

func TestErrorLogsListEndpoint(t *testing.T) {
	router := newErrorLogTestRouter(&stubErrorLogService{
		listResp: &service.ListErrorLogsResponse{Total: 0, TotalPages: 0, CurrentPage: 1},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/logs-errors?operator_name=a.petrov", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(0), body["totalErrors"])
}

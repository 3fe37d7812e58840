package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/iot-project/rack-wagon-service/internal/database/repository/repositorytest"
	"github.com/iot-project/rack-wagon-service/internal/database/usecase"
	"github.com/iot-project/rack-wagon-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router   *chi.Mux
	racks    *repositorytest.RackRepository
	settings *repositorytest.SettingsRepository
}

func newTestServer() *testServer {
	racks := repositorytest.NewRackRepository()
	settings := repositorytest.NewSettingsRepository()
	uc := usecase.NewRackWagonUseCase(racks, settings, usecase.WithClock(func() time.Time {
		return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	}))

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		NewRackWagonHandler(r, uc)
	})
	return &testServer{router: router, racks: racks, settings: settings}
}

func (s *testServer) do(t *testing.T, method string, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	return resp
}

func decodeSnapshot(t *testing.T, resp *httptest.ResponseRecorder) models.RackSnapshotResponse {
	t.Helper()
	var snapshot models.RackSnapshotResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &snapshot))
	return snapshot
}

func assertError(t *testing.T, resp *httptest.ResponseRecorder, code int, message string) {
	t.Helper()
	assert.Equal(t, code, resp.Code)
	assert.True(t, strings.HasPrefix(resp.Header().Get("Content-Type"), "application/json"))
	assert.JSONEq(t, `{"error":`+quote(message)+`}`, resp.Body.String())
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestPostRackWagon_NotConfigured(t *testing.T) {
	s := newTestServer()

	resp := s.do(t, http.MethodPost, "/api/rack_wagons", `{"rackId":"R1"}`)
	assertError(t, resp, http.StatusConflict, "Operator has not set a wagon limit or rackId")
}

func TestPostRackWagon_MissingRackID(t *testing.T) {
	s := newTestServer()

	resp := s.do(t, http.MethodPost, "/api/rack_wagons", `{"status":"loaded"}`)
	assertError(t, resp, http.StatusBadRequest, "Missing required field: rackId")

	// an empty body carries no rackId either
	resp = s.do(t, http.MethodPost, "/api/rack_wagons", "")
	assertError(t, resp, http.StatusBadRequest, "Missing required field: rackId")

	// a limit without a rackId is not a limit request
	resp = s.do(t, http.MethodPost, "/api/rack_wagons", `{"set_wagon_limit":2}`)
	assertError(t, resp, http.StatusBadRequest, "Missing required field: rackId")
}

func TestPostRackWagon_InvalidJSON(t *testing.T) {
	s := newTestServer()

	resp := s.do(t, http.MethodPost, "/api/rack_wagons", `{"rackId":`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "invalid JSON body")
}

func TestPostRackWagon_Scenario(t *testing.T) {
	s := newTestServer()

	resp := s.do(t, http.MethodPost, "/api/rack_wagons", `{"set_wagon_limit":"2","rackId":"R1"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"message":"Wagon limit set to 2","rackId":"R1"}`, resp.Body.String())

	resp = s.do(t, http.MethodPost, "/api/rack_wagons", `{"rackId":"R1"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	snapshot := decodeSnapshot(t, resp)
	require.Len(t, snapshot.Wagons, 1)
	assert.Equal(t, models.StatusEngine, snapshot.Wagons[0].Status)
	assert.Equal(t, 0, snapshot.TotalWagons)
	assert.Equal(t, "Wagon 1 data stored successfully.", snapshot.Message)

	resp = s.do(t, http.MethodPost, "/api/rack_wagons", `{"rackId":"R1","status":"loaded"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	snapshot = decodeSnapshot(t, resp)
	require.Len(t, snapshot.Wagons, 2)
	assert.Equal(t, 2, snapshot.Wagons[1].WagonNo)
	assert.Equal(t, "loaded", snapshot.Wagons[1].Status)
	assert.Equal(t, 1, snapshot.TotalWagons)

	resp = s.do(t, http.MethodPost, "/api/rack_wagons", `{"rackId":"R1","status":"loaded"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = s.do(t, http.MethodPost, "/api/rack_wagons", `{"rackId":"R1","status":"loaded"}`)
	assertError(t, resp, http.StatusConflict, "Wagon limit reached, no more wagons allowed")

	resp = s.do(t, http.MethodPost, "/api/rack_wagons", `{"rackId":"R2"}`)
	assertError(t, resp, http.StatusForbidden, "Invalid rackId")

	resp = s.do(t, http.MethodGet, "/api/rack_wagons", "")
	require.Equal(t, http.StatusOK, resp.Code)
	snapshot = decodeSnapshot(t, resp)
	assert.Len(t, snapshot.Wagons, 3)
	assert.Equal(t, 2, snapshot.TotalWagons)
	assert.Empty(t, snapshot.Message)

	resp = s.do(t, http.MethodDelete, "/api/rack_wagons", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"message":"All records and settings deleted"}`, resp.Body.String())

	resp = s.do(t, http.MethodGet, "/api/rack_wagons", "")
	assertError(t, resp, http.StatusNotFound, "No records found")
}

func TestGetRack_ByRackID(t *testing.T) {
	s := newTestServer()
	s.do(t, http.MethodPost, "/api/rack_wagons", `{"set_wagon_limit":2,"rackId":"R1"}`)
	s.do(t, http.MethodPost, "/api/rack_wagons", `{"rackId":"R1"}`)

	resp := s.do(t, http.MethodGet, "/api/rack_wagons?rackId=R1", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "R1", decodeSnapshot(t, resp).RackID)

	resp = s.do(t, http.MethodGet, "/api/rack_wagons?rackId=R2", "")
	assertError(t, resp, http.StatusNotFound, "No records found")
}

func TestRackWagon_StoreErrorsSurface(t *testing.T) {
	s := newTestServer()
	s.racks.Err = errors.New("server selection timeout")

	resp := s.do(t, http.MethodGet, "/api/rack_wagons", "")
	assertError(t, resp, http.StatusInternalServerError, "server selection timeout")

	resp = s.do(t, http.MethodDelete, "/api/rack_wagons", "")
	assertError(t, resp, http.StatusInternalServerError, "server selection timeout")

	s.settings.Err = errors.New("connection reset")
	resp = s.do(t, http.MethodPost, "/api/rack_wagons", `{"set_wagon_limit":2,"rackId":"R1"}`)
	assertError(t, resp, http.StatusInternalServerError, "connection reset")
}

func TestRackWagon_MethodNotAllowed(t *testing.T) {
	s := newTestServer()

	resp := s.do(t, http.MethodPut, "/api/rack_wagons", `{"rackId":"R1"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
}

func TestHandlerFunc_RecoversPanics(t *testing.T) {
	handler := HandlerFunc(func(w http.ResponseWriter, r *http.Request) *HandlerError {
		panic("boom")
	})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assertError(t, resp, http.StatusInternalServerError, "Internal Server Error")
}

func TestHandlerFunc_ExpiredRequestLeftToTimeoutMiddleware(t *testing.T) {
	h := middleware.Timeout(10 * time.Millisecond)(HandlerFunc(func(w http.ResponseWriter, r *http.Request) *HandlerError {
		<-r.Context().Done()
		return rackWagonError(r.Context().Err())
	}))

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/rack_wagons", nil))
	assert.Equal(t, http.StatusGatewayTimeout, resp.Code)
	assert.Empty(t, resp.Body.String())
}

func TestHandlerFunc_StoreDeadlineWithinRequest(t *testing.T) {
	h := HandlerFunc(func(w http.ResponseWriter, r *http.Request) *HandlerError {
		return rackWagonError(fmt.Errorf("find rack: %w", context.DeadlineExceeded))
	})

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/rack_wagons", nil))
	assertError(t, resp, http.StatusGatewayTimeout, "find rack: "+context.DeadlineExceeded.Error())
}

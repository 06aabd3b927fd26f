package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financials/model"
	"financials/service"
)

type fixedSource struct {
	result any
}

func (s fixedSource) GetRealtime(ticker string, datacode model.Datacode) any {
	return s.result
}

func (s fixedSource) GetHistoric(ticker string, datacode model.Datacode, date string) any {
	return s.result
}

func newTestRouter(result any) *gin.Engine {
	gin.SetMode(gin.TestMode)

	src := fixedSource{result: result}
	fs := service.NewFinancialsService(src, src, src, src)

	router := gin.New()
	api := router.Group("/api")
	NewFinancialsController(fs).RegisterRoutes(api)
	NewHealthController().RegisterRoutes(api)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, target string) (int, model.Response) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(w, req)

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestRealtimeEndpoint(t *testing.T) {
	router := newTestRouter(167.19)

	code, resp := doRequest(t, router, "/api/quote/realtime?ticker=IBM&datacode=21&source=YAHOO")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	assert.Equal(t, 167.19, resp.Data)
}

func TestRealtimeEndpointMissingParams(t *testing.T) {
	router := newTestRouter(nil)

	code, resp := doRequest(t, router, "/api/quote/realtime?ticker=IBM")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)
}

func TestRealtimeEndpointMessageResult(t *testing.T) {
	// provider-level problems still come back as a 200 with the message in
	// the data scalar, the way a spreadsheet cell would show it
	router := newTestRouter("Could not find price for 'IBM'")

	code, resp := doRequest(t, router, "/api/quote/realtime?ticker=IBM&datacode=21&source=YAHOO")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Could not find price for 'IBM'", resp.Data)
}

func TestHistoricEndpoint(t *testing.T) {
	router := newTestRouter(166.60)

	code, resp := doRequest(t, router, "/api/quote/historic?ticker=IBM&datacode=90&date=2016-12-29&source=YAHOO")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 166.60, resp.Data)
}

func TestHistoricEndpointMissingDate(t *testing.T) {
	router := newTestRouter(nil)

	code, resp := doRequest(t, router, "/api/quote/historic?ticker=IBM&datacode=90&source=YAHOO")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

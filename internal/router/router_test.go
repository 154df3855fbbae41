package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blues/antugrow/internal/config"
	"github.com/blues/antugrow/internal/database"
	"github.com/blues/antugrow/internal/handler"
	"github.com/blues/antugrow/internal/logic"
	"github.com/blues/antugrow/internal/metrics"
	"github.com/blues/antugrow/internal/provider"
	"github.com/blues/antugrow/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHealth struct{ status string }

func (f fakeHealth) GetHealthStatus(context.Context) map[string]interface{} {
	return map[string]interface{}{"client_status": f.status}
}

func newTestRouter(t *testing.T, chain HealthChecker) http.Handler {
	t.Helper()
	agro := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/weather-data":
			_, _ = w.Write([]byte(`{"main":"Clear","description":"clear sky","temperature":26,"humidity":40,"wind_speed":2,"wind_deg":90,"location":"Nakuru","feels_like":26}`))
		case "/satellite-data":
			_, _ = w.Write([]byte(`{"NDVI":0.7,"GNDVI":0.55,"NDMI":0.3,"Soil_Moisture":0.62,"Water_Stress":0.31}`))
		case "/prices":
			_, _ = w.Write([]byte(`[]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(agro.Close)

	cfg := &config.Config{Server: config.ServerConfig{Mode: "test"}}
	db, err := database.Init(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)

	m := metrics.New()
	source := provider.NewAgroClient(config.ProviderConfig{BaseURL: agro.URL, Timeout: 5 * time.Second}, m)
	farmRepo := repository.NewFarmRepository(db)
	farmerRepo := repository.NewFarmerRepository(db)
	farms := logic.NewFarmLogic(farmRepo, farmerRepo, source, m)
	insights := logic.NewInsightLogic(farms, source)
	analysis := logic.NewAnalysisLogic(farms, provider.NewOpenAIClient(config.OpenAIConfig{}, m))
	t.Cleanup(insights.Close)
	t.Cleanup(analysis.Close)

	return Setup(cfg, Services{
		Farmers:  logic.NewFarmerLogic(farmerRepo),
		Farms:    farms,
		Insights: insights,
		Analysis: analysis,
		Chain:    chain,
		Metrics:  m,
	})
}

func perform(r http.Handler, method, path, body, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(handler.UserIDHeader, userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t, fakeHealth{status: "disconnected"})

	w := perform(r, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "degraded", health["status"])

	w = perform(r, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")

	w = perform(r, http.MethodOptions, "/api/v1/farms", "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = perform(r, http.MethodGet, "/api/v1/fundings", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFarmRoutes(t *testing.T) {
	r := newTestRouter(t, nil)

	w := perform(r, http.MethodGet, "/api/v1/farms", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	body := `{"name":"Lakeside","crop_types":["maize"],"location_name":"Nakuru","stage":2,
		"location":[{"lat":-0.30,"lng":36.07},{"lat":-0.30,"lng":36.08},{"lat":-0.31,"lng":36.08}]}`
	w = perform(r, http.MethodPost, "/api/v1/farms", body, "user-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data logic.CreateFarmResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	farmID := created.Data.Farm.ID
	assert.True(t, created.Data.Ingested)
	assert.Equal(t, 305, created.Data.Credit)
	assert.Len(t, created.Data.Farm.Location, 4)

	w = perform(r, http.MethodGet, "/api/v1/farms/"+farmID, "", "user-1")
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Data logic.FarmDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	require.NotNil(t, detail.Data.Weather)
	assert.Equal(t, "Clear", detail.Data.Weather.Main)
	assert.Len(t, detail.Data.Metrics, 5)

	w = perform(r, http.MethodGet, "/api/v1/farms/"+farmID, "", "user-2")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(r, http.MethodGet, "/api/v1/farms/"+farmID+"/geojson", "", "user-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Polygon"`)

	w = perform(r, http.MethodGet, "/api/v1/farms/"+farmID+"/parameters?from=2026-13-01", "", "user-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodGet, "/api/v1/farms/"+farmID+"/analysis", "", "user-1")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = perform(r, http.MethodGet, "/api/v1/profile", "", "user-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"credit":305`)

	w = perform(r, http.MethodGet, "/api/v1/prices", "", "user-1")
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(r, http.MethodDelete, "/api/v1/farms/"+farmID, "", "user-1")
	assert.Equal(t, http.StatusOK, w.Code)
	w = perform(r, http.MethodGet, "/api/v1/farms", "", "user-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestPublicRoutes(t *testing.T) {
	r := newTestRouter(t, nil)

	w := perform(r, http.MethodGet, "/api/v1/stages", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Post Harvesting")

	w = perform(r, http.MethodPost, "/api/v1/geo/area", `{"points":[]}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"label":"0.0"`)

	w = perform(r, http.MethodGet, "/api/v1/prices?days=0", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodGet, "/api/v1/prices", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

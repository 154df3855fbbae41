package logic

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/blues/antugrow/internal/config"
	"github.com/blues/antugrow/internal/database"
	"github.com/blues/antugrow/internal/geo"
	"github.com/blues/antugrow/internal/metrics"
	"github.com/blues/antugrow/internal/model"
	"github.com/blues/antugrow/internal/provider"
	"github.com/blues/antugrow/internal/repository"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu sync.Mutex

	weatherErr   error
	satelliteErr error
	weatherAt    []geo.Coordinate
	polygons     [][][][]float64

	paramCalls int
	paramFrom  time.Time
	paramTo    time.Time
	paramRing  [][]float64
	// blockFirst 第一次参数查询阻塞到被取消
	blockFirst bool
	started    chan struct{}

	prices     []provider.MarketPrices
	priceCalls [][]string
	priceDays  int
}

func (f *fakeSource) IngestWeather(_ context.Context, farmID string, at geo.Coordinate) (*model.FarmWeatherModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.weatherAt = append(f.weatherAt, at)
	if f.weatherErr != nil {
		return nil, f.weatherErr
	}
	return &model.FarmWeatherModel{FarmID: farmID, Main: "Clouds", Temperature: 22.5, Humidity: 64}, nil
}

func (f *fakeSource) IngestSatellite(_ context.Context, farmID string, polygon [][][]float64) (*model.FarmSatelliteModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polygons = append(f.polygons, polygon)
	if f.satelliteErr != nil {
		return nil, f.satelliteErr
	}
	return &model.FarmSatelliteModel{FarmID: farmID, NDVI: 0.65, GNDVI: 0.35, NDMI: 0.1, SoilMoisture: 0.45, WaterStress: 0.25}, nil
}

func (f *fakeSource) Parameters(ctx context.Context, ring [][]float64, from, to time.Time) (*provider.Parameters, error) {
	f.mu.Lock()
	f.paramCalls++
	first := f.paramCalls == 1
	f.paramFrom, f.paramTo, f.paramRing = from, to, ring
	f.mu.Unlock()

	if first && f.blockFirst {
		close(f.started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	params := &provider.Parameters{Source: "sentinel-2", TotalImages: f.paramCalls}
	params.NDVI.Value = 0.5
	return params, nil
}

func (f *fakeSource) Prices(_ context.Context, products []string, days int) ([]provider.MarketPrices, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceCalls = append(f.priceCalls, products)
	f.priceDays = days
	return f.prices, nil
}

type fakeCompleter struct {
	text   string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.text, f.err
}

type fixture struct {
	source  *fakeSource
	farmers *FarmerLogic
	farms   *FarmLogic
	repo    *repository.FarmRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Init(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)

	source := &fakeSource{started: make(chan struct{})}
	farmRepo := repository.NewFarmRepository(db)
	farmerRepo := repository.NewFarmerRepository(db)
	return &fixture{
		source:  source,
		farmers: NewFarmerLogic(farmerRepo),
		farms:   NewFarmLogic(farmRepo, farmerRepo, source, metrics.New()),
		repo:    farmRepo,
	}
}

func (f *fixture) session(t *testing.T, userID string) model.Session {
	t.Helper()
	session, err := f.farmers.Session(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, session.Farmer)
	return session
}

// square 约 0.001° 见方的四个点，未闭合
func square() []geo.Coordinate {
	return []geo.Coordinate{
		{Lat: -1.0, Lng: 36.0},
		{Lat: -1.0, Lng: 36.001},
		{Lat: -1.001, Lng: 36.001},
		{Lat: -1.001, Lng: 36.0},
	}
}

func (f *fixture) createFarm(t *testing.T, session model.Session, name string, crops ...string) model.FarmModel {
	t.Helper()
	result, err := f.farms.Create(context.Background(), session, CreateFarmRequest{
		Name:         name,
		Location:     square(),
		CropTypes:    crops,
		LocationName: "Kiambu",
		Stage:        3,
	})
	require.NoError(t, err)
	return result.Farm
}

package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blues/antugrow/internal/geo"
	"github.com/blues/antugrow/internal/logger"
	"github.com/blues/antugrow/internal/metrics"
	"github.com/blues/antugrow/internal/model"
	"github.com/blues/antugrow/internal/provider"
	"github.com/blues/antugrow/internal/repository"
	geojson "github.com/paulmach/go.geojson"
	"golang.org/x/sync/errgroup"
)

// 新增农场奖励的信用分
const farmCreditReward = 5

// DataSource 天气、卫星、参数、价格数据服务
type DataSource interface {
	IngestWeather(ctx context.Context, farmID string, at geo.Coordinate) (*model.FarmWeatherModel, error)
	IngestSatellite(ctx context.Context, farmID string, polygon [][][]float64) (*model.FarmSatelliteModel, error)
	Parameters(ctx context.Context, ring [][]float64, from, to time.Time) (*provider.Parameters, error)
	Prices(ctx context.Context, products []string, days int) ([]provider.MarketPrices, error)
}

// CreateFarmRequest 新增农场请求
type CreateFarmRequest struct {
	Name         string           `json:"name"`
	Location     []geo.Coordinate `json:"location"`
	CropTypes    []string         `json:"crop_types"`
	LocationName string           `json:"location_name"`
	Stage        int              `json:"stage"`
}

// CreateFarmResult 新增结果；数据采集失败时农场仍然保留
type CreateFarmResult struct {
	Farm        model.FarmModel `json:"farm"`
	Ingested    bool            `json:"ingested"`
	IngestError string          `json:"ingest_error,omitempty"`
	Credit      int             `json:"credit"`
}

// FarmSummary 列表项，附带天气
type FarmSummary struct {
	model.FarmModel
	Weather *model.FarmWeatherModel `json:"weather"`
}

// FarmDetail 农场详情
type FarmDetail struct {
	model.FarmModel
	Center        *geo.Coordinate           `json:"center"`
	StageProgress int                       `json:"stage_progress"`
	Weather       *model.FarmWeatherModel   `json:"weather"`
	Satellite     *model.FarmSatelliteModel `json:"satellite"`
	Metrics       []MetricReading           `json:"metrics"`
}

// FarmLogic 农场业务逻辑
type FarmLogic struct {
	farms   *repository.FarmRepository
	farmers *repository.FarmerRepository
	source  DataSource
	metrics *metrics.Metrics
}

// NewFarmLogic 创建农场业务逻辑
func NewFarmLogic(farms *repository.FarmRepository, farmers *repository.FarmerRepository, source DataSource, m *metrics.Metrics) *FarmLogic {
	return &FarmLogic{farms: farms, farmers: farmers, source: source, metrics: m}
}

// Create 新增农场：计算面积、闭合边界、采集天气和卫星数据、奖励信用分
func (l *FarmLogic) Create(ctx context.Context, session model.Session, req CreateFarmRequest) (*CreateFarmResult, error) {
	if session.Farmer == nil {
		return nil, ErrNoProfile
	}

	name := strings.TrimSpace(req.Name)
	crops := cleanCrops(req.CropTypes)
	if name == "" || len(crops) == 0 {
		return nil, ErrMissingFields
	}
	if len(req.Location) < 3 {
		return nil, ErrTooFewPoints
	}
	if req.Stage == 0 {
		req.Stage = 1
	}
	stage, ok := model.LookupFarmStage(req.Stage)
	if !ok {
		return nil, ErrInvalidStage
	}

	boundary := geo.NewBoundary(req.Location...)
	farm := &model.FarmModel{
		FarmerID:     session.FarmerID(),
		Name:         name,
		Location:     boundary.Ring(),
		SizeAcres:    boundary.Acres(),
		CropTypes:    crops,
		LocationName: strings.TrimSpace(req.LocationName),
		FarmStage:    stage,
	}
	if err := l.farms.Create(ctx, farm); err != nil {
		return nil, err
	}
	l.metrics.FarmCreated()
	logger.Info("Farm %s created for farmer %s, %s acres", farm.ID, farm.FarmerID, geo.FormatAcres(farm.SizeAcres))

	result := &CreateFarmResult{Farm: *farm, Credit: session.Farmer.Credit}
	if err := l.ingest(ctx, farm); err != nil {
		logger.Warn("Failed to fetch metadata for farm %s: %v", farm.ID, err)
		result.IngestError = err.Error()
		return result, nil
	}
	result.Ingested = true

	credit, err := l.farmers.AdjustCredit(ctx, farm.FarmerID, farmCreditReward)
	if err != nil {
		logger.Warn("Failed to update credit score of farmer %s: %v", farm.FarmerID, err)
		return result, nil
	}
	result.Credit = credit
	return result, nil
}

// ingest 首点天气 + 整个多边形的卫星指数
func (l *FarmLogic) ingest(ctx context.Context, farm *model.FarmModel) error {
	if err := l.RefreshWeather(ctx, *farm); err != nil {
		return err
	}

	satellite, err := l.source.IngestSatellite(ctx, farm.ID, [][][]float64{geo.LngLat(farm.Location)})
	if err != nil {
		return fmt.Errorf("satellite data: %w", err)
	}
	return l.farms.SaveSatellite(ctx, satellite)
}

// RefreshWeather 重新采集农场首点天气并保存
func (l *FarmLogic) RefreshWeather(ctx context.Context, farm model.FarmModel) error {
	if len(farm.Location) == 0 {
		return fmt.Errorf("farm %s has no location", farm.ID)
	}
	weather, err := l.source.IngestWeather(ctx, farm.ID, farm.Location[0])
	if err != nil {
		return fmt.Errorf("weather data: %w", err)
	}
	return l.farms.SaveWeather(ctx, weather)
}

// List 当前农户的农场，附带天气
func (l *FarmLogic) List(ctx context.Context, session model.Session) ([]FarmSummary, error) {
	if session.Farmer == nil {
		return nil, ErrNoProfile
	}

	farms, err := l.farms.ListByFarmer(ctx, session.FarmerID())
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(farms))
	for _, f := range farms {
		ids = append(ids, f.ID)
	}
	weather, err := l.farms.WeatherByFarm(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]FarmSummary, 0, len(farms))
	for _, f := range farms {
		summary := FarmSummary{FarmModel: f}
		if w, ok := weather[f.ID]; ok {
			summary.Weather = &w
		}
		out = append(out, summary)
	}
	return out, nil
}

// All 全部农场，供定时任务使用
func (l *FarmLogic) All(ctx context.Context) ([]model.FarmModel, error) {
	return l.farms.ListAll(ctx)
}

// Farm 当前农户的单个农场
func (l *FarmLogic) Farm(ctx context.Context, session model.Session, id string) (*model.FarmModel, error) {
	if session.Farmer == nil {
		return nil, ErrNoProfile
	}
	farm, err := l.farms.Get(ctx, session.FarmerID(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrFarmNotFound
	}
	return farm, err
}

// Get 农场详情，天气与卫星数据并发读取
func (l *FarmLogic) Get(ctx context.Context, session model.Session, id string) (*FarmDetail, error) {
	farm, err := l.Farm(ctx, session, id)
	if err != nil {
		return nil, err
	}

	detail := &FarmDetail{
		FarmModel:     *farm,
		StageProgress: farm.FarmStage.Progress(),
		Metrics:       []MetricReading{},
	}
	if center, ok := geo.Centroid(farm.Location); ok {
		detail.Center = &center
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w, err := l.farms.Weather(gctx, farm.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		detail.Weather = w
		return err
	})
	g.Go(func() error {
		s, err := l.farms.Satellite(gctx, farm.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		detail.Satellite = s
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if detail.Satellite != nil {
		detail.Metrics = ClassifyAll(detail.Satellite.Metrics())
	}
	return detail, nil
}

// Delete 删除当前农户的农场
func (l *FarmLogic) Delete(ctx context.Context, session model.Session, id string) error {
	if session.Farmer == nil {
		return ErrNoProfile
	}
	err := l.farms.Delete(ctx, session.FarmerID(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrFarmNotFound
	}
	if err != nil {
		return err
	}
	logger.Info("Farm %s deleted by farmer %s", id, session.FarmerID())
	return nil
}

// GeoJSON 导出农场边界为 GeoJSON Feature
func (l *FarmLogic) GeoJSON(ctx context.Context, session model.Session, id string) (*geojson.Feature, error) {
	farm, err := l.Farm(ctx, session, id)
	if err != nil {
		return nil, err
	}

	feature := geojson.NewFeature(geo.Polygon(farm.Location))
	feature.ID = farm.ID
	feature.SetProperty("name", farm.Name)
	feature.SetProperty("size_acres", farm.SizeAcres)
	feature.SetProperty("crop_types", farm.CropTypes)
	feature.SetProperty("farm_stage", farm.FarmStage.Value)
	if farm.LocationName != "" {
		feature.SetProperty("location_name", farm.LocationName)
	}
	return feature, nil
}

func cleanCrops(crops []string) []string {
	out := make([]string, 0, len(crops))
	seen := make(map[string]struct{}, len(crops))
	for _, c := range crops {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

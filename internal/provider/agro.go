package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/blues/antugrow/internal/config"
	"github.com/blues/antugrow/internal/geo"
	"github.com/blues/antugrow/internal/metrics"
	"github.com/blues/antugrow/internal/model"
)

// 日期参数格式
const dateLayout = "2006-01-02"

// Index 单个植被指数
type Index struct {
	Value       float64 `json:"value"`
	Description string  `json:"description"`
}

// Indices 数据服务返回的指数集合
type Indices struct {
	NDVI             Index `json:"NDVI"`
	GNDVI            Index `json:"GNDVI"`
	NDMI             Index `json:"NDMI"`
	WaterStress      Index `json:"Water_Stress"`
	EVI              Index `json:"EVI"`
	SoilMoisture     Index `json:"Soil_Moisture"`
	ChlorophyllIndex Index `json:"Chlorophyll_Index"`
	NDRE             Index `json:"NDRE"`
}

// Parameters 时间段内的植被参数及序列
type Parameters struct {
	Indices
	Source      string          `json:"Source"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	TotalImages int             `json:"totalImages"`
	Categories  []interface{}   `json:"categories"`
	Series      json.RawMessage `json:"series,omitempty"`
	Latest      struct {
		Timestamp string `json:"timestamp"`
		Indices
	} `json:"latest"`
}

// Price 单条市场价格
type Price struct {
	ID      string `json:"id"`
	Markets struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Counties struct {
			Name string `json:"name"`
		} `json:"counties"`
	} `json:"markets"`
	Products struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"products"`
	PriceDate   string  `json:"price_date"`
	RetailPrice float64 `json:"retail_price"`
	RetailUnit  string  `json:"retail_unit"`
}

// PriceAnalysis 价格变化分析
type PriceAnalysis struct {
	Crop        string  `json:"crop"`
	OldPrice    float64 `json:"old_price"`
	NewPrice    float64 `json:"new_price"`
	PriceChange string  `json:"price_change"`
}

// MarketPrices 单个作物的价格及分析
type MarketPrices struct {
	Prices   []Price       `json:"prices"`
	Analysis PriceAnalysis `json:"analysis"`
}

// AgroClient 天气、卫星、参数、价格数据服务客户端
type AgroClient struct {
	session
}

// NewAgroClient 创建数据服务客户端
func NewAgroClient(cfg config.ProviderConfig, m *metrics.Metrics) *AgroClient {
	return &AgroClient{session: newSession(cfg.BaseURL, cfg.Timeout, m)}
}

// IngestWeather 触发单点天气采集，返回采集结果
func (c *AgroClient) IngestWeather(ctx context.Context, farmID string, at geo.Coordinate) (*model.FarmWeatherModel, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/weather-data", nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("lat", formatFloat(at.Lat))
	q.Set("lon", formatFloat(at.Lng))
	q.Set("farm_id", farmID)
	req.URL.RawQuery = q.Encode()

	var weather model.FarmWeatherModel
	if err := c.doJSON(req, "weather-data", &weather); err != nil {
		return nil, err
	}
	weather.FarmID = farmID
	return &weather, nil
}

// IngestSatellite 触发多边形卫星指数采集，polygon 为 [[[lng,lat],...]]
func (c *AgroClient) IngestSatellite(ctx context.Context, farmID string, polygon [][][]float64) (*model.FarmSatelliteModel, error) {
	location, err := json.Marshal(polygon)
	if err != nil {
		return nil, fmt.Errorf("encode polygon: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/satellite-data", nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("location", string(location))
	q.Set("farm_id", farmID)
	req.URL.RawQuery = q.Encode()

	var satellite model.FarmSatelliteModel
	if err := c.doJSON(req, "satellite-data", &satellite); err != nil {
		return nil, err
	}
	satellite.FarmID = farmID
	return &satellite, nil
}

// Parameters 查询时间段内的植被参数，ring 为 [[lng,lat],...]
func (c *AgroClient) Parameters(ctx context.Context, ring [][]float64, from, to time.Time) (*Parameters, error) {
	polygon, err := json.Marshal(ring)
	if err != nil {
		return nil, fmt.Errorf("encode polygon: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/get-parameters", nil)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("polygon", string(polygon))
	q.Set("mode", "all")
	q.Set("startDate", from.Format(dateLayout))
	q.Set("endDate", to.Format(dateLayout))
	q.Set("cropHealth", "true")
	q.Set("growth", "true")
	q.Set("waterContent", "true")
	req.URL.RawQuery = q.Encode()

	var resp struct {
		Parameters *Parameters `json:"parameters"`
	}
	if err := c.doJSON(req, "get-parameters", &resp); err != nil {
		return nil, err
	}
	if resp.Parameters == nil {
		return nil, fmt.Errorf("get-parameters response has no parameters")
	}
	return resp.Parameters, nil
}

// Prices 查询作物近 days 天的市场价格，作物为空时不发请求
func (c *AgroClient) Prices(ctx context.Context, products []string, days int) ([]MarketPrices, error) {
	if len(products) == 0 {
		return []MarketPrices{}, nil
	}
	if days <= 0 {
		days = 30
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/prices", nil)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("products", strings.Join(products, ","))
	q.Set("days", strconv.Itoa(days))
	req.URL.RawQuery = q.Encode()

	var prices []MarketPrices
	if err := c.doJSON(req, "prices", &prices); err != nil {
		return nil, err
	}
	if prices == nil {
		prices = []MarketPrices{}
	}
	return prices, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package model

import (
	"time"

	"github.com/blues/antugrow/internal/geo"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FarmStage 农场生长阶段
type FarmStage struct {
	Stage int    `json:"stage"`
	Value string `json:"value"`
}

// FarmStages 固定的六个阶段
var FarmStages = []FarmStage{
	{Stage: 1, Value: "Planning & Preparation"},
	{Stage: 2, Value: "Planting & Sowing"},
	{Stage: 3, Value: "Growth Stage"},
	{Stage: 4, Value: "Maturation"},
	{Stage: 5, Value: "Post Harvesting"},
	{Stage: 6, Value: "Marketing & Sales"},
}

// LookupFarmStage 按序号查找阶段
func LookupFarmStage(stage int) (FarmStage, bool) {
	for _, s := range FarmStages {
		if s.Stage == stage {
			return s, true
		}
	}
	return FarmStage{}, false
}

// Progress 阶段进度百分比
func (s FarmStage) Progress() int {
	return s.Stage * 100 / len(FarmStages)
}

// FarmModel 农场
type FarmModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FarmerID     string           `json:"farmer_id" gorm:"index;not null"`
	Name         string           `json:"name" gorm:"not null"`
	Location     []geo.Coordinate `json:"location" gorm:"serializer:json"` // 闭合边界
	SizeAcres    float64          `json:"size_acres"`
	CropTypes    []string         `json:"crop_types" gorm:"serializer:json"`
	LocationName string           `json:"location_name"`
	FarmStage    FarmStage        `json:"farm_stage" gorm:"serializer:json"`
}

// TableName 自定义表名
func (FarmModel) TableName() string {
	return "farms"
}

// BeforeCreate 生成主键
func (f *FarmModel) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// FarmWeatherModel 农场天气，由数据服务写入，每个农场一行
type FarmWeatherModel struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	UpdatedAt time.Time `json:"updated_at"`

	FarmID      string  `json:"farm_id" gorm:"uniqueIndex;not null"`
	Main        string  `json:"main"`
	Description string  `json:"description"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	WindDeg     float64 `json:"wind_deg"`
	Location    string  `json:"location"`
}

// TableName 自定义表名
func (FarmWeatherModel) TableName() string {
	return "farm_weather"
}

// FarmSatelliteModel 农场卫星指数，每个农场一行
type FarmSatelliteModel struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	UpdatedAt time.Time `json:"updated_at"`

	FarmID       string  `json:"farm_id" gorm:"uniqueIndex;not null"`
	NDVI         float64 `json:"NDVI" gorm:"column:ndvi"`
	GNDVI        float64 `json:"GNDVI" gorm:"column:gndvi"`
	NDMI         float64 `json:"NDMI" gorm:"column:ndmi"`
	SoilMoisture float64 `json:"Soil_Moisture" gorm:"column:soil_moisture"`
	WaterStress  float64 `json:"Water_Stress" gorm:"column:water_stress"`
}

// TableName 自定义表名
func (FarmSatelliteModel) TableName() string {
	return "farm_satellite"
}

// Metrics 指数名到数值
func (s FarmSatelliteModel) Metrics() map[string]float64 {
	return map[string]float64{
		"NDVI":          s.NDVI,
		"GNDVI":         s.GNDVI,
		"NDMI":          s.NDMI,
		"Soil_Moisture": s.SoilMoisture,
		"Water_Stress":  s.WaterStress,
	}
}

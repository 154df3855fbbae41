package logic

import "sort"

// 指数评级
const (
	LabelGood    = "Good"
	LabelAverage = "Average"
	LabelPoor    = "Poor"
	LabelUnknown = "Unknown"
)

// Classification 指数评级及展示颜色
type Classification struct {
	Color string `json:"color"`
	Label string `json:"label"`
}

// MetricReading 带评级的单个指数
type MetricReading struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Classification
}

// good / average 阈值，低于 average 为 Poor
var metricThresholds = map[string][2]float64{
	"NDVI":          {0.6, 0.3},
	"GNDVI":         {0.5, 0.3},
	"NDMI":          {0.4, 0.2},
	"Soil_Moisture": {0.6, 0.4},
	"Water_Stress":  {0.3, 0.2},
}

// Classify 按指数名和数值评级，未知指数返回 Unknown
func Classify(key string, value float64) Classification {
	t, ok := metricThresholds[key]
	if !ok {
		return Classification{Color: "gray-400", Label: LabelUnknown}
	}
	switch {
	case value >= t[0]:
		return Classification{Color: "green-600", Label: LabelGood}
	case value >= t[1]:
		return Classification{Color: "orange-300", Label: LabelAverage}
	default:
		return Classification{Color: "red-500", Label: LabelPoor}
	}
}

// ClassifyAll 对一组指数评级，按名称排序
func ClassifyAll(values map[string]float64) []MetricReading {
	readings := make([]MetricReading, 0, len(values))
	for name, value := range values {
		readings = append(readings, MetricReading{
			Name:           name,
			Value:          value,
			Classification: Classify(name, value),
		})
	}
	sort.Slice(readings, func(i, j int) bool { return readings[i].Name < readings[j].Name })
	return readings
}

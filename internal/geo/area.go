package geo

import (
	"math"
	"strconv"
)

const (
	// EarthRadius 地球平均半径（米）
	EarthRadius = 6371000.0
	// SquareMetersPerAcre 每英亩平方米数
	SquareMetersPerAcre = 4046.8564224
)

// Coordinate 经纬度坐标（度）
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SquareMeters 使用球面角盈近似计算多边形面积（平方米）
//
// 边界按开放环处理，最后一个点与第一个点之间的边会被隐式补上；如果调用方已经闭合，
// 闭合边贡献为零。基于球体而非椭球，跨越反子午线或极点的多边形结果不可靠，
// 对农田尺度（数百米到数公里）足够。
func SquareMeters(boundary []Coordinate) float64 {
	n := len(boundary)
	if n < 3 {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		p1 := boundary[i]
		p2 := boundary[(i+1)%n]
		sum += (toRadians(p2.Lng) - toRadians(p1.Lng)) *
			(2 + math.Sin(toRadians(p1.Lat)) + math.Sin(toRadians(p2.Lat)))
	}

	return math.Abs(sum * EarthRadius * EarthRadius / 2)
}

// Acres 计算边界面积（英亩），保留一位小数
func Acres(boundary []Coordinate) float64 {
	return roundTenth(SquareMeters(boundary) / SquareMetersPerAcre)
}

// FormatAcres 格式化英亩数，固定一位小数
func FormatAcres(acres float64) string {
	return strconv.FormatFloat(acres, 'f', 1, 64)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

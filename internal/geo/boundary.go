package geo

import (
	geojson "github.com/paulmach/go.geojson"
)

// Boundary 农田边界，点只能追加，直到 Reset
type Boundary struct {
	points []Coordinate
}

// NewBoundary 使用已有点创建边界
func NewBoundary(points ...Coordinate) *Boundary {
	b := &Boundary{}
	for _, p := range points {
		b.Add(p)
	}
	return b
}

// Add 追加一个点
func (b *Boundary) Add(p Coordinate) {
	b.points = append(b.points, p)
}

// Reset 清空边界
func (b *Boundary) Reset() {
	b.points = nil
}

// Len 点数
func (b *Boundary) Len() int {
	return len(b.points)
}

// Acres 当前边界的面积（英亩）
func (b *Boundary) Acres() float64 {
	return Acres(b.points)
}

// Ring 返回闭合环：超过两个点且首尾不同时补上首点
func (b *Boundary) Ring() []Coordinate {
	return CloseRing(b.points)
}

// CloseRing 闭合坐标环，不修改入参
func CloseRing(points []Coordinate) []Coordinate {
	out := make([]Coordinate, len(points), len(points)+1)
	copy(out, points)
	if len(out) > 2 && out[0] != out[len(out)-1] {
		out = append(out, out[0])
	}
	return out
}

// Centroid 各点的算术平均，用作地图中心
func Centroid(points []Coordinate) (Coordinate, bool) {
	if len(points) == 0 {
		return Coordinate{}, false
	}
	var c Coordinate
	n := float64(len(points))
	for _, p := range points {
		c.Lat += p.Lat / n
		c.Lng += p.Lng / n
	}
	return c, true
}

// LngLat 转换为 [lng, lat] 数组，供外部数据服务使用
func LngLat(points []Coordinate) [][]float64 {
	out := make([][]float64, 0, len(points))
	for _, p := range points {
		out = append(out, []float64{p.Lng, p.Lat})
	}
	return out
}

// Polygon 转换为 GeoJSON 多边形（自动闭合）
func Polygon(points []Coordinate) *geojson.Geometry {
	return geojson.NewPolygonGeometry([][][]float64{LngLat(CloseRing(points))})
}

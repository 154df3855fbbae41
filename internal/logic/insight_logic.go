package logic

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/blues/antugrow/internal/geo"
	"github.com/blues/antugrow/internal/keyed"
	"github.com/blues/antugrow/internal/model"
	"github.com/blues/antugrow/internal/provider"
)

// 默认查询区间
const (
	defaultParameterMonths = 3
	defaultPriceDays       = 30
)

// InsightLogic 植被参数与市场价格查询。
// 同一农场（或同一组作物）只采纳最新一次查询的结果。
type InsightLogic struct {
	farms      *FarmLogic
	source     DataSource
	parameters *keyed.Runner[*provider.Parameters]
	prices     *keyed.Runner[[]provider.MarketPrices]
	now        func() time.Time
}

// NewInsightLogic 创建查询逻辑
func NewInsightLogic(farms *FarmLogic, source DataSource) *InsightLogic {
	return &InsightLogic{
		farms:      farms,
		source:     source,
		parameters: keyed.NewRunner[*provider.Parameters](),
		prices:     keyed.NewRunner[[]provider.MarketPrices](),
		now:        time.Now,
	}
}

// Parameters 查询农场在 [from, to] 内的植被参数，零值时默认最近三个月
func (l *InsightLogic) Parameters(ctx context.Context, session model.Session, farmID string, from, to time.Time) (*provider.Parameters, error) {
	farm, err := l.farms.Farm(ctx, session, farmID)
	if err != nil {
		return nil, err
	}

	if to.IsZero() {
		to = l.now()
	}
	if from.IsZero() {
		from = to.AddDate(0, -defaultParameterMonths, 0)
	}
	if !from.Before(to) {
		return nil, ErrInvalidRange
	}

	ring := geo.LngLat(farm.Location)
	return l.parameters.Do(ctx, farm.ID, func(ctx context.Context) (*provider.Parameters, error) {
		return l.source.Parameters(ctx, ring, from, to)
	})
}

// Prices 查询作物价格，作物为空时直接返回空列表
func (l *InsightLogic) Prices(ctx context.Context, products []string, days int) ([]provider.MarketPrices, error) {
	products = cleanCrops(products)
	if len(products) == 0 {
		return []provider.MarketPrices{}, nil
	}
	if days <= 0 {
		days = defaultPriceDays
	}

	return l.prices.Do(ctx, priceKey(products), func(ctx context.Context) ([]provider.MarketPrices, error) {
		return l.source.Prices(ctx, products, days)
	})
}

// FarmPrices 当前农户所有农场作物的价格
func (l *InsightLogic) FarmPrices(ctx context.Context, session model.Session, days int) ([]provider.MarketPrices, error) {
	farms, err := l.farms.List(ctx, session)
	if err != nil {
		return nil, err
	}
	var crops []string
	for _, f := range farms {
		crops = append(crops, f.CropTypes...)
	}
	return l.Prices(ctx, crops, days)
}

// Close 取消所有进行中的查询
func (l *InsightLogic) Close() {
	l.parameters.Close()
	l.prices.Close()
}

func priceKey(products []string) string {
	sorted := append([]string(nil), products...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

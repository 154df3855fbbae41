package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blues/antugrow/internal/keyed"
	"github.com/blues/antugrow/internal/logger"
	"github.com/blues/antugrow/internal/metrics"
	"github.com/blues/antugrow/internal/model"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

const defaultWeatherWorkers = 4

// FarmWeather 农场列表与天气采集
type FarmWeather interface {
	All(ctx context.Context) ([]model.FarmModel, error)
	RefreshWeather(ctx context.Context, farm model.FarmModel) error
}

// WeatherRefreshJob 定时重新采集所有农场天气，每个农场只保留最新一次采集
type WeatherRefreshJob struct {
	farms    FarmWeather
	interval time.Duration
	timeout  time.Duration
	workers  int
	runner   *keyed.Runner[struct{}]
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// NewWeatherRefreshJob 创建天气刷新任务，workers 为同时采集的农场数
func NewWeatherRefreshJob(farms FarmWeather, interval time.Duration, workers int, m *metrics.Metrics) *WeatherRefreshJob {
	if workers <= 0 {
		workers = defaultWeatherWorkers
	}
	j := &WeatherRefreshJob{
		farms:    farms,
		interval: interval,
		timeout:  2 * time.Minute,
		workers:  workers,
		runner:   keyed.NewRunner[struct{}](),
		metrics:  m,
	}
	j.log = logger.With(zap.String("job", j.GetName()))
	return j
}

// GetName 获取任务名称
func (j *WeatherRefreshJob) GetName() string {
	return "weather-refresh"
}

// GetSchedule 获取调度配置
func (j *WeatherRefreshJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *WeatherRefreshJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	farms, err := j.farms.All(ctx)
	if err != nil {
		j.metrics.JobRan(j.GetName(), err)
		j.log.Error("Failed to list farms for weather refresh: %v", err)
		return
	}
	if len(farms) == 0 {
		j.metrics.JobRan(j.GetName(), nil)
		return
	}

	size := j.workers
	if len(farms) < size {
		size = len(farms)
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		j.metrics.JobRan(j.GetName(), err)
		j.log.Error("Failed to create pool for %d farms: %v", len(farms), err)
		return
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		failed int32
	)
	for _, farm := range farms {
		farm := farm
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if err := j.refresh(ctx, farm); err != nil {
				atomic.AddInt32(&failed, 1)
				j.log.Warn("Weather refresh for farm %s failed: %v", farm.ID, err)
			}
		}); err != nil {
			wg.Done()
			atomic.AddInt32(&failed, 1)
			j.log.Error("Failed to submit weather refresh for farm %s: %v", farm.ID, err)
		}
	}
	wg.Wait()

	if n := atomic.LoadInt32(&failed); n > 0 {
		j.metrics.JobRan(j.GetName(), fmt.Errorf("%d of %d farms failed", n, len(farms)))
		return
	}
	j.metrics.JobRan(j.GetName(), nil)
	j.log.Debug("Weather refreshed for %d farms", len(farms))
}

// refresh 同一农场的新采集会取消旧采集
func (j *WeatherRefreshJob) refresh(ctx context.Context, farm model.FarmModel) error {
	_, err := j.runner.Do(ctx, farm.ID, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, j.farms.RefreshWeather(ctx, farm)
	})
	return err
}

// Close 取消进行中的采集
func (j *WeatherRefreshJob) Close() {
	j.runner.Close()
}

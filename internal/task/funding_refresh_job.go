package task

import (
	"context"
	"time"

	"github.com/blues/antugrow/internal/funding"
	"github.com/blues/antugrow/internal/logger"
	"github.com/blues/antugrow/internal/metrics"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// FundingRefresher 众筹视图刷新
type FundingRefresher interface {
	Refresh(ctx context.Context) (funding.Overview, error)
}

// FundingRefreshJob 定时重新读取链上众筹
type FundingRefreshJob struct {
	service  FundingRefresher
	interval time.Duration
	timeout  time.Duration
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// NewFundingRefreshJob 创建众筹刷新任务
func NewFundingRefreshJob(service FundingRefresher, interval time.Duration, m *metrics.Metrics) *FundingRefreshJob {
	j := &FundingRefreshJob{
		service:  service,
		interval: interval,
		timeout:  time.Minute,
		metrics:  m,
	}
	j.log = logger.With(zap.String("job", j.GetName()))
	return j
}

// GetName 获取任务名称
func (j *FundingRefreshJob) GetName() string {
	return "funding-refresh"
}

// GetSchedule 获取调度配置
func (j *FundingRefreshJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *FundingRefreshJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	overview, err := j.service.Refresh(ctx)
	j.metrics.JobRan(j.GetName(), err)
	if err != nil {
		j.log.Error("Funding refresh failed, keeping previous view: %v", err)
		return
	}
	j.log.Debug("Funding refresh completed: %d ongoing, %d funded", len(overview.Ongoing), len(overview.Funded))
}

package task

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blues/antugrow/internal/funding"
	"github.com/blues/antugrow/internal/metrics"
	"github.com/blues/antugrow/internal/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	calls atomic.Int32
	err   error
}

func (f *fakeRefresher) Refresh(context.Context) (funding.Overview, error) {
	f.calls.Add(1)
	return funding.Overview{}, f.err
}

type fakeFarms struct {
	mu        sync.Mutex
	farms     []model.FarmModel
	listErr   error
	failFor   string
	refreshed []string
	delay     time.Duration
	inflight  int
	peak      int
}

func (f *fakeFarms) All(context.Context) ([]model.FarmModel, error) {
	return f.farms, f.listErr
}

func (f *fakeFarms) RefreshWeather(_ context.Context, farm model.FarmModel) error {
	f.mu.Lock()
	f.inflight++
	if f.inflight > f.peak {
		f.peak = f.inflight
	}
	f.mu.Unlock()
	time.Sleep(f.delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight--
	f.refreshed = append(f.refreshed, farm.ID)
	if farm.ID == f.failFor {
		return errors.New("provider down")
	}
	return nil
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestFundingRefreshJob(t *testing.T) {
	m := metrics.New()
	refresher := &fakeRefresher{}
	job := NewFundingRefreshJob(refresher, time.Minute, m)

	assert.Equal(t, "funding-refresh", job.GetName())
	job.Execute()
	refresher.err = errors.New("rpc down")
	job.Execute()

	assert.Equal(t, int32(2), refresher.calls.Load())
	body := scrape(t, m)
	assert.Contains(t, body, `antugrow_job_runs_total{job="funding-refresh",result="ok"} 1`)
	assert.Contains(t, body, `antugrow_job_runs_total{job="funding-refresh",result="error"} 1`)
}

func TestWeatherRefreshJob(t *testing.T) {
	m := metrics.New()
	farms := &fakeFarms{farms: []model.FarmModel{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	job := NewWeatherRefreshJob(farms, time.Hour, 2, m)
	defer job.Close()

	job.Execute()
	assert.ElementsMatch(t, []string{"a", "b", "c"}, farms.refreshed)
	assert.Contains(t, scrape(t, m), `antugrow_job_runs_total{job="weather-refresh",result="ok"} 1`)

	farms.failFor = "b"
	job.Execute()
	assert.Len(t, farms.refreshed, 6)
	assert.Contains(t, scrape(t, m), `antugrow_job_runs_total{job="weather-refresh",result="error"} 1`)

	farms.listErr = errors.New("db closed")
	job.Execute()
	assert.Len(t, farms.refreshed, 6)
	assert.Contains(t, scrape(t, m), `antugrow_job_runs_total{job="weather-refresh",result="error"} 2`)

	count, err := testutil.GatherAndCount(m.Gatherer(), "antugrow_job_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestWeatherRefreshJobBoundsConcurrency(t *testing.T) {
	farms := &fakeFarms{delay: 20 * time.Millisecond}
	for i := 0; i < 8; i++ {
		farms.farms = append(farms.farms, model.FarmModel{ID: fmt.Sprintf("farm-%d", i)})
	}
	job := NewWeatherRefreshJob(farms, time.Hour, 3, nil)
	defer job.Close()

	job.Execute()
	assert.Len(t, farms.refreshed, 8)
	assert.LessOrEqual(t, farms.peak, 3)
	assert.GreaterOrEqual(t, farms.peak, 1)

	empty := NewWeatherRefreshJob(&fakeFarms{}, time.Hour, 0, nil)
	defer empty.Close()
	assert.Equal(t, defaultWeatherWorkers, empty.workers)
	assert.NotPanics(t, empty.Execute)
}

func TestManagerRunsJobs(t *testing.T) {
	refresher := &fakeRefresher{}
	farms := &fakeFarms{farms: []model.FarmModel{{ID: "a"}}}
	weather := NewWeatherRefreshJob(farms, 20*time.Millisecond, 1, nil)

	manager, err := NewManager(NewFundingRefreshJob(refresher, 20*time.Millisecond, nil), weather)
	require.NoError(t, err)
	manager.Start()

	assert.Eventually(t, func() bool {
		farms.mu.Lock()
		defer farms.mu.Unlock()
		return refresher.calls.Load() >= 2 && len(farms.refreshed) >= 2
	}, 3*time.Second, 10*time.Millisecond)

	manager.Stop()
	calls := refresher.calls.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, calls, refresher.calls.Load())
}

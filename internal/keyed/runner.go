package keyed

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded 同一 key 已有更新的任务，本次结果被丢弃
var ErrSuperseded = errors.New("superseded by a newer request")

// Func 一次可取消的任务
type Func[T any] func(ctx context.Context) (T, error)

// Result 某个 key 最近一次被采纳的结果
type Result[T any] struct {
	Value     T
	Err       error
	Seq       uint64
	UpdatedAt time.Time
}

type task struct {
	seq    uint64
	cancel context.CancelFunc
}

// Runner 按 key 执行异步任务，同一 key 只采纳最新一次任务的结果。
// 新任务启动时取消同 key 的旧任务。
type Runner[T any] struct {
	base context.Context
	stop context.CancelFunc

	mu       sync.Mutex
	seq      uint64
	inflight map[string]task
	results  map[string]Result[T]
	wg       sync.WaitGroup
}

// NewRunner 创建任务执行器
func NewRunner[T any]() *Runner[T] {
	base, stop := context.WithCancel(context.Background())
	return &Runner[T]{
		base:     base,
		stop:     stop,
		inflight: make(map[string]task),
		results:  make(map[string]Result[T]),
	}
}

// Do 同步执行任务；执行期间被同 key 的新任务取代时返回 ErrSuperseded
func (r *Runner[T]) Do(ctx context.Context, key string, fn Func[T]) (T, error) {
	taskCtx, seq := r.start(ctx, key)
	value, err := fn(taskCtx)
	if !r.finish(key, seq, value, err) {
		var zero T
		return zero, ErrSuperseded
	}
	return value, err
}

// Go 异步执行任务，结果通过 Latest 读取
func (r *Runner[T]) Go(key string, fn Func[T]) {
	taskCtx, seq := r.start(r.base, key)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		value, err := fn(taskCtx)
		r.finish(key, seq, value, err)
	}()
}

// Latest 某个 key 最近一次被采纳的结果
func (r *Runner[T]) Latest(key string) (Result[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result, ok := r.results[key]
	return result, ok
}

// Pending 某个 key 是否有任务在执行
func (r *Runner[T]) Pending(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inflight[key]
	return ok
}

// Wait 等待所有异步任务结束
func (r *Runner[T]) Wait() {
	r.wg.Wait()
}

// Close 取消全部任务并等待异步任务退出
func (r *Runner[T]) Close() {
	r.stop()
	r.mu.Lock()
	for _, t := range r.inflight {
		t.cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Runner[T]) start(parent context.Context, key string) (context.Context, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.inflight[key]; ok {
		prev.cancel()
	}

	r.seq++
	ctx, cancel := context.WithCancel(parent)
	r.inflight[key] = task{seq: r.seq, cancel: cancel}
	return ctx, r.seq
}

// finish 只有序号仍是该 key 最新的任务才会写入结果
func (r *Runner[T]) finish(key string, seq uint64, value T, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.inflight[key]
	if !ok || current.seq != seq {
		return false
	}
	current.cancel()
	delete(r.inflight, key)
	r.results[key] = Result[T]{Value: value, Err: err, Seq: seq, UpdatedAt: time.Now()}
	return true
}

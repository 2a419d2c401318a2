package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Aggregator 并发执行已登记的检查项并汇总
type Aggregator struct {
	timeout  time.Duration
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewAggregator 创建聚合器，timeout <= 0 时使用默认值
func NewAggregator(cfg Config) *Aggregator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Aggregator{
		timeout:  cfg.Timeout,
		checkers: make(map[string]Checker),
	}
}

// Register 登记检查项，同名覆盖
func (a *Aggregator) Register(checker Checker) {
	if checker == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkers[checker.Name()] = checker
}

// Names 已登记的检查项名称（排序）
func (a *Aggregator) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, len(a.checkers))
	for name := range a.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check 执行全部检查项
// 任一项失败为 unhealthy；仅有超时项时为 degraded
func (a *Aggregator) Check(ctx context.Context) *Report {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.mu.RLock()
	checkers := make([]Checker, 0, len(a.checkers))
	for _, c := range a.checkers {
		checkers = append(checkers, c)
	}
	a.mu.RUnlock()

	results := make([]CheckResult, len(checkers))
	var g errgroup.Group
	for i, c := range checkers {
		g.Go(func() error {
			results[i] = checkOne(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{
		Status:    StatusHealthy,
		Timestamp: start,
		Checks:    make(map[string]CheckResult, len(results)),
	}
	for _, r := range results {
		report.Checks[r.Name] = r
		switch {
		case r.Status == StatusUnhealthy:
			report.Status = StatusUnhealthy
		case r.Status == StatusDegraded && report.Status == StatusHealthy:
			report.Status = StatusDegraded
		}
	}
	report.Duration = time.Since(start)
	return report
}

func checkOne(ctx context.Context, c Checker) CheckResult {
	start := time.Now()
	err := c.Check(ctx)
	r := CheckResult{Name: c.Name(), Status: StatusHealthy, Duration: time.Since(start)}
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		r.Status = StatusDegraded
		r.Error = err.Error()
	default:
		r.Status = StatusUnhealthy
		r.Error = err.Error()
	}
	return r
}

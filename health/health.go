// Package health 聚合各组件的健康检查结果
package health

import (
	"time"

	"github.com/KOMKZ/go-yogan-inject/component"
)

// Status 健康状态
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded" // 部分检查项未在超时内完成
	StatusUnhealthy Status = "unhealthy"
)

// Checker 即 component.HealthChecker
type Checker = component.HealthChecker

// CheckResult 单个检查项的结果
type CheckResult struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report 一次聚合检查的结果
type Report struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Duration  time.Duration          `json:"duration"`
	Checks    map[string]CheckResult `json:"checks"`
}

// IsHealthy 所有检查项均通过
func (r *Report) IsHealthy() bool {
	return r.Status == StatusHealthy
}

package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-dose-reminder/internal/service/reconcile"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

type CheckResult struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// PlannerInfo summarizes the reconciler. It is informational and never
// makes the service unready.
type PlannerInfo struct {
	Running       bool       `json:"running"`
	Pending       bool       `json:"pending"`
	Signature     string     `json:"signature,omitempty"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	LastRunStatus Status     `json:"last_run_status,omitempty"`
	LastRunError  string     `json:"last_run_error,omitempty"`
}

type HealthStatus struct {
	Status  Status                 `json:"status"`
	Version string                 `json:"version,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
	Planner *PlannerInfo           `json:"planner,omitempty"`
}

type SnapshotProvider interface {
	Snapshot() reconcile.Snapshot
}

// Checker reports liveness and readiness of the service.
type Checker struct {
	redisClient *redis.Client
	planner     SnapshotProvider
	version     string
}

func NewChecker(redisClient *redis.Client, planner SnapshotProvider, version string) *Checker {
	return &Checker{
		redisClient: redisClient,
		planner:     planner,
		version:     version,
	}
}

func (c *Checker) Check(ctx context.Context) *HealthStatus {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := &HealthStatus{
		Status:  StatusHealthy,
		Version: c.version,
		Checks:  make(map[string]CheckResult),
	}

	if c.redisClient != nil {
		start := time.Now()
		if err := c.redisClient.Ping(checkCtx).Err(); err != nil {
			status.Status = StatusUnhealthy
			status.Checks["redis"] = CheckResult{
				Status: StatusUnhealthy,
				Error:  err.Error(),
			}
		} else {
			status.Checks["redis"] = CheckResult{
				Status:    StatusHealthy,
				LatencyMs: time.Since(start).Milliseconds(),
			}
		}
	}

	if c.planner != nil {
		status.Planner = plannerInfo(c.planner.Snapshot())
	}

	return status
}

func plannerInfo(snap reconcile.Snapshot) *PlannerInfo {
	info := &PlannerInfo{
		Running:   snap.Running,
		Pending:   snap.Pending,
		Signature: snap.Signature,
	}

	if last := snap.LastResult; last != nil {
		startedAt := last.StartedAt
		info.LastRunAt = &startedAt
		info.LastRunStatus = StatusHealthy
		if last.Error != "" {
			info.LastRunStatus = StatusUnhealthy
			info.LastRunError = last.Error
		}
	}

	return info
}

func (c *Checker) LiveHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func (c *Checker) ReadyHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		status := c.Check(ctx.Request.Context())

		httpStatus := http.StatusOK
		if status.Status != StatusHealthy {
			httpStatus = http.StatusServiceUnavailable
		}

		ctx.JSON(httpStatus, status)
	}
}

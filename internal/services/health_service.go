package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"nexusprep/internal/learning"
	"nexusprep/internal/operations"
)

// ClientCounter reports connected progress subscribers.
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	manager   *operations.Manager
	store     learning.Store
	hub       ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. store and hub may be nil.
func NewHealthService(version string, manager *operations.Manager, store learning.Store, hub ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		manager:   manager,
		store:     store,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With("component", "health"),
	}
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"pipeline":  hs.checkPipeline(),
			"learning":  hs.checkLearning(ctx),
			"websocket": hs.checkWebSocket(),
		},
	}
	for name, sh := range status.Services {
		if sh.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "readiness_check_failed",
				slog.String("service", name),
				slog.String("message", sh.Message))
		}
	}
	return status
}

func (hs *HealthService) checkPipeline() ServiceHealth {
	if hs.manager == nil {
		return ServiceHealth{Status: "not_ready", Message: "pipeline manager not initialized"}
	}
	if err := hs.manager.GetRegistry().ValidateDependencies(); err != nil {
		return ServiceHealth{Status: "not_ready", Message: err.Error()}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d stages registered", hs.manager.GetRegistry().Count()),
	}
}

func (hs *HealthService) checkLearning(ctx context.Context) ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: "ready", Message: "firm taxonomy disabled"}
	}
	if _, err := hs.store.List(ctx, ""); err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("firm taxonomy store error: %v", err)}
	}
	return ServiceHealth{Status: "ready"}
}

func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "ready", Message: "progress events disabled"}
	}
	return ServiceHealth{Status: "ready", Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount())}
}

package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Checker is a single dependency probe
type Checker interface {
	HealthCheck(ctx context.Context) error
	IsCritical() bool
	Name() string
}

// Manager runs registered checkers
type Manager struct {
	checkers []Checker
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewManager creates a new health manager
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		checkers: make([]Checker, 0),
		logger:   logger,
	}
}

// AddChecker adds a health checker to the manager
func (m *Manager) AddChecker(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, checker)
}

// StartupHealthCheck performs critical health checks that must pass for startup
func (m *Manager) StartupHealthCheck(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var criticalFailures []error

	for _, checker := range m.checkers {
		err := checker.HealthCheck(ctx)
		switch {
		case err == nil:
			m.logger.Info("Service health check passed",
				zap.String("service", checker.Name()),
				zap.Bool("critical", checker.IsCritical()))
		case checker.IsCritical():
			criticalFailures = append(criticalFailures, fmt.Errorf("%s: %w", checker.Name(), err))
			m.logger.Error("Critical service health check failed",
				zap.String("service", checker.Name()),
				zap.Error(err))
		default:
			m.logger.Warn("Non-critical service health check failed",
				zap.String("service", checker.Name()),
				zap.Error(err))
		}
	}

	if len(criticalFailures) > 0 {
		return fmt.Errorf("critical services failed health check: %v", criticalFailures)
	}

	m.logger.Info("All critical services healthy", zap.Int("total_checks", len(m.checkers)))
	return nil
}

// RuntimeHealthCheck runs every checker and reports each result by name
func (m *Manager) RuntimeHealthCheck(ctx context.Context) (map[string]error, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	healthy := true
	results := make(map[string]error, len(m.checkers))
	for _, checker := range m.checkers {
		err := checker.HealthCheck(ctx)
		results[checker.Name()] = err
		if err != nil && checker.IsCritical() {
			healthy = false
		}
	}

	return results, healthy
}

// Handler serves the runtime health check as JSON
func (m *Manager) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results, healthy := m.RuntimeHealthCheck(c.Request.Context())

		services := gin.H{}
		for name, err := range results {
			if err != nil {
				services[name] = err.Error()
			} else {
				services[name] = "healthy"
			}
		}

		status, code := "healthy", http.StatusOK
		if !healthy {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"services":  services,
		})
	}
}

// FuncChecker adapts a probe function to Checker
type FuncChecker struct {
	name     string
	critical bool
	check    func(ctx context.Context) error
}

// NewFuncChecker creates a checker named name around check
func NewFuncChecker(name string, critical bool, check func(ctx context.Context) error) *FuncChecker {
	return &FuncChecker{name: name, critical: critical, check: check}
}

func (f *FuncChecker) HealthCheck(ctx context.Context) error {
	return f.check(ctx)
}

func (f *FuncChecker) IsCritical() bool {
	return f.critical
}

func (f *FuncChecker) Name() string {
	return f.name
}

// ConfigHealthChecker checks configuration validity
type ConfigHealthChecker struct {
	config interface{}
}

// NewConfigHealthChecker creates a config health checker
func NewConfigHealthChecker(config interface{}) *ConfigHealthChecker {
	return &ConfigHealthChecker{config: config}
}

func (c *ConfigHealthChecker) HealthCheck(ctx context.Context) error {
	if c.config == nil {
		return fmt.Errorf("configuration is nil")
	}
	return nil
}

func (c *ConfigHealthChecker) IsCritical() bool {
	return true
}

func (c *ConfigHealthChecker) Name() string {
	return "configuration"
}

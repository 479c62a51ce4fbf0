package health

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jacobolevy/smartling-mcp-server-sub002/breaker"
)

func TestStatusConstructors(t *testing.T) {
	healthy := NewHealthy("cache", "operating normally")
	assert.True(t, healthy.IsHealthy())
	assert.True(t, healthy.Healthy)
	assert.Equal(t, "cache", healthy.Component)
	assert.NotZero(t, healthy.Timestamp)

	degraded := NewDegraded("api", "elevated latency")
	assert.True(t, degraded.IsDegraded())
	assert.False(t, degraded.Healthy)

	unhealthy := NewUnhealthy("db", "connection refused")
	assert.True(t, unhealthy.IsUnhealthy())
	assert.False(t, unhealthy.Healthy)
}

func TestWithSubStatusIsolation(t *testing.T) {
	original := NewHealthy("parent", "ok").
		WithSubStatus(NewHealthy("child1", "ok"))

	modified := original.WithSubStatus(NewDegraded("child2", "slow"))

	assert.Len(t, original.SubStatuses, 1, "WithSubStatus must not mutate the receiver")
	assert.Len(t, modified.SubStatuses, 2)
}

func TestAggregateRules(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		expected string
	}{
		{"all healthy", []Status{NewHealthy("a", ""), NewHealthy("b", "")}, "healthy"},
		{"one degraded", []Status{NewHealthy("a", ""), NewDegraded("b", "")}, "degraded"},
		{"one unhealthy", []Status{NewDegraded("a", ""), NewUnhealthy("b", "")}, "unhealthy"},
		{"empty", nil, "healthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Aggregate("system", tt.statuses)
			assert.Equal(t, tt.expected, result.Status)
			assert.Len(t, result.SubStatuses, len(tt.statuses))
		})
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "Unix file path",
			input:    "failed to open /etc/toolkit/config.json",
			expected: "failed to open [PATH]",
		},
		{
			name:     "Windows file path",
			input:    "cannot read C:\\Users\\Admin\\config.json",
			expected: "cannot read [PATH]",
		},
		{
			name:     "HTTP URL",
			input:    "connection failed to https://api.smartling.com/files-api/v2",
			expected: "connection failed to [URL]",
		},
		{
			name:     "IP address",
			input:    "timeout connecting to 192.168.1.100",
			expected: "timeout connecting to [IP]",
		},
		{
			name:     "Port number",
			input:    "failed to bind to :8080",
			expected: "failed to bind to [PORT]",
		},
		{
			name:     "Credentials in error",
			input:    "auth failed with password:secretpass123",
			expected: "auth failed with [REDACTED]",
		},
		{
			name:     "Multiple sensitive items",
			input:    "failed to connect to https://192.168.1.1:8080/api with token=abc123def",
			expected: "failed to connect to [URL] with [REDACTED]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeErrorMessage(tt.input))
		})
	}
}

func TestFromErrorSanitizes(t *testing.T) {
	err := fmt.Errorf("request to https://api.example.com failed: password=hunter2")
	status := FromError("client", err)

	assert.True(t, status.IsUnhealthy())
	assert.NotContains(t, status.Message, "api.example.com")
	assert.NotContains(t, status.Message, "hunter2")

	nilStatus := FromError("client", nil)
	assert.Equal(t, "unknown error", nilStatus.Message)
}

func newBreakerForTest(t *testing.T) *breaker.Breaker {
	t.Helper()
	cfg := breaker.DefaultConfig()
	cfg.AdaptiveThreshold = false
	cfg.HealthThreshold = 0
	b, err := breaker.New("files-api", cfg)
	require.NoError(t, err)
	return b
}

func TestFromBreakerStatus(t *testing.T) {
	b := newBreakerForTest(t)

	status := FromBreakerStatus(b.Status())
	assert.True(t, status.IsHealthy())
	assert.Equal(t, "files-api", status.Component)
	require.NotNil(t, status.Metrics)

	open := FromBreakerStatus(breaker.Status{
		Name:      "files-api",
		State:     breaker.StateOpen.String(),
		TripCount: 2,
	})
	assert.True(t, open.IsUnhealthy())

	probing := FromBreakerStatus(breaker.Status{
		Name:  "files-api",
		State: breaker.StateHalfOpen.String(),
	})
	assert.True(t, probing.IsDegraded())
}

func TestMonitorUpdateAndGet(t *testing.T) {
	monitor := NewMonitor()

	monitor.UpdateHealthy("cache", "ok")
	monitor.UpdateDegraded("api", "slow")

	status, exists := monitor.Get("cache")
	require.True(t, exists)
	assert.True(t, status.IsHealthy())
	assert.Equal(t, "cache", status.Component)

	_, exists = monitor.Get("missing")
	assert.False(t, exists)

	assert.Equal(t, 2, monitor.Count())
	assert.Equal(t, []string{"api", "cache"}, monitor.ListComponents())
}

func TestMonitorUpdateSetsTimestamp(t *testing.T) {
	monitor := NewMonitor()
	monitor.Update("cache", Status{Status: "healthy", Healthy: true})

	status, exists := monitor.Get("cache")
	require.True(t, exists)
	assert.Equal(t, "cache", status.Component)
	assert.False(t, status.Timestamp.IsZero())
	assert.WithinDuration(t, time.Now(), status.Timestamp, time.Second)
}

func TestMonitorAggregateHealth(t *testing.T) {
	monitor := NewMonitor()
	monitor.UpdateHealthy("cache", "ok")
	monitor.UpdateUnhealthy("api", "down")

	system := monitor.AggregateHealth("toolkit")
	assert.True(t, system.IsUnhealthy())
	assert.Equal(t, "toolkit", system.Component)
	require.Len(t, system.SubStatuses, 2)
	// sorted by component name
	assert.Equal(t, "api", system.SubStatuses[0].Component)
	assert.Equal(t, "cache", system.SubStatuses[1].Component)
}

func TestMonitorRemoveAndClear(t *testing.T) {
	monitor := NewMonitor()
	monitor.UpdateHealthy("a", "ok")
	monitor.UpdateHealthy("b", "ok")

	monitor.Remove("a")
	assert.Equal(t, 1, monitor.Count())

	monitor.Clear()
	assert.Equal(t, 0, monitor.Count())
}

func TestMonitorConcurrentAccess(t *testing.T) {
	monitor := NewMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			name := fmt.Sprintf("component-%d", n%5)
			monitor.UpdateHealthy(name, "ok")
			monitor.Get(name)
			monitor.AggregateHealth("system")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, monitor.Count())
}

func TestMonitorGetAllIsCopy(t *testing.T) {
	monitor := NewMonitor()
	monitor.UpdateHealthy("cache", "ok")

	all := monitor.GetAll()
	all["cache"] = NewUnhealthy("cache", "mutated")

	status, _ := monitor.Get("cache")
	assert.True(t, status.IsHealthy(), "GetAll must return a defensive copy")
}

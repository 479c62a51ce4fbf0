package health

import (
	"fmt"
	"time"
)

// Well-known status values.
const (
	StateHealthy   = "healthy"
	StateDegraded  = "degraded"
	StateUnhealthy = "unhealthy"
)

func newStatus(component, state, message string) Status {
	return Status{
		Component: component,
		Healthy:   state == StateHealthy,
		Status:    state,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewHealthy creates a new healthy status
func NewHealthy(component, message string) Status {
	return newStatus(component, StateHealthy, message)
}

// NewUnhealthy creates a new unhealthy status
func NewUnhealthy(component, message string) Status {
	return newStatus(component, StateUnhealthy, message)
}

// NewDegraded creates a new degraded status
func NewDegraded(component, message string) Status {
	return newStatus(component, StateDegraded, message)
}

// severity orders states for aggregation; higher is worse.
func severity(s Status) int {
	switch {
	case s.IsUnhealthy():
		return 2
	case s.IsDegraded():
		return 1
	default:
		return 0
	}
}

// Aggregate creates a status by aggregating sub-statuses. The aggregate
// takes the worst state present: any unhealthy sub-status makes the
// aggregate unhealthy, otherwise any degraded sub-status makes it degraded,
// otherwise it is healthy. An empty slice aggregates to healthy.
func Aggregate(component string, subStatuses []Status) Status {
	if len(subStatuses) == 0 {
		return NewHealthy(component, "No sub-components to aggregate")
	}

	worst := 0
	affected := 0
	for _, sub := range subStatuses {
		if rank := severity(sub); rank > worst {
			worst = rank
			affected = 1
		} else if rank == worst && rank > 0 {
			affected++
		}
	}

	var status Status
	switch worst {
	case 2:
		status = NewUnhealthy(component, fmt.Sprintf("%d of %d sub-components unhealthy", affected, len(subStatuses)))
	case 1:
		status = NewDegraded(component, fmt.Sprintf("%d of %d sub-components degraded", affected, len(subStatuses)))
	default:
		status = NewHealthy(component, fmt.Sprintf("all %d sub-components healthy", len(subStatuses)))
	}

	status.SubStatuses = make([]Status, len(subStatuses))
	copy(status.SubStatuses, subStatuses)

	return status
}

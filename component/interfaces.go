package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a lifecycle-managed part of a minispark process.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start brings the component up. It is called once.
	Start(ctx context.Context) error

	// Stop shuts the component down and releases its resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Description is a one-line summary a component reports about its setup.
type Description struct {
	// Type categorizes the component: "engine", "telemetry".
	Type string
	// Details is shown in the startup log, e.g. "workers=8 queue=1024".
	Details string
}

// Describable is optionally implemented by Components to describe
// themselves in the startup log.
type Describable interface {
	Describe() Description
}

// Package component defines the lifecycle contract shared by the engine and
// the telemetry providers, and a Registry that starts them in registration
// order and stops them in reverse.
package component

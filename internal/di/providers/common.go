// Package providers contains dependency injection providers for dynamo.
package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of
	// a component.
	shutdownTimeout = 30 * time.Second
)

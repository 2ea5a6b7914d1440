package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// reconcileInterval is how often usage counters are checked against the
	// association table.
	reconcileInterval = 6 * time.Hour
)

// Version is the server version reported in the OpenAPI document.
// Set at build time with -ldflags "-X .../providers.Version=...".
var Version = "dev"

// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/trackhub/internal/app/system/timeouts"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like ports, TLS,
// logging level and request limits. Everything specific to TrackHub lives
// here and is passed to each lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: trackhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// CSRF token key; 32 bytes. Blank outside prod uses a fixed dev key.
	CSRFKey string

	// Task vocabularies and list paging
	TaskStatuses []string
	TaskTypes    []string
	TasksPerPage int
	TasksOrphans int

	// Optional YAML file overriding which groups may use each route.
	RouteGroupsFile string

	// Add the creator of a project to its member set.
	AutoJoinProjectCreator bool

	// Username granted "Project Manager" at startup, if that user exists.
	BootstrapManager string

	// Login attempts allowed per client IP per minute.
	LoginRateLimit int

	// Take the client address from X-Forwarded-For / X-Real-IP. Enable only
	// behind a reverse proxy that sets those headers itself.
	TrustProxyHeaders bool

	// Deadlines for store calls; zero keeps the package default.
	Timeouts timeouts.Config

	// Audit logging: "all", "db", "log" or "off" per category.
	AuditLogAuth  string
	AuditLogAdmin string

	// Retention for login records and audit events; zero keeps them forever.
	LoginRecordRetention time.Duration
	AuditRetention       time.Duration
	RetentionInterval    time.Duration
}

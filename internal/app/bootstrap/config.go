// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/trackhub/internal/app/system/auditlog"
	"github.com/dalemusser/trackhub/internal/app/system/timeouts"
	"github.com/dalemusser/trackhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for TrackHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: TRACKHUB_MONGO_URI, TRACKHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "trackhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "trackhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "336h", Desc: "Session cookie lifetime (e.g., 24h, 336h)"},
	{Name: "csrf_key", Default: "", Desc: "32-byte CSRF token key (required in production)"},

	// Tasks
	{Name: "task_statuses", Default: "New,In Progress,Done", Desc: "Comma-separated task statuses"},
	{Name: "task_types", Default: "Task,Bug,Enhancement", Desc: "Comma-separated task types"},
	{Name: "tasks_per_page", Default: 3, Desc: "Tasks per page on the task list"},
	{Name: "tasks_orphans", Default: 1, Desc: "Trailing tasks folded into the previous page"},

	// Authorization
	{Name: "route_groups_file", Default: "", Desc: "YAML file overriding the groups allowed per route"},
	{Name: "auto_join_project_creator", Default: true, Desc: "Add a project's creator to its members"},
	{Name: "bootstrap_manager", Default: "", Desc: "Username granted Project Manager at startup"},

	// Login throttling
	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts per client IP per minute"},
	{Name: "trust_proxy_headers", Default: false, Desc: "Use X-Forwarded-For/X-Real-IP as the client address (only behind a trusted proxy)"},

	// Store call deadlines
	{Name: "timeout_ping", Default: "2s", Desc: "Deadline for database pings"},
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document reads and writes"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for list queries and batch writes"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Retention
	{Name: "login_record_retention", Default: "2160h", Desc: "Delete login records older than this (0 keeps them)"},
	{Name: "audit_retention", Default: "8760h", Desc: "Delete audit events older than this (0 keeps them)"},
	{Name: "retention_interval", Default: "1h", Desc: "How often the retention sweep runs"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, TRACKHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TRACKHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 14*24*time.Hour),
		CSRFKey:          appValues.String("csrf_key"),

		// Tasks
		TaskStatuses: models.ParseVocabList(appValues.String("task_statuses")),
		TaskTypes:    models.ParseVocabList(appValues.String("task_types")),
		TasksPerPage: appValues.Int("tasks_per_page"),
		TasksOrphans: appValues.Int("tasks_orphans"),

		// Authorization
		RouteGroupsFile:        appValues.String("route_groups_file"),
		AutoJoinProjectCreator: appValues.Bool("auto_join_project_creator"),
		BootstrapManager:       appValues.String("bootstrap_manager"),

		LoginRateLimit:    appValues.Int("login_rate_limit"),
		TrustProxyHeaders: appValues.Bool("trust_proxy_headers"),
		Timeouts: timeouts.Config{
			Ping:   appValues.Duration("timeout_ping", timeouts.DefaultPing),
			Short:  appValues.Duration("timeout_short", timeouts.DefaultShort),
			Medium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
		},

		// Audit logging
		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		// Retention
		LoginRecordRetention: appValues.Duration("login_record_retention", 90*24*time.Hour),
		AuditRetention:       appValues.Duration("audit_retention", 365*24*time.Hour),
		RetentionInterval:    appValues.Duration("retention_interval", time.Hour),
	}
	configureTimeouts(appCfg.Timeouts, logger)

	return coreCfg, appCfg, nil
}

// configureTimeouts installs the store deadlines every handler reads through
// the timeouts package.
func configureTimeouts(cfg timeouts.Config, logger *zap.Logger) {
	timeouts.Configure(cfg)
	cur := timeouts.Current()
	logger.Info("store timeouts configured",
		zap.Duration("ping", cur.Ping),
		zap.Duration("short", cur.Short),
		zap.Duration("medium", cur.Medium))
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Every problem found is reported, not just the first.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	var errs []error

	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		errs = append(errs, fmt.Errorf("invalid MongoDB URI: %w", err))
	}
	if appCfg.MongoDatabase == "" {
		errs = append(errs, errors.New("mongo_database must be set"))
	}

	prod := coreCfg != nil && coreCfg.Env == "prod"
	if prod {
		if len(appCfg.SessionKey) < 32 || appCfg.SessionKey == devSessionKey {
			errs = append(errs, errors.New("session_key must be a strong value of at least 32 characters in production"))
		}
		if len(appCfg.CSRFKey) != 32 {
			errs = append(errs, errors.New("csrf_key must be exactly 32 bytes in production"))
		}
	} else if appCfg.CSRFKey != "" && len(appCfg.CSRFKey) != 32 {
		errs = append(errs, errors.New("csrf_key must be exactly 32 bytes"))
	}

	if len(appCfg.TaskStatuses) == 0 {
		errs = append(errs, errors.New("task_statuses must name at least one status"))
	}
	if len(appCfg.TaskTypes) == 0 {
		errs = append(errs, errors.New("task_types must name at least one type"))
	}
	if appCfg.TasksPerPage < 1 {
		errs = append(errs, fmt.Errorf("tasks_per_page must be positive, got %d", appCfg.TasksPerPage))
	}
	if appCfg.TasksOrphans < 0 {
		errs = append(errs, fmt.Errorf("tasks_orphans must not be negative, got %d", appCfg.TasksOrphans))
	}
	if appCfg.LoginRateLimit < 0 {
		errs = append(errs, fmt.Errorf("login_rate_limit must not be negative, got %d", appCfg.LoginRateLimit))
	}

	if appCfg.Timeouts.Ping < 0 || appCfg.Timeouts.Short < 0 || appCfg.Timeouts.Medium < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}

	if appCfg.LoginRecordRetention < 0 || appCfg.AuditRetention < 0 {
		errs = append(errs, errors.New("retention periods must not be negative"))
	}
	if (appCfg.LoginRecordRetention > 0 || appCfg.AuditRetention > 0) && appCfg.RetentionInterval <= 0 {
		errs = append(errs, errors.New("retention_interval must be positive when a retention period is set"))
	}

	for key, v := range map[string]string{
		"audit_log_auth":  appCfg.AuditLogAuth,
		"audit_log_admin": appCfg.AuditLogAdmin,
	} {
		if !auditlog.ValidSetting(v) {
			errs = append(errs, fmt.Errorf("%s must be one of all, db, log, off; got %q", key, v))
		}
	}

	return errors.Join(errs...)
}

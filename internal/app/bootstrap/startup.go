// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dalemusser/trackhub/internal/app/resources"
	"github.com/dalemusser/trackhub/internal/app/store/audit"
	loginstore "github.com/dalemusser/trackhub/internal/app/store/logins"
	userstore "github.com/dalemusser/trackhub/internal/app/store/users"
	"github.com/dalemusser/trackhub/internal/app/system/auditlog"
	"github.com/dalemusser/trackhub/internal/app/system/workers"
	"github.com/dalemusser/trackhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It loads
// the shared templates, applies the bootstrap_manager grant and starts the
// retention worker.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	auditLog := newAuditLogger(appCfg, deps.MongoDatabase, logger)
	if err := ensureBootstrapManager(ctx, deps, appCfg.BootstrapManager, auditLog, logger); err != nil {
		logger.Error("bootstrap manager grant failed", zap.Error(err))
		return err
	}

	retention = workers.NewRetention(logger, appCfg.RetentionInterval,
		workers.Target{Name: "login_records", Pruner: loginstore.New(deps.MongoDatabase), MaxAge: appCfg.LoginRecordRetention},
		workers.Target{Name: "audit_events", Pruner: audit.New(deps.MongoDatabase), MaxAge: appCfg.AuditRetention},
	)
	if retention.Enabled() {
		retention.Start()
	} else {
		retention = nil
	}
	return nil
}

// retention is stopped by Shutdown; nil when no target is configured.
var retention *workers.Retention

func newAuditLogger(appCfg AppConfig, db *mongo.Database, logger *zap.Logger) *auditlog.Logger {
	return auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
}

// ensureBootstrapManager grants "Project Manager" to the named user. A blank
// name or a user that has not registered yet is not an error; the grant is
// retried on the next start.
func ensureBootstrapManager(ctx context.Context, deps DBDeps, username string, auditLog *auditlog.Logger, logger *zap.Logger) error {
	if username == "" {
		return nil
	}
	users := userstore.New(deps.MongoDatabase)

	u, err := users.GetByUsername(ctx, username)
	if errors.Is(err, userstore.ErrNotFound) {
		logger.Warn("bootstrap manager not registered yet", zap.String("username", username))
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup bootstrap manager: %w", err)
	}
	if slices.Contains(u.Groups, models.GroupProjectManager) {
		return nil
	}

	if err := users.AddGroup(ctx, u.ID, models.GroupProjectManager); err != nil {
		return fmt.Errorf("grant bootstrap manager: %w", err)
	}
	auditLog.GroupGranted(ctx, u.ID, models.GroupProjectManager, "bootstrap_manager")
	logger.Info("granted Project Manager to bootstrap manager",
		zap.String("username", u.Username),
		zap.Int64("user_id", u.ID))
	return nil
}

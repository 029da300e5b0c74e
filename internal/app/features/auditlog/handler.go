// internal/app/features/auditlog/handler.go
package auditlog

import (
	uierrors "github.com/dalemusser/trackhub/internal/app/features/errors"
	"github.com/dalemusser/trackhub/internal/app/store/audit"
	projectstore "github.com/dalemusser/trackhub/internal/app/store/projects"
	userstore "github.com/dalemusser/trackhub/internal/app/store/users"
	"github.com/dalemusser/trackhub/internal/app/system/paging"
	"github.com/dalemusser/trackhub/internal/app/system/routeperm"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const pageSize = 50

// Handler serves the audit trail to Project Managers.
type Handler struct {
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	Events   *audit.Store
	Users    *userstore.Store
	Projects *projectstore.Store
	Perms    *routeperm.Table
	Pager    paging.Paginator
}

// NewHandler constructs an Audit Log feature handler bound to
// the given Mongo database and logger.
func NewHandler(db *mongo.Database, perms *routeperm.Table, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if perms == nil {
		perms = routeperm.Default()
	}
	return &Handler{
		Log:      logger,
		ErrLog:   errLog,
		Events:   audit.New(db),
		Users:    userstore.New(db),
		Projects: projectstore.New(db),
		Perms:    perms,
		Pager:    paging.New(pageSize, 0),
	}
}

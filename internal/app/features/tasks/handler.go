// internal/app/features/tasks/handler.go
package tasks

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/trackhub/internal/app/features/errors"
	membershipstore "github.com/dalemusser/trackhub/internal/app/store/memberships"
	projectstore "github.com/dalemusser/trackhub/internal/app/store/projects"
	taskstore "github.com/dalemusser/trackhub/internal/app/store/tasks"
	"github.com/dalemusser/trackhub/internal/app/system/auditlog"
	"github.com/dalemusser/trackhub/internal/app/system/authz"
	"github.com/dalemusser/trackhub/internal/app/system/normalize"
	"github.com/dalemusser/trackhub/internal/app/system/paging"
	"github.com/dalemusser/trackhub/internal/app/system/routeperm"
	"github.com/dalemusser/trackhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for Tasks.
type Handler struct {
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Tasks    *taskstore.Store
	Projects *projectstore.Store
	Members  *membershipstore.Store
	Perms    *routeperm.Table
	Vocab    models.TaskVocab
	Pager    paging.Paginator
}

func NewHandler(
	db *mongo.Database,
	perms *routeperm.Table,
	vocab models.TaskVocab,
	pager paging.Paginator,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	if perms == nil {
		perms = routeperm.Default()
	}
	return &Handler{
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
		Tasks:    taskstore.New(db),
		Projects: projectstore.New(db),
		Members:  membershipstore.New(db),
		Perms:    perms,
		Vocab:    vocab,
		Pager:    pager,
	}
}

// pathID parses a numeric path parameter. On failure the 404 page has been
// written and ok is false.
func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, ok := normalize.ID(chi.URLParam(r, param))
	if !ok {
		uierrors.RenderNotFound(w, r, "", "/")
	}
	return id, ok
}

// allowed reports whether s passes route's chain. Used to decide which
// action links to show; the target handler runs the chain again.
func (h *Handler) allowed(ctx context.Context, s authz.Subject, route string, scope authz.ProjectResolver) bool {
	return authz.Evaluate(ctx, s, h.Perms.Checks(route, scope, h.Members)...) == nil
}

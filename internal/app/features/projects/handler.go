// internal/app/features/projects/handler.go
package projects

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/trackhub/internal/app/features/errors"
	membershipstore "github.com/dalemusser/trackhub/internal/app/store/memberships"
	projectstore "github.com/dalemusser/trackhub/internal/app/store/projects"
	taskstore "github.com/dalemusser/trackhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/trackhub/internal/app/store/users"
	"github.com/dalemusser/trackhub/internal/app/system/auditlog"
	"github.com/dalemusser/trackhub/internal/app/system/authz"
	"github.com/dalemusser/trackhub/internal/app/system/normalize"
	"github.com/dalemusser/trackhub/internal/app/system/routeperm"
	"github.com/dalemusser/trackhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for Projects and their member sets.
type Handler struct {
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Projects *projectstore.Store
	Members  *membershipstore.Store
	Users    *userstore.Store
	Tasks    *taskstore.Store
	Perms    *routeperm.Table

	// AutoJoinCreator adds whoever creates a project to its member set.
	AutoJoinCreator bool
}

func NewHandler(
	db *mongo.Database,
	perms *routeperm.Table,
	autoJoinCreator bool,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	if perms == nil {
		perms = routeperm.Default()
	}
	return &Handler{
		Log:             logger,
		ErrLog:          errLog,
		AuditLog:        audit,
		Projects:        projectstore.New(db),
		Members:         membershipstore.New(db),
		Users:           userstore.New(db),
		Tasks:           taskstore.New(db),
		Perms:           perms,
		AutoJoinCreator: autoJoinCreator,
	}
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, ok := normalize.ID(chi.URLParam(r, param))
	if !ok {
		uierrors.RenderNotFound(w, r, "", "/project/")
	}
	return id, ok
}

func detailURL(id int64) string {
	return "/project/detail/" + strconv.FormatInt(id, 10)
}

func (h *Handler) allowed(ctx context.Context, s authz.Subject, route string, scope authz.ProjectResolver) bool {
	return authz.Evaluate(ctx, s, h.Perms.Checks(route, scope, h.Members)...) == nil
}

func (h *Handler) loadProject(ctx context.Context, w http.ResponseWriter, r *http.Request, id int64) (*models.Project, bool) {
	p, err := h.Projects.GetByID(ctx, id)
	if errors.Is(err, projectstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "That project does not exist.", "/project/")
		return nil, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load project failed", err, "A database error occurred.", "/project/")
		return nil, false
	}
	return p, true
}

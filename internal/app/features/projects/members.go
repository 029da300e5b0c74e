// internal/app/features/projects/members.go
package projects

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/trackhub/internal/app/features/errors"
	"github.com/dalemusser/trackhub/internal/app/policy/projectpolicy"
	userstore "github.com/dalemusser/trackhub/internal/app/store/users"
	"github.com/dalemusser/trackhub/internal/app/system/authz"
	"github.com/dalemusser/trackhub/internal/app/system/gates"
	"github.com/dalemusser/trackhub/internal/app/system/normalize"
	"github.com/dalemusser/trackhub/internal/app/system/routeperm"
	"github.com/dalemusser/trackhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleAddUsers handles POST /project/{id}/users/add/. The form carries one
// or more "users" values. Every id must name an existing user or nothing is
// added. Users already in the project are skipped.
func (h *Handler) HandleAddUsers(w http.ResponseWriter, r *http.Request) {
	pid, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res := gates.Require(w, r, h.ErrLog, h.memberChecks(routeperm.UsersAdd, pid)...)
	if !res.OK {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", detailURL(pid))
		return
	}

	raw := r.PostForm["users"]
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, ok := normalize.ID(v)
		if !ok {
			uierrors.RenderNotFound(w, r, "That user does not exist.", detailURL(pid))
			return
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		http.Redirect(w, r, detailURL(pid), http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	missing, err := h.Users.MissingIDs(ctx, ids)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check users failed", err, "A database error occurred.", detailURL(pid))
		return
	}
	if len(missing) > 0 {
		h.ErrLog.LogNotFound(w, r, "add users: unknown user ids", "That user does not exist.", detailURL(pid))
		return
	}

	before, err := h.Members.ListUserIDs(ctx, pid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list members failed", err, "A database error occurred.", detailURL(pid))
		return
	}
	already := make(map[int64]bool, len(before))
	for _, uid := range before {
		already[uid] = true
	}

	result, err := h.Members.AddBatch(ctx, pid, ids)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "add members failed", err, "A database error occurred.", detailURL(pid))
		return
	}
	for _, uid := range ids {
		if already[uid] {
			continue
		}
		already[uid] = true
		h.AuditLog.MemberAddedToProject(ctx, r, res.Subject.UserID, uid, pid)
	}
	h.Log.Debug("project members added",
		zap.Int64("project_id", pid),
		zap.Int("added", result.Added),
		zap.Int("duplicates", result.Duplicates))

	http.Redirect(w, r, detailURL(pid), http.StatusSeeOther)
}

// HandleRemoveUser handles POST /project/{id}/user/{uid}/delete/. Removing
// someone who is not a member is a no-op.
func (h *Handler) HandleRemoveUser(w http.ResponseWriter, r *http.Request) {
	pid, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	uid, ok := pathID(w, r, "uid")
	if !ok {
		return
	}
	res := gates.Require(w, r, h.ErrLog, h.memberChecks(routeperm.UserDelete, pid)...)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Users.GetByID(ctx, uid); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			uierrors.RenderNotFound(w, r, "That user does not exist.", detailURL(pid))
			return
		}
		h.ErrLog.LogServerError(w, r, "load user failed", err, "A database error occurred.", detailURL(pid))
		return
	}

	removed, err := h.Members.Remove(ctx, pid, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "remove member failed", err, "A database error occurred.", detailURL(pid))
		return
	}
	if removed {
		h.AuditLog.MemberRemovedFromProject(ctx, r, res.Subject.UserID, uid, pid)
	}

	http.Redirect(w, r, detailURL(pid), http.StatusSeeOther)
}

func (h *Handler) memberChecks(route string, pid int64) []authz.Check {
	return h.Perms.Checks(route, projectpolicy.ByProject(h.Projects, pid), h.Members)
}

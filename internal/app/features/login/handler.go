// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	uierrors "github.com/dalemusser/trackhub/internal/app/features/errors"
	loginstore "github.com/dalemusser/trackhub/internal/app/store/logins"
	userstore "github.com/dalemusser/trackhub/internal/app/store/users"
	"github.com/dalemusser/trackhub/internal/app/system/auditlog"
	"github.com/dalemusser/trackhub/internal/app/system/auth"
	"github.com/dalemusser/trackhub/internal/app/system/authutil"
	"github.com/dalemusser/trackhub/internal/app/system/normalize"
	"github.com/dalemusser/trackhub/internal/app/system/ratelimit"
	"github.com/dalemusser/trackhub/internal/app/system/timeouts"
	"github.com/dalemusser/trackhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// FailedParam marks a redirect back to the form after bad credentials.
const FailedParam = "failed"

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
	Users      *userstore.Store
	Logins     *loginstore.Store
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Error string
	Next  string
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	limiter *ratelimit.LoginLimiter,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		AuditLog:   audit,
		Limiter:    limiter,
		Users:      userstore.New(db),
		Logins:     loginstore.New(db),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /accounts/                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	data := loginFormData{
		BaseVM: viewdata.NewBaseVM(r, "Sign in", "/"),
		Next:   query.Get(r, auth.NextParam),
	}
	if query.Get(r, FailedParam) == "1" {
		data.Error = "Your username and password didn't match. Please try again."
	}
	templates.Render(w, r, "login", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /accounts/                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", auth.DefaultLoginPath)
		return
	}

	username := normalize.Username(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	next := strings.TrimSpace(r.PostFormValue(auth.NextParam))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, username); !ok {
			h.AuditLog.LoginFailedRateLimit(ctx, r, username, "login")
			uierrors.RenderTooManyRequests(w, r, reason, auth.DefaultLoginPath)
			return
		}
	}

	if username == "" || password == "" {
		h.redirectFailed(w, r, next)
		return
	}

	/*── look-up user by username_ci ───────────────────────────────────────*/

	u, err := h.Users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		h.AuditLog.LoginFailedUserNotFound(ctx, r, username)
		h.chargeFailure(username)
		h.redirectFailed(w, r, next)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB find user", err, "A server error occurred.", auth.DefaultLoginPath)
		return
	}

	if !authutil.CheckPassword(password, u.PasswordHash) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, u.Username)
		h.chargeFailure(username)
		h.redirectFailed(w, r, next)
		return
	}

	/*── establish session ─────────────────────────────────────────────────*/

	if _, err := h.SessionMgr.GetSession(r); err != nil {
		var scErr securecookie.Error
		if errors.As(err, &scErr) && scErr.IsDecode() {
			h.Log.Warn("session cookie invalid, using fresh session",
				zap.Error(err), zap.Int64("user_id", u.ID))
		} else {
			h.Log.Error("session store error during login, using fresh session",
				zap.Error(err), zap.Int64("user_id", u.ID))
		}
	}
	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.DisplayName(),
		Groups:   u.Groups,
	}); err != nil {
		h.ErrLog.LogServerError(w, r, "save session failed", err, "Unable to create session. Please try again.", auth.DefaultLoginPath)
		return
	}

	// Bookkeeping failures are logged but do not undo the sign-in.
	if err := h.Users.TouchLastLogin(ctx, u.ID, time.Now().UTC()); err != nil {
		h.Log.Warn("touch last login failed", zap.Error(err), zap.Int64("user_id", u.ID))
	}
	if err := h.Logins.CreateFrom(ctx, r, u.ID); err != nil {
		h.Log.Warn("login record failed", zap.Error(err), zap.Int64("user_id", u.ID))
	}
	if h.Limiter != nil {
		h.Limiter.ResetUser(username)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.Username)

	http.Redirect(w, r, SafeNext(next), http.StatusSeeOther)
}

func (h *Handler) chargeFailure(username string) {
	if h.Limiter != nil {
		h.Limiter.Fail(username)
	}
}

// redirectFailed sends the browser back to the form, keeping the deep link.
func (h *Handler) redirectFailed(w http.ResponseWriter, r *http.Request, next string) {
	dest := auth.DefaultLoginPath + "?" + auth.NextParam + "=" + url.QueryEscape(next) + "&" + FailedParam + "=1"
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// SafeNext returns next when it is a local path, else "/". Absolute URLs and
// scheme-relative forms ("//host", "/\host") are rejected.
func SafeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return "/"
	}
	return urlutil.SafeReturn(next, "", "/")
}

// Package gates turns authorization chains into HTTP responses.
//
// Handlers build a chain (usually from routeperm.Table.Checks) and call
// Require before parsing forms or touching the store:
//
//	res := gates.Require(w, r, h.ErrLog, h.Perms.Checks(routeperm.TaskUpdate, scope, h.Members)...)
//	if !res.OK {
//	    return
//	}
//
// Denials map to responses the same way for every route:
//
//   - unauthenticated: redirect to the login form with next=<current URI>
//   - forbidden: 403 page
//   - not found: 404 page
//   - any other error: logged and rendered as a 500
package gates

import (
	"net/http"

	uierrors "github.com/dalemusser/trackhub/internal/app/features/errors"
	"github.com/dalemusser/trackhub/internal/app/system/auth"
	"github.com/dalemusser/trackhub/internal/app/system/authz"
)

// Result contains the result of an authorization gate check.
type Result struct {
	Subject authz.Subject
	OK      bool
}

// Require evaluates checks for the request's subject. When it returns OK=false
// the response has already been written.
func Require(w http.ResponseWriter, r *http.Request, errLog *uierrors.ErrorLogger, checks ...authz.Check) Result {
	s := authz.SubjectFromRequest(r)
	if err := authz.Evaluate(r.Context(), s, checks...); err != nil {
		Deny(w, r, errLog, err)
		return Result{Subject: s}
	}
	return Result{Subject: s, OK: true}
}

// Deny writes the response for a failed check. Forbidden requests are logged
// at info level; infrastructure errors at error level.
func Deny(w http.ResponseWriter, r *http.Request, errLog *uierrors.ErrorLogger, err error) {
	if errLog == nil {
		errLog = uierrors.NewErrorLogger(nil)
	}
	if d, ok := authz.AsDenial(err); ok {
		switch d.Reason {
		case authz.ReasonUnauthenticated:
			auth.RedirectToLogin(w, r, auth.DefaultLoginPath)
		case authz.ReasonNotFound:
			uierrors.RenderNotFound(w, r, d.Message, "/")
		default:
			errLog.LogForbidden(w, r, "access denied", d.Message, "")
		}
		return
	}
	errLog.LogServerError(w, r, "authorization check failed", err, "A database error occurred.", "/")
}

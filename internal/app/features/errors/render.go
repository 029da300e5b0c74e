// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/trackhub/internal/app/system/auth"
	"github.com/dalemusser/waffle/pantry/httpnav"
)

// RenderUnauthorized shows a friendly "sign in required" page.
// If backURL is empty, it will default to the login form.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = auth.DefaultLoginPath
	}
	render(w, r, newPage(r, http.StatusUnauthorized, "Sign in required", "Please sign in to continue.", backURL))
}

// RenderForbidden shows a friendly access error page with a message.
// If backURL is empty, it resolves a safe back URL with a default fallback.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = httpnav.ResolveBackURL(r, "/")
	}
	if msg == "" {
		msg = "You don't have permission to do that."
	}
	render(w, r, newPage(r, http.StatusForbidden, "Access denied", msg, backURL))
}

// RenderNotFound shows a 404 page.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = "/"
	}
	if msg == "" {
		msg = "The page you were looking for does not exist."
	}
	render(w, r, newPage(r, http.StatusNotFound, "Not found", msg, backURL))
}

// RenderBadRequest shows a 400 page.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = httpnav.ResolveBackURL(r, "/")
	}
	render(w, r, newPage(r, http.StatusBadRequest, "Bad request", msg, backURL))
}

// RenderTooManyRequests shows a 429 page.
func RenderTooManyRequests(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = "/"
	}
	render(w, r, newPage(r, http.StatusTooManyRequests, "Slow down", msg, backURL))
}

// RenderServerError shows a 500 page. The message is shown to the user, so
// never pass raw error text.
func RenderServerError(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = "/"
	}
	if msg == "" {
		msg = "Something went wrong."
	}
	render(w, r, newPage(r, http.StatusInternalServerError, "Server error", msg, backURL))
}

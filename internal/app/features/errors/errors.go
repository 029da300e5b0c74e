// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/trackhub/internal/app/system/auth"
	"github.com/dalemusser/trackhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

// pageData is the basic view model for error pages.
type pageData struct {
	viewdata.BaseVM
	Status  int
	Message string
}

// Handler is the errors feature handler.
// No DB needed; it just renders templates.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden renders a friendly "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	RenderForbidden(w, r, "You don't have permission to view this page.", "/")
}

// Unauthorized renders a friendly "sign in required" page.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	RenderUnauthorized(w, r, auth.DefaultLoginPath)
}

func newPage(r *http.Request, status int, title, msg, backURL string) pageData {
	vm := viewdata.NewBaseVM(r, title, backURL)
	vm.BackURL = backURL
	return pageData{
		BaseVM:  vm,
		Status:  status,
		Message: msg,
	}
}

// render writes status first so the code is fixed even if the template
// engine fails part way through.
func render(w http.ResponseWriter, r *http.Request, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(data.Status)
	templates.Render(w, r, "error_page", data)
}

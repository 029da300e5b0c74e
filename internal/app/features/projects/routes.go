// internal/app/features/projects/routes.go
package projects

import "github.com/go-chi/chi/v5"

// Routes mounts the project routes. Typically: r.Mount("/project", projects.Routes(h)).
// Task creation is mounted by the caller under "/{id}/task".
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/detail/{id}", h.ServeDetail)
	r.Get("/add/", h.ServeCreate)
	r.Post("/add/", h.HandleCreate)
	r.Post("/{id}/users/add/", h.HandleAddUsers)
	r.Post("/{id}/user/{uid}/delete/", h.HandleRemoveUser)
	return r
}

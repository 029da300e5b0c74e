// internal/app/features/tasks/routes.go
package tasks

import "github.com/go-chi/chi/v5"

// Routes mounts the per-task routes. Typically: r.Mount("/task", tasks.Routes(h)).
// The list itself lives at "/" and is registered by the caller.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/detail/{id}", h.ServeDetail)
	r.Get("/update/{id}", h.ServeEdit)
	r.Post("/update/{id}", h.HandleEdit)
	r.Get("/delete/{id}", h.ServeDelete)
	r.Post("/delete/{id}", h.HandleDelete)
	return r
}

// CreateRoutes serves task creation under a project, mounted at
// /project/{id}/task so the project id comes from the parent pattern.
func CreateRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/add/", h.ServeCreate)
	r.Post("/add/", h.HandleCreate)
	return r
}

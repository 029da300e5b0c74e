// internal/app/policy/projectpolicy/projectpolicy.go
package projectpolicy

import (
	"context"
	"errors"
	"fmt"

	taskstore "github.com/dalemusser/trackhub/internal/app/store/tasks"
	"github.com/dalemusser/trackhub/internal/app/system/authz"
)

// Denial messages shown on the 404 page.
const (
	msgProjectNotFound = "That project does not exist."
	msgTaskNotFound    = "That task does not exist."
)

// ProjectLookup is the slice of the project store the resolvers need.
type ProjectLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// TaskLookup is the slice of the task store the resolvers need.
type TaskLookup interface {
	ProjectIDOf(ctx context.Context, id int64) (int64, error)
}

// ByProject resolves the project named directly in the path. A project that
// does not exist is a not-found denial, never a crash or a 403.
func ByProject(projects ProjectLookup, projectID int64) authz.ProjectResolver {
	return func(ctx context.Context) (int64, error) {
		ok, err := projects.Exists(ctx, projectID)
		if err != nil {
			return 0, fmt.Errorf("project lookup: %w", err)
		}
		if !ok {
			return 0, authz.Deny(authz.ReasonNotFound, msgProjectNotFound)
		}
		return projectID, nil
	}
}

// ByTask resolves the project that owns a task. Membership for a task is
// always decided by its owning project.
func ByTask(tasks TaskLookup, projects ProjectLookup, taskID int64) authz.ProjectResolver {
	return func(ctx context.Context) (int64, error) {
		pid, err := tasks.ProjectIDOf(ctx, taskID)
		if errors.Is(err, taskstore.ErrNotFound) {
			return 0, authz.Deny(authz.ReasonNotFound, msgTaskNotFound)
		}
		if err != nil {
			return 0, fmt.Errorf("task lookup: %w", err)
		}
		return ByProject(projects, pid)(ctx)
	}
}

// TaskExists is a check for unscoped task routes (detail) so a missing task
// is reported as not found before the handler runs.
func TaskExists(tasks TaskLookup, taskID int64) authz.Check {
	return func(ctx context.Context, _ authz.Subject) error {
		_, err := tasks.ProjectIDOf(ctx, taskID)
		if errors.Is(err, taskstore.ErrNotFound) {
			return authz.Deny(authz.ReasonNotFound, msgTaskNotFound)
		}
		if err != nil {
			return fmt.Errorf("task lookup: %w", err)
		}
		return nil
	}
}

// ProjectExists is the unscoped counterpart of ByProject.
func ProjectExists(projects ProjectLookup, projectID int64) authz.Check {
	return func(ctx context.Context, _ authz.Subject) error {
		_, err := ByProject(projects, projectID)(ctx)
		return err
	}
}

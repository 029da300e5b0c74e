// internal/app/system/authz/authz.go
package authz

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dalemusser/trackhub/internal/app/system/auth"
)

// Subject is the identity a request acts as. The zero value is an anonymous visitor.
type Subject struct {
	UserID   int64
	Username string
	Name     string
	Groups   []string
	SignedIn bool
}

// SubjectFromRequest builds a Subject from the user LoadSessionUser put in context.
func SubjectFromRequest(r *http.Request) Subject {
	u, ok := auth.CurrentUser(r)
	if !ok || u.ID < 1 {
		return Subject{}
	}
	return Subject{
		UserID:   u.ID,
		Username: u.Username,
		Name:     u.Name,
		Groups:   u.Groups,
		SignedIn: true,
	}
}

// HasAnyGroup reports whether the subject belongs to at least one of groups.
// Labels are compared case-insensitively after trimming.
func (s Subject) HasAnyGroup(groups ...string) bool {
	for _, have := range s.Groups {
		h := strings.ToLower(strings.TrimSpace(have))
		if h == "" {
			continue
		}
		for _, want := range groups {
			if h == strings.ToLower(strings.TrimSpace(want)) {
				return true
			}
		}
	}
	return false
}

/*─────────────────────────────────────────────────────────────────────────────*
| Denials                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// Reason classifies why a check refused a request.
type Reason int

const (
	ReasonUnauthenticated Reason = iota + 1
	ReasonForbidden
	ReasonNotFound
)

func (r Reason) String() string {
	switch r {
	case ReasonUnauthenticated:
		return "unauthenticated"
	case ReasonForbidden:
		return "forbidden"
	case ReasonNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Denial is the error a Check returns when the subject may not proceed.
// Any other error a Check returns is an infrastructure fault.
type Denial struct {
	Reason  Reason
	Message string
}

func (d *Denial) Error() string {
	if d.Message == "" {
		return "authz: " + d.Reason.String()
	}
	return fmt.Sprintf("authz: %s: %s", d.Reason, d.Message)
}

// Deny builds a Denial.
func Deny(reason Reason, msg string) *Denial {
	return &Denial{Reason: reason, Message: msg}
}

// AsDenial unwraps err into a Denial if it is one.
func AsDenial(err error) (*Denial, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

/*─────────────────────────────────────────────────────────────────────────────*
| Checks                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// Check is one link of an authorization chain.
type Check func(ctx context.Context, s Subject) error

// Evaluate runs checks in order and returns the first failure.
// A nil result means every check passed.
func Evaluate(ctx context.Context, s Subject, checks ...Check) error {
	for _, c := range checks {
		if c == nil {
			continue
		}
		if err := c(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// SignedIn requires an authenticated subject.
func SignedIn() Check {
	return func(_ context.Context, s Subject) error {
		if !s.SignedIn {
			return Deny(ReasonUnauthenticated, "Please sign in to continue.")
		}
		return nil
	}
}

// InAnyGroup requires the subject's groups to intersect groups.
// An empty list admits nobody.
func InAnyGroup(groups ...string) Check {
	want := append([]string(nil), groups...)
	return func(_ context.Context, s Subject) error {
		if !s.HasAnyGroup(want...) {
			return Deny(ReasonForbidden, "You don't have permission to do that.")
		}
		return nil
	}
}

// ProjectResolver finds the project a request targets. It returns a NotFound
// Denial when the project (or the task that names it) does not exist.
type ProjectResolver func(ctx context.Context) (int64, error)

// MemberChecker reports whether a user belongs to a project's member set.
type MemberChecker interface {
	Exists(ctx context.Context, projectID, userID int64) (bool, error)
}

// ProjectMember requires the subject to be a member of the resolved project.
func ProjectMember(resolve ProjectResolver, members MemberChecker) Check {
	return func(ctx context.Context, s Subject) error {
		if !s.SignedIn {
			return Deny(ReasonUnauthenticated, "Please sign in to continue.")
		}
		projectID, err := resolve(ctx)
		if err != nil {
			return err
		}
		ok, err := members.Exists(ctx, projectID, s.UserID)
		if err != nil {
			return fmt.Errorf("membership lookup: %w", err)
		}
		if !ok {
			return Deny(ReasonForbidden, "You are not a member of this project.")
		}
		return nil
	}
}

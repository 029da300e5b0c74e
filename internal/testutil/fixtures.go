package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	counterstore "github.com/dalemusser/trackhub/internal/app/store/counters"
	"github.com/dalemusser/trackhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Calling it again on the returned request adds to the same route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	if rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context); ok && rctx != nil {
		rctx.URLParams.Add(key, value)
		return r
	}
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db  *mongo.Database
	ids *counterstore.Store
	t   *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, ids: counterstore.New(db), t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) nextID(ctx context.Context, seq string) int64 {
	f.t.Helper()
	id, err := f.ids.Next(ctx, seq)
	if err != nil {
		f.t.Fatalf("failed to allocate %s id: %v", seq, err)
	}
	return id
}

// CreateUser creates a user with the given password and groups.
// The hash uses bcrypt.MinCost to keep tests quick.
func (f *Fixtures) CreateUser(ctx context.Context, username, password string, groups ...string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash password: %v", err)
	}
	if groups == nil {
		groups = []string{}
	}

	now := time.Now().UTC()
	u := models.User{
		ID:           f.nextID(ctx, counterstore.Users),
		Username:     username,
		UsernameCI:   text.Fold(username),
		PasswordHash: string(hash),
		Email:        username + "@example.com",
		Groups:       groups,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateProject creates a project with no members.
func (f *Fixtures) CreateProject(ctx context.Context, name string) models.Project {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Project{
		ID:          f.nextID(ctx, counterstore.Projects),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "Test project " + name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("projects").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	return p
}

// AddMember adds userID to the project's member set.
func (f *Fixtures) AddMember(ctx context.Context, projectID, userID int64) {
	f.t.Helper()

	m := models.ProjectMembership{ProjectID: projectID, UserID: userID, CreatedAt: time.Now().UTC()}
	if _, err := f.db.Collection("project_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to add test member: %v", err)
	}
}

// CreateTask creates a task in the project with status "New" and type "Task".
func (f *Fixtures) CreateTask(ctx context.Context, projectID int64, summary string) models.Task {
	f.t.Helper()
	return f.CreateTaskWith(ctx, models.Task{ProjectID: projectID, Summary: summary})
}

// CreateTaskWith inserts t, filling in id, timestamps and any blank
// status or type.
func (f *Fixtures) CreateTaskWith(ctx context.Context, t models.Task) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	t.ID = f.nextID(ctx, counterstore.Tasks)
	if t.Status == "" {
		t.Status = "New"
	}
	if t.Type == "" {
		t.Type = "Task"
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := f.db.Collection("tasks").InsertOne(ctx, t); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return t
}

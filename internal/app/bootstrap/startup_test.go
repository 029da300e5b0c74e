package bootstrap

import (
	"slices"
	"testing"
	"time"

	"github.com/dalemusser/trackhub/internal/app/store/audit"
	userstore "github.com/dalemusser/trackhub/internal/app/store/users"
	"github.com/dalemusser/trackhub/internal/app/system/auditlog"
	"github.com/dalemusser/trackhub/internal/app/system/timeouts"
	"github.com/dalemusser/trackhub/internal/domain/models"
	"github.com/dalemusser/trackhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func groupsOf(t *testing.T, deps DBDeps, id int64) []string {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u, err := userstore.New(deps.MongoDatabase).GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	return u.Groups
}

func TestEnsureBootstrapManager_GrantsGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f := testutil.NewFixtures(t, db)

	u := f.CreateUser(ctx, "Pat", "correct-horse-battery", models.GroupDeveloper)
	deps := DBDeps{MongoDatabase: db}
	audits := auditlog.New(audit.New(db), testLogger(), auditlog.Config{Auth: auditlog.Off, Admin: auditlog.DB})

	// Lookup ignores case.
	if err := ensureBootstrapManager(ctx, deps, "pat", audits, testLogger()); err != nil {
		t.Fatalf("ensureBootstrapManager failed: %v", err)
	}
	got := groupsOf(t, deps, u.ID)
	if !slices.Contains(got, models.GroupProjectManager) || !slices.Contains(got, models.GroupDeveloper) {
		t.Errorf("groups = %v, want Developer and Project Manager", got)
	}

	n, err := db.Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": audit.EventGroupGranted})
	if err != nil {
		t.Fatalf("count audit events: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 group_granted event, got %d", n)
	}
}

func TestEnsureBootstrapManager_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f := testutil.NewFixtures(t, db)

	u := f.CreateUser(ctx, "pat", "correct-horse-battery", models.GroupProjectManager)
	deps := DBDeps{MongoDatabase: db}
	audits := auditlog.New(audit.New(db), testLogger(), auditlog.Config{Auth: auditlog.Off, Admin: auditlog.DB})

	for i := 0; i < 2; i++ {
		if err := ensureBootstrapManager(ctx, deps, "pat", audits, testLogger()); err != nil {
			t.Fatalf("ensureBootstrapManager failed: %v", err)
		}
	}
	if got := groupsOf(t, deps, u.ID); len(got) != 1 || got[0] != models.GroupProjectManager {
		t.Errorf("groups = %v, want [Project Manager]", got)
	}
	n, _ := db.Collection("audit_events").CountDocuments(ctx, bson.M{})
	if n != 0 {
		t.Errorf("expected no audit events for an existing manager, got %d", n)
	}
}

func TestEnsureBootstrapManager_UnknownOrBlank(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	for _, name := range []string{"", "ghost"} {
		if err := ensureBootstrapManager(ctx, deps, name, nil, testLogger()); err != nil {
			t.Errorf("ensureBootstrapManager(%q) = %v, want nil", name, err)
		}
	}
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "trackhub",
		SessionKey:    devSessionKey,
		TaskStatuses:  []string{"New", "Done"},
		TaskTypes:     []string{"Bug"},
		TasksPerPage:  3,
		TasksOrphans:  1,
		AuditLogAuth:  auditlog.All,
		AuditLogAdmin: auditlog.All,
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(nil, validConfig(), testLogger()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"blank uri", func(c *AppConfig) { c.MongoURI = "" }},
		{"no database", func(c *AppConfig) { c.MongoDatabase = "" }},
		{"short csrf key", func(c *AppConfig) { c.CSRFKey = "short" }},
		{"no statuses", func(c *AppConfig) { c.TaskStatuses = nil }},
		{"no types", func(c *AppConfig) { c.TaskTypes = nil }},
		{"zero page size", func(c *AppConfig) { c.TasksPerPage = 0 }},
		{"negative orphans", func(c *AppConfig) { c.TasksOrphans = -1 }},
		{"bad audit setting", func(c *AppConfig) { c.AuditLogAdmin = "everything" }},
		{"negative retention", func(c *AppConfig) { c.AuditRetention = -time.Hour }},
		{"retention without interval", func(c *AppConfig) { c.LoginRecordRetention = time.Hour }},
		{"negative timeout", func(c *AppConfig) { c.Timeouts.Medium = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := ValidateConfig(nil, cfg, testLogger()); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestConfigureTimeouts(t *testing.T) {
	prev := timeouts.Current()
	defer timeouts.Configure(prev)

	configureTimeouts(timeouts.Config{Short: 9 * time.Second, Medium: 20 * time.Second}, testLogger())

	if got := timeouts.Short(); got != 9*time.Second {
		t.Errorf("Short: got %v, want 9s", got)
	}
	if got := timeouts.Medium(); got != 20*time.Second {
		t.Errorf("Medium: got %v, want 20s", got)
	}
}

package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/trackhub/internal/app/store/audit"
	"github.com/dalemusser/trackhub/internal/app/system/auditlog"
	"github.com/dalemusser/trackhub/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func int64Ptr(v int64) *int64 { return &v }

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	// These should all be no-ops, not panic.
	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, 1, "alice")
	logger.Logout(ctx, req, 1)
	logger.TaskUpdated(ctx, req, 1, 2, 3, "x")
}

func TestLogger_Destinations(t *testing.T) {
	tests := []struct {
		name       string
		setting    string
		wantDB     int
		wantZapLog int
	}{
		{"off", auditlog.Off, 0, 0},
		{"db", auditlog.DB, 1, 0},
		{"log", auditlog.Log, 0, 1},
		{"all", auditlog.All, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			core, logs := observer.New(zap.InfoLevel)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: tt.setting, Admin: tt.setting})
			req := httptest.NewRequest("POST", "/accounts/", nil)
			logger.LoginSuccess(ctx, req, 42, "alice")

			events, err := store.Query(ctx, audit.QueryFilter{UserID: int64Ptr(42)})
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(events) != tt.wantDB {
				t.Errorf("db events: got %d, want %d", len(events), tt.wantDB)
			}
			if logs.Len() != tt.wantZapLog {
				t.Errorf("zap entries: got %d, want %d", logs.Len(), tt.wantZapLog)
			}
		})
	}
}

func TestLogger_CategoryRouting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.Off, Admin: auditlog.DB})
	req := httptest.NewRequest("POST", "/project/3/users/add/", nil)

	logger.LoginSuccess(ctx, req, 5, "bob")
	logger.MemberAddedToProject(ctx, req, 5, 6, 3)

	n, err := store.CountByFilter(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected only the admin event, got %d", n)
	}
	events, _ := store.Query(ctx, audit.QueryFilter{ProjectID: int64Ptr(3)})
	if len(events) != 1 || events[0].EventType != audit.EventMemberAddedToProject {
		t.Errorf("got %+v", events)
	}
	if events[0].ActorID == nil || *events[0].ActorID != 5 {
		t.Errorf("ActorID: got %v", events[0].ActorID)
	}
}

func TestLogger_RequestContext(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.DB, Admin: auditlog.DB})
	req := httptest.NewRequest("POST", "/accounts/", nil)
	req.RemoteAddr = "203.0.113.9:51000"
	req.Header.Set("User-Agent", "TestBrowser/1.0")

	logger.LoginFailedWrongPassword(ctx, req, 9, "carol")

	events, err := store.Query(ctx, audit.QueryFilter{UserID: int64Ptr(9)})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.IP != "203.0.113.9" {
		t.Errorf("IP: got %q", ev.IP)
	}
	if ev.UserAgent != "TestBrowser/1.0" {
		t.Errorf("UserAgent: got %q", ev.UserAgent)
	}
	if ev.Success || ev.FailureReason != "wrong password" {
		t.Errorf("outcome: got success=%v reason=%q", ev.Success, ev.FailureReason)
	}
}

func TestLogger_AnonymousLogoutHasNoUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.DB})
	logger.Logout(ctx, httptest.NewRequest("GET", "/accounts/logout/", nil), 0)

	events, err := store.Query(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].UserID != nil {
		t.Errorf("expected no user id, got %d", *events[0].UserID)
	}
}

func TestValidSetting(t *testing.T) {
	for _, s := range []string{"all", "db", "log", "off"} {
		if !auditlog.ValidSetting(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []string{"", "ALL", "mongo"} {
		if auditlog.ValidSetting(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

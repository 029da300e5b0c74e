package register_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/trackhub/internal/app/features/errors"
	"github.com/dalemusser/trackhub/internal/app/features/register"
	userstore "github.com/dalemusser/trackhub/internal/app/store/users"
	"github.com/dalemusser/trackhub/internal/app/system/auth"
	"github.com/dalemusser/trackhub/internal/app/system/authutil"
	"github.com/dalemusser/trackhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const cookieName = "test-session"

func newTestHandler(t *testing.T) (*register.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", cookieName, "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	h := register.NewHandler(db, sessionMgr, uierrors.NewErrorLogger(logger), nil, logger)
	return h, testutil.NewFixtures(t, db)
}

func post(h *register.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/accounts/register/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	// Re-rendering the form fails without a booted template engine.
	func() {
		defer func() { recover() }()
		h.HandleRegister(rec, req)
	}()
	return rec
}

func validForm() url.Values {
	return url.Values{
		"username":   {"alice"},
		"password1":  {"tangerine-river-42"},
		"password2":  {"tangerine-river-42"},
		"first_name": {"Alice"},
		"last_name":  {"Liddell"},
		"email":      {"alice@example.com"},
	}
}

func signedIn(rec *httptest.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName && c.Value != "" && c.MaxAge >= 0 {
			return true
		}
	}
	return false
}

func userCount(t *testing.T, f *testutil.Fixtures) int64 {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := f.DB().Collection("users").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	return n
}

func TestHandleRegister_Success(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := post(h, validForm())

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: got %q, want /", loc)
	}
	if !signedIn(rec) {
		t.Error("new user should be signed in immediately")
	}

	u, err := userstore.New(f.DB()).GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if u.PasswordHash == "tangerine-river-42" {
		t.Fatal("password stored in plaintext")
	}
	if !authutil.CheckPassword("tangerine-river-42", u.PasswordHash) {
		t.Error("stored hash does not verify the password")
	}
	if u.FirstName != "Alice" || u.LastName != "Liddell" || u.Email != "alice@example.com" {
		t.Errorf("profile fields not stored: %+v", u)
	}
	if len(u.Groups) != 0 {
		t.Errorf("new users start without groups, got %v", u.Groups)
	}
}

func TestHandleRegister_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(url.Values)
	}{
		{"mismatched confirm", func(v url.Values) { v.Set("password2", "tangerine-river-43") }},
		{"blank confirm", func(v url.Values) { v.Set("password2", "") }},
		{"blank password", func(v url.Values) { v.Set("password1", ""); v.Set("password2", "") }},
		{"too long password", func(v url.Values) {
			long := strings.Repeat("x", 73)
			v.Set("password1", long)
			v.Set("password2", long)
		}},
		{"blank username", func(v url.Values) { v.Set("username", "   ") }},
		{"bad username", func(v url.Values) { v.Set("username", "alice smith!") }},
		{"long username", func(v url.Values) { v.Set("username", strings.Repeat("a", 151)) }},
		{"bad email", func(v url.Values) { v.Set("email", "not-an-email") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, f := newTestHandler(t)
			form := validForm()
			tt.mutate(form)

			rec := post(h, form)

			if rec.Code == http.StatusSeeOther {
				t.Errorf("expected form re-render, got redirect to %q", rec.Header().Get("Location"))
			}
			if signedIn(rec) {
				t.Error("no session may be established on failure")
			}
			if n := userCount(t, f); n != 0 {
				t.Errorf("expected no users persisted, got %d", n)
			}
		})
	}
}

func TestHandleRegister_UsernameTakenIgnoresCase(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f.CreateUser(ctx, "Alice", "some-other-password")

	rec := post(h, validForm())

	if rec.Code == http.StatusSeeOther {
		t.Error("duplicate username should not redirect")
	}
	if n := userCount(t, f); n != 1 {
		t.Errorf("expected 1 user, got %d", n)
	}
}

func TestHandleRegister_EmailOptional(t *testing.T) {
	h, _ := newTestHandler(t)
	form := validForm()
	form.Del("email")
	form.Del("first_name")
	form.Del("last_name")

	rec := post(h, form)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected 303, got %d", rec.Code)
	}
}

func TestHandleRegister_ShortPasswordAccepted(t *testing.T) {
	h, f := newTestHandler(t)
	form := validForm()
	form.Set("password1", "abc")
	form.Set("password2", "abc")

	rec := post(h, form)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if n := userCount(t, f); n != 1 {
		t.Errorf("expected 1 user, got %d", n)
	}
}

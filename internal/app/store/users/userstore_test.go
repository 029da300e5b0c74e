package userstore_test

import (
	"errors"
	"testing"
	"time"

	userstore "github.com/dalemusser/trackhub/internal/app/store/users"
	"github.com/dalemusser/trackhub/internal/domain/models"
	"github.com/dalemusser/trackhub/internal/testutil"
	"github.com/dalemusser/waffle/pantry/text"
)

func newUser(username string) models.User {
	return models.User{
		Username:     username,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		FirstName:    "  Ada ",
		LastName:     "Lovelace",
		Email:        "  Ada@Example.com ",
	}
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, newUser("  Ada "))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID < 1 {
		t.Errorf("expected positive ID, got %d", created.ID)
	}
	if created.Username != "Ada" {
		t.Errorf("Username: got %q, want %q", created.Username, "Ada")
	}
	if created.UsernameCI != text.Fold("ADA") {
		t.Errorf("UsernameCI: got %q, want %q", created.UsernameCI, text.Fold("ADA"))
	}
	if created.Email != "ada@example.com" {
		t.Errorf("Email: got %q", created.Email)
	}
	if created.FirstName != "Ada" {
		t.Errorf("FirstName: got %q", created.FirstName)
	}
	if created.Groups == nil || len(created.Groups) != 0 {
		t.Errorf("Groups: got %v, want empty", created.Groups)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	second, err := store.Create(ctx, newUser("grace"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if second.ID != created.ID+1 {
		t.Errorf("expected sequential ids, got %d then %d", created.ID, second.ID)
	}
}

func TestStore_Create_DuplicateUsernameIgnoresCase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, newUser("alice")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := store.Create(ctx, newUser("ALICE"))
	if !errors.Is(err, userstore.ErrDuplicateUsername) {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}

	n, err := db.Collection("users").CountDocuments(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 user, got %d", n)
	}
}

func TestStore_Create_RequiresHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := newUser("nohash")
	u.PasswordHash = ""
	if _, err := store.Create(ctx, u); err == nil {
		t.Error("expected error for missing password hash")
	}
}

func TestStore_Create_UnknownGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := newUser("wizard")
	u.Groups = []string{"Wizard"}
	if _, err := store.Create(ctx, u); err == nil {
		t.Error("expected error for unknown group")
	}
}

func TestStore_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "bob", "password123", models.GroupTeamLead)

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Username != "bob" {
		t.Errorf("Username: got %q", got.Username)
	}

	_, err = store.GetByID(ctx, u.ID+100)
	if !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_GetByUsername(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Carol", "password123")

	got, err := store.GetByUsername(ctx, " carol ")
	if err != nil {
		t.Fatalf("GetByUsername failed: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("ID: got %d, want %d", got.ID, u.ID)
	}

	if _, err := store.GetByUsername(ctx, "nobody"); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetByUsername(ctx, "   "); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound for blank, got %v", err)
	}
}

func TestStore_TouchLastLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "dave", "password123")
	at := time.Now().UTC().Truncate(time.Millisecond)
	if err := store.TouchLastLogin(ctx, u.ID, at); err != nil {
		t.Fatalf("TouchLastLogin failed: %v", err)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(at) {
		t.Errorf("LastLoginAt: got %v, want %v", got.LastLoginAt, at)
	}

	if err := store.TouchLastLogin(ctx, u.ID+100, at); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Groups(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "erin", "password123")

	if err := store.AddGroup(ctx, u.ID, "team lead"); err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}
	// Idempotent.
	if err := store.AddGroup(ctx, u.ID, "Team Lead"); err != nil {
		t.Fatalf("AddGroup again failed: %v", err)
	}
	got, _ := store.GetByID(ctx, u.ID)
	if len(got.Groups) != 1 || got.Groups[0] != models.GroupTeamLead {
		t.Errorf("Groups after add: got %v", got.Groups)
	}

	if err := store.AddGroup(ctx, u.ID, "Wizard"); err == nil {
		t.Error("expected error for unknown group")
	}
	if err := store.AddGroup(ctx, u.ID+100, models.GroupDeveloper); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListAllAndByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	zed := fixtures.CreateUser(ctx, "zed", "password123")
	amy := fixtures.CreateUser(ctx, "Amy", "password123")
	fixtures.CreateUser(ctx, "mike", "password123")

	all, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 users, got %d", len(all))
	}
	if all[0].Username != "Amy" || all[2].Username != "zed" {
		t.Errorf("unexpected order: %s, %s, %s", all[0].Username, all[1].Username, all[2].Username)
	}
	for _, u := range all {
		if u.PasswordHash != "" {
			t.Error("expected password hash to be excluded")
		}
	}

	some, err := store.ListByIDs(ctx, []int64{zed.ID, amy.ID, 9999})
	if err != nil {
		t.Fatalf("ListByIDs failed: %v", err)
	}
	if len(some) != 2 {
		t.Errorf("expected 2 users, got %d", len(some))
	}
}

func TestStore_MissingIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateUser(ctx, "a1", "password123")
	b := fixtures.CreateUser(ctx, "b1", "password123")

	missing, err := store.MissingIDs(ctx, []int64{a.ID, b.ID, a.ID})
	if err != nil {
		t.Fatalf("MissingIDs failed: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("expected none missing, got %v", missing)
	}

	missing, err = store.MissingIDs(ctx, []int64{900, a.ID, 800})
	if err != nil {
		t.Fatalf("MissingIDs failed: %v", err)
	}
	if len(missing) != 2 || missing[0] != 800 || missing[1] != 900 {
		t.Errorf("missing: got %v, want [800 900]", missing)
	}
}

func TestFetcher(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	fetcher := userstore.NewFetcher(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "frank", "password123", models.GroupDeveloper)

	su := fetcher.FetchUser(ctx, u.ID)
	if su == nil {
		t.Fatal("expected session user")
	}
	if su.ID != u.ID || su.Username != "frank" {
		t.Errorf("got %+v", su)
	}
	if len(su.Groups) != 1 || su.Groups[0] != models.GroupDeveloper {
		t.Errorf("Groups: got %v", su.Groups)
	}

	if fetcher.FetchUser(ctx, u.ID+100) != nil {
		t.Error("expected nil for unknown user")
	}
}

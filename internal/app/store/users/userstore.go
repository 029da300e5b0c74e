// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	counterstore "github.com/dalemusser/trackhub/internal/app/store/counters"
	"github.com/dalemusser/trackhub/internal/app/system/normalize"
	"github.com/dalemusser/trackhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateUsername is returned when the folded username is already taken.
	ErrDuplicateUsername = errors.New("a user with this username already exists")

	errUsernameNeeded = errors.New("username is required")
	errHashNeeded     = errors.New("password hash is required")
	errBadGroup       = errors.New("unknown group")
)

type Store struct {
	c   *mongo.Collection
	ids *counterstore.Store
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users"), ids: counterstore.New(db)}
}

// Create inserts a new user. The caller supplies PasswordHash; the raw
// password never reaches this package. ID, UsernameCI and timestamps are set
// here and the stored user is returned.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.Username = normalize.Username(u.Username)
	if u.Username == "" {
		return models.User{}, errUsernameNeeded
	}
	if u.PasswordHash == "" {
		return models.User{}, errHashNeeded
	}
	u.UsernameCI = text.Fold(u.Username)
	u.FirstName = normalize.Name(u.FirstName)
	u.LastName = normalize.Name(u.LastName)
	u.Email = normalize.Email(u.Email)

	groups, err := canonicalGroups(u.Groups)
	if err != nil {
		return models.User{}, err
	}
	u.Groups = groups

	// Cheap pre-check so a taken name does not burn an id. The unique index
	// still decides under concurrency.
	if taken, err := s.UsernameExists(ctx, u.Username); err != nil {
		return models.User{}, err
	} else if taken {
		return models.User{}, ErrDuplicateUsername
	}

	id, err := s.ids.Next(ctx, counterstore.Users)
	if err != nil {
		return models.User{}, fmt.Errorf("allocate user id: %w", err)
	}
	u.ID = id

	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.LastLoginAt = nil

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateUsername
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by id. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByUsername looks a user up by username, ignoring case.
// Returns ErrNotFound when absent.
func (s *Store) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	ci := text.Fold(normalize.Username(username))
	if ci == "" {
		return nil, ErrNotFound
	}
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"username_ci": ci}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UsernameExists reports whether the folded username is taken.
func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	ci := text.Fold(normalize.Username(username))
	if ci == "" {
		return false, nil
	}
	n, err := s.c.CountDocuments(ctx, bson.M{"username_ci": ci}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// TouchLastLogin records a successful login.
func (s *Store) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login_at": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAll returns every user ordered by username, ignoring case.
// Password hashes are not loaded.
func (s *Store) ListAll(ctx context.Context) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "username_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"password_hash": 0})
	return s.find(ctx, bson.M{}, opts)
}

// ListByIDs returns the users with the given ids, ordered by username.
// Ids with no user are skipped.
func (s *Store) ListByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "username_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"password_hash": 0})
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
}

// MissingIDs returns the ids from ids that name no user, in ascending order.
// Duplicates in ids are collapsed.
func (s *Store) MissingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	want := make(map[int64]bool, len(ids))
	uniq := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !want[id] {
			want[id] = true
			uniq = append(uniq, id)
		}
	}
	if len(uniq) == 0 {
		return nil, nil
	}

	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": uniq}},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			ID int64 `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		delete(want, row.ID)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	var missing []int64
	for id := range want {
		missing = append(missing, id)
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.User, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

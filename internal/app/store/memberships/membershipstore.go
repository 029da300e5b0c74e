// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/trackhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store owns project_memberships: one document per (project_id, user_id),
// enforced by a unique index. A project's member set is exactly its
// membership documents.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("project_memberships")}
}

// Add makes userID a member of projectID. added is false when the user was
// already a member; that is not an error.
func (s *Store) Add(ctx context.Context, projectID, userID int64) (added bool, err error) {
	doc := models.ProjectMembership{ProjectID: projectID, UserID: userID, CreatedAt: time.Now().UTC()}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// AddBatchResult contains counts from a batch membership add operation.
type AddBatchResult struct {
	Added      int
	Duplicates int
}

// AddBatch adds every user in userIDs to the project in one unordered insert.
// Caller must have already verified that the users exist. Existing members
// (and repeats within userIDs) are counted as duplicates, not errors.
func (s *Store) AddBatch(ctx context.Context, projectID int64, userIDs []int64) (AddBatchResult, error) {
	if len(userIDs) == 0 {
		return AddBatchResult{}, nil
	}

	now := time.Now().UTC()
	seen := make(map[int64]bool, len(userIDs))
	docs := make([]interface{}, 0, len(userIDs))
	for _, uid := range userIDs {
		if seen[uid] {
			continue
		}
		seen[uid] = true
		docs = append(docs, models.ProjectMembership{ProjectID: projectID, UserID: uid, CreatedAt: now})
	}
	repeats := len(userIDs) - len(docs)

	// ordered:false so every insert is attempted even when some collide.
	_, err := s.c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return AddBatchResult{Added: len(docs), Duplicates: repeats}, nil
	}

	var bulkErr mongo.BulkWriteException
	if !errors.As(err, &bulkErr) || bulkErr.WriteConcernError != nil {
		return AddBatchResult{}, err
	}
	dups := 0
	for _, we := range bulkErr.WriteErrors {
		if we.Code != 11000 {
			return AddBatchResult{Added: len(docs) - len(bulkErr.WriteErrors), Duplicates: repeats + dups}, err
		}
		dups++
	}
	return AddBatchResult{Added: len(docs) - dups, Duplicates: repeats + dups}, nil
}

// Remove deletes the membership for (projectID, userID). removed is false
// when the user was not a member; that is not an error.
func (s *Store) Remove(ctx context.Context, projectID, userID int64) (removed bool, err error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"project_id": projectID, "user_id": userID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// Exists reports whether userID is a member of projectID.
// It satisfies authz.MemberChecker.
func (s *Store) Exists(ctx context.Context, projectID, userID int64) (bool, error) {
	n, err := s.c.CountDocuments(ctx,
		bson.M{"project_id": projectID, "user_id": userID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListUserIDs returns the member ids of a project in join order.
func (s *Store) ListUserIDs(ctx context.Context, projectID int64) ([]int64, error) {
	return s.distinctIDs(ctx, bson.M{"project_id": projectID}, "user_id")
}

func (s *Store) distinctIDs(ctx context.Context, filter bson.M, field string) ([]int64, error) {
	opts := options.Find().
		SetProjection(bson.M{field: 1, "_id": 0}).
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.ProjectMembership
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		if field == "user_id" {
			out = append(out, r.UserID)
		} else {
			out = append(out, r.ProjectID)
		}
	}
	return out, nil
}

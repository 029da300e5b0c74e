// internal/app/store/tasks/taskstore.go
package taskstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	counterstore "github.com/dalemusser/trackhub/internal/app/store/counters"
	"github.com/dalemusser/trackhub/internal/app/system/paging"
	"github.com/dalemusser/trackhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no task has the requested id.
	ErrNotFound = errors.New("task not found")

	errProjectNeeded = errors.New("task must belong to a project")
)

// Lists are newest first; ids are issued in creation order.
var newestFirst = bson.D{{Key: "_id", Value: -1}}

type Store struct {
	c   *mongo.Collection
	ids *counterstore.Store
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks"), ids: counterstore.New(db)}
}

// Create inserts t with a fresh id. Field validation is the caller's job;
// ProjectID must be set.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	if t.ProjectID < 1 {
		return models.Task{}, errProjectNeeded
	}
	id, err := s.ids.Next(ctx, counterstore.Tasks)
	if err != nil {
		return models.Task{}, fmt.Errorf("allocate task id: %w", err)
	}
	t.ID = id
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// GetByID loads a task. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ProjectIDOf returns the owning project of a task without loading the rest
// of it. Returns ErrNotFound when the task is absent.
func (s *Store) ProjectIDOf(ctx context.Context, id int64) (int64, error) {
	var row struct {
		ProjectID int64 `bson:"project_id"`
	}
	opts := options.FindOne().SetProjection(bson.M{"project_id": 1})
	if err := s.c.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&row); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return row.ProjectID, nil
}

// Update holds the editable fields of a task. The owning project is not one
// of them.
type Update struct {
	Summary     string
	Description string
	Status      string
	Type        string
}

// Update replaces the editable fields. Returns ErrNotFound when absent.
func (s *Store) Update(ctx context.Context, id int64, upd Update) error {
	set := bson.M{
		"summary":     upd.Summary,
		"description": upd.Description,
		"status":      upd.Status,
		"type":        upd.Type,
		"updated_at":  time.Now(),
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a task. Returns ErrNotFound when absent.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of tasks matching filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	return s.c.CountDocuments(ctx, filter)
}

// List returns one page of the tasks matching filter, newest first.
func (s *Store) List(ctx context.Context, filter bson.M, pg paging.Page) ([]models.Task, error) {
	if filter == nil {
		filter = bson.M{}
	}
	if pg.Limit == 0 {
		return nil, nil
	}
	opts := pg.ApplyToFind(options.Find().SetSort(newestFirst))
	return s.find(ctx, filter, opts)
}

// ListByProject returns all tasks of a project, newest first.
func (s *Store) ListByProject(ctx context.Context, projectID int64) ([]models.Task, error) {
	return s.find(ctx, bson.M{"project_id": projectID}, options.Find().SetSort(newestFirst))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Task, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Task
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

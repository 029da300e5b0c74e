// internal/app/store/projects/projectstore.go
package projectstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	counterstore "github.com/dalemusser/trackhub/internal/app/store/counters"
	"github.com/dalemusser/trackhub/internal/app/system/normalize"
	"github.com/dalemusser/trackhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no project has the requested id.
	ErrNotFound = errors.New("project not found")

	errNameNeeded = errors.New("project name is required")
)

type Store struct {
	c   *mongo.Collection
	ids *counterstore.Store
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("projects"), ids: counterstore.New(db)}
}

// Create inserts p with a fresh id. Membership is managed separately.
func (s *Store) Create(ctx context.Context, p models.Project) (models.Project, error) {
	p.Name = normalize.Name(p.Name)
	if p.Name == "" {
		return models.Project{}, errNameNeeded
	}
	p.NameCI = text.Fold(p.Name)

	id, err := s.ids.Next(ctx, counterstore.Projects)
	if err != nil {
		return models.Project{}, fmt.Errorf("allocate project id: %w", err)
	}
	p.ID = id

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// GetByID loads a project. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Exists reports whether a project with id exists.
func (s *Store) Exists(ctx context.Context, id int64) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns every project ordered by name, ignoring case.
func (s *Store) List(ctx context.Context) ([]models.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Project
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// NamesByID maps each existing id in ids to its project name. Unknown ids
// are absent from the result.
func (s *Store) NamesByID(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1, "name": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var p struct {
			ID   int64  `bson:"_id"`
			Name string `bson:"name"`
		}
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out[p.ID] = p.Name
	}
	return out, cur.Err()
}

// internal/app/store/users/groups.go
package userstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/trackhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

// Groups are role labels. Registration never assigns them; they are granted
// through AddGroup, which the bootstrap manager setting uses.

// AddGroup grants group to the user. Granting a held group is a no-op.
func (s *Store) AddGroup(ctx context.Context, id int64, group string) error {
	g, ok := models.CanonicalGroup(group)
	if !ok {
		return fmt.Errorf("%w: %q", errBadGroup, group)
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$addToSet": bson.M{"groups": g},
			"$set":      bson.M{"updated_at": time.Now()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// canonicalGroups validates and de-duplicates labels. The result is never nil
// so the stored field is always an array.
func canonicalGroups(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, label := range in {
		g, ok := models.CanonicalGroup(label)
		if !ok {
			return nil, fmt.Errorf("%w: %q", errBadGroup, label)
		}
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out, nil
}

package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"omniai/internal/domain"
	"omniai/internal/repository"
)

type sessionDoc[E any] struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Title     string    `bson:"title"`
	Entries   []E       `bson:"entries"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d sessionDoc[E]) session() domain.Session[E] {
	return domain.Session[E]{
		ID:        d.ID,
		UserID:    d.UserID,
		Title:     d.Title,
		Entries:   d.Entries,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// SessionCollection is the Store of one feature collection.
type SessionCollection[E any] struct {
	coll *mongo.Collection
}

func NewSessionCollection[E any](db *mongo.Database, collection domain.Collection) (*SessionCollection[E], error) {
	if db == nil {
		return nil, errors.New("mongodb: database must not be nil")
	}
	if collection == "" {
		return nil, errors.New("mongodb: collection must not be empty")
	}
	return &SessionCollection[E]{coll: db.Collection(string(collection))}, nil
}

// EnsureIndexes creates the owner listing index.
func (c *SessionCollection[E]) EnsureIndexes(ctx context.Context) error {
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongodb: EnsureIndexes %s: %w", c.coll.Name(), err)
	}
	return nil
}

func (c *SessionCollection[E]) Create(ctx context.Context, s domain.Session[E]) error {
	if s.ID == "" || s.UserID == "" {
		return errors.New("mongodb: Create: session id and user id are required")
	}
	entries := s.Entries
	if entries == nil {
		// $push needs an array to append to.
		entries = []E{}
	}
	_, err := c.coll.InsertOne(ctx, sessionDoc[E]{
		ID:        s.ID,
		UserID:    s.UserID,
		Title:     s.Title,
		Entries:   entries,
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("mongodb: Create: %w", err)
	}
	return nil
}

func (c *SessionCollection[E]) Get(ctx context.Context, sessionID, userID string) (domain.Session[E], error) {
	var doc sessionDoc[E]
	err := c.coll.FindOne(ctx, ownerFilter(sessionID, userID)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Session[E]{}, fmt.Errorf("mongodb: Get %s: %w", sessionID, repository.ErrNotFound)
		}
		return domain.Session[E]{}, fmt.Errorf("mongodb: Get: %w", err)
	}
	return doc.session(), nil
}

func (c *SessionCollection[E]) Append(ctx context.Context, sessionID, userID string, in repository.AppendInput[E]) (domain.Session[E], error) {
	now := in.UpdatedAt
	if now.IsZero() {
		now = time.Now()
	}
	entries := in.Entries
	if entries == nil {
		entries = []E{}
	}
	set := bson.M{"updated_at": now.UTC()}
	if in.Title != "" {
		set["title"] = in.Title
	}
	update := bson.M{
		"$push": bson.M{"entries": bson.M{"$each": entries}},
		"$set":  set,
	}

	var doc sessionDoc[E]
	err := c.coll.FindOneAndUpdate(ctx, ownerFilter(sessionID, userID), update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Session[E]{}, fmt.Errorf("mongodb: Append %s: %w", sessionID, repository.ErrNotFound)
		}
		return domain.Session[E]{}, fmt.Errorf("mongodb: Append: %w", err)
	}
	return doc.session(), nil
}

func (c *SessionCollection[E]) Delete(ctx context.Context, sessionID, userID string) error {
	res, err := c.coll.DeleteOne(ctx, ownerFilter(sessionID, userID))
	if err != nil {
		return fmt.Errorf("mongodb: Delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("mongodb: Delete %s: %w", sessionID, repository.ErrNotFound)
	}
	return nil
}

// summaryDoc is a session without its entries, as read by List.
type summaryDoc struct {
	ID         string    `bson:"_id"`
	Title      string    `bson:"title"`
	EntryCount int       `bson:"entry_count"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// summaryProjection counts entries on the server so List never loads them.
// Needs MongoDB 4.4 or later.
func summaryProjection() bson.D {
	return bson.D{
		{Key: "title", Value: 1},
		{Key: "created_at", Value: 1},
		{Key: "updated_at", Value: 1},
		{Key: "entry_count", Value: bson.M{"$size": bson.M{"$ifNull": bson.A{"$entries", bson.A{}}}}},
	}
}

func (c *SessionCollection[E]) List(ctx context.Context, userID string) ([]domain.SessionSummary, error) {
	cur, err := c.coll.Find(ctx, bson.M{"user_id": userID},
		options.Find().
			SetProjection(summaryProjection()).
			SetSort(bson.D{{Key: "updated_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("mongodb: List find: %w", err)
	}
	var docs []summaryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongodb: List decode: %w", err)
	}

	out := make([]domain.SessionSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.SessionSummary{
			ID:         d.ID,
			Title:      d.Title,
			EntryCount: d.EntryCount,
			CreatedAt:  d.CreatedAt,
			UpdatedAt:  d.UpdatedAt,
		})
	}
	return out, nil
}

func ownerFilter(sessionID, userID string) bson.M {
	return bson.M{"_id": sessionID, "user_id": userID}
}

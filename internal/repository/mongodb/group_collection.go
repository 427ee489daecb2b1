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

type groupDoc struct {
	ID        string                `bson:"_id"`
	Name      string                `bson:"name"`
	Type      string                `bson:"type"`
	CreatorID string                `bson:"creator_id"`
	Members   []string              `bson:"members"`
	Messages  []domain.GroupMessage `bson:"messages"`
	CreatedAt time.Time             `bson:"created_at"`
	UpdatedAt time.Time             `bson:"updated_at"`
}

func (d groupDoc) group() domain.Group {
	return domain.Group{
		ID:        d.ID,
		Name:      d.Name,
		Type:      d.Type,
		CreatorID: d.CreatorID,
		Members:   d.Members,
		Messages:  d.Messages,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// GroupCollection implements repository.GroupStore.
type GroupCollection struct {
	coll *mongo.Collection
}

func NewGroupCollection(db *mongo.Database) (*GroupCollection, error) {
	if db == nil {
		return nil, errors.New("mongodb: database must not be nil")
	}
	return &GroupCollection{coll: db.Collection(string(domain.CollectionGroups))}, nil
}

func (c *GroupCollection) CreateGroup(ctx context.Context, g domain.Group) error {
	messages := g.Messages
	if messages == nil {
		messages = []domain.GroupMessage{}
	}
	_, err := c.coll.InsertOne(ctx, groupDoc{
		ID:        g.ID,
		Name:      g.Name,
		Type:      g.Type,
		CreatorID: g.CreatorID,
		Members:   g.Members,
		Messages:  messages,
		CreatedAt: g.CreatedAt.UTC(),
		UpdatedAt: g.UpdatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("mongodb: CreateGroup: %w", err)
	}
	return nil
}

func (c *GroupCollection) GetGroup(ctx context.Context, groupID string) (domain.Group, error) {
	var doc groupDoc
	if err := c.coll.FindOne(ctx, bson.M{"_id": groupID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Group{}, fmt.Errorf("mongodb: GetGroup %s: %w", groupID, repository.ErrNotFound)
		}
		return domain.Group{}, fmt.Errorf("mongodb: GetGroup: %w", err)
	}
	return doc.group(), nil
}

func (c *GroupCollection) AddMember(ctx context.Context, groupID, userID string) (domain.Group, error) {
	update := bson.M{
		"$addToSet": bson.M{"members": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	var doc groupDoc
	err := c.coll.FindOneAndUpdate(ctx, bson.M{"_id": groupID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Group{}, fmt.Errorf("mongodb: AddMember %s: %w", groupID, repository.ErrNotFound)
		}
		return domain.Group{}, fmt.Errorf("mongodb: AddMember: %w", err)
	}
	return doc.group(), nil
}

func (c *GroupCollection) AppendGroupMessage(ctx context.Context, groupID string, msg domain.GroupMessage) error {
	res, err := c.coll.UpdateOne(ctx, bson.M{"_id": groupID}, bson.M{
		"$push": bson.M{"messages": msg},
		"$set":  bson.M{"updated_at": msg.Timestamp.UTC()},
	})
	if err != nil {
		return fmt.Errorf("mongodb: AppendGroupMessage: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mongodb: AppendGroupMessage %s: %w", groupID, repository.ErrNotFound)
	}
	return nil
}

func (c *GroupCollection) DeleteGroup(ctx context.Context, groupID string) error {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": groupID})
	if err != nil {
		return fmt.Errorf("mongodb: DeleteGroup: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("mongodb: DeleteGroup %s: %w", groupID, repository.ErrNotFound)
	}
	return nil
}

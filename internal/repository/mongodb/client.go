// Package mongodb implements the session and group stores on MongoDB, one
// collection per feature.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect opens a client, verifies it with a ping and returns the named
// database. Callers release it with db.Client().Disconnect.
func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, errors.New("mongodb: uri must not be empty")
	}
	if strings.TrimSpace(database) == "" {
		return nil, errors.New("mongodb: database must not be empty")
	}

	// Nested request/response documents decode as plain maps so they render
	// as JSON objects.
	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb: ping: %w", err)
	}
	return client.Database(database), nil
}

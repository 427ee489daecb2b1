package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"omniai/internal/domain"
	"omniai/internal/repository"
)

// testDatabase connects to MONGODB_TEST_URI and returns a throwaway database
// that is dropped when the test ends.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Connect(ctx, uri, "omniai_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = db.Client().Disconnect(ctx)
	})
	return db
}

func TestConnect_ValidatesArguments(t *testing.T) {
	_, err := Connect(context.Background(), "", "db")
	require.Error(t, err)
	_, err = Connect(context.Background(), "mongodb://localhost", " ")
	require.Error(t, err)
}

func TestNewSessionCollection_Validates(t *testing.T) {
	_, err := NewSessionCollection[domain.Message](nil, domain.CollectionChat)
	require.Error(t, err)
	_, err = NewGroupCollection(nil)
	require.Error(t, err)
}

func TestSummaryProjection_CountsEntriesWithoutLoadingThem(t *testing.T) {
	proj := bson.M{}
	for _, e := range summaryProjection() {
		proj[e.Key] = e.Value
	}
	_, loadsEntries := proj["entries"]
	require.False(t, loadsEntries)
	require.Equal(t, 1, proj["title"])

	count, ok := proj["entry_count"].(bson.M)
	require.True(t, ok)
	require.Contains(t, count, "$size")
}

func TestSessionCollection_Lifecycle(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	coll, err := NewSessionCollection[domain.Interaction](db, domain.CollectionBusiness)
	require.NoError(t, err)
	require.NoError(t, coll.EnsureIndexes(ctx))

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, coll.Create(ctx, domain.Session[domain.Interaction]{
		ID: "s1", UserID: "u1", Title: "New Business Session", CreatedAt: now, UpdatedAt: now,
	}))

	s, err := coll.Append(ctx, "s1", "u1", repository.AppendInput[domain.Interaction]{
		Entries: []domain.Interaction{{
			Tool:      "Ad Generator",
			Request:   map[string]any{"product_name": "Lamp", "details": map[string]any{"tone": "fun"}},
			Response:  map[string]any{"content": "Buy it"},
			Timestamp: now,
		}},
		Title:     "Lamp ads",
		UpdatedAt: now.Add(time.Second),
	})
	require.NoError(t, err)
	require.Equal(t, "Lamp ads", s.Title)
	require.Len(t, s.Entries, 1)
	require.Equal(t, "Buy it", s.Entries[0].Response["content"])

	_, err = coll.Get(ctx, "s1", "other")
	require.ErrorIs(t, err, repository.ErrNotFound)

	list, err := coll.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 1, list[0].EntryCount)

	require.NoError(t, coll.Delete(ctx, "s1", "u1"))
	require.ErrorIs(t, coll.Delete(ctx, "s1", "u1"), repository.ErrNotFound)
}

func TestGroupCollection_Lifecycle(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	groups, err := NewGroupCollection(db)
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, groups.CreateGroup(ctx, domain.Group{
		ID: "g1", Name: "Study", Type: domain.GroupTypeStudent, CreatorID: "u1", Members: []string{"u1"},
		CreatedAt: now, UpdatedAt: now,
	}))

	g, err := groups.AddMember(ctx, "g1", "u2")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"u1", "u2"}, g.Members)

	require.NoError(t, groups.AppendGroupMessage(ctx, "g1", domain.GroupMessage{ID: "m1", UserID: "u1", Content: "hi", Timestamp: now}))
	g, err = groups.GetGroup(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, g.Messages, 1)

	require.NoError(t, groups.DeleteGroup(ctx, "g1"))
	require.ErrorIs(t, groups.DeleteGroup(ctx, "g1"), repository.ErrNotFound)
}

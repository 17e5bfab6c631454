package tablestore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ykhdr/rainbow-hash/internal/store/mongo"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// newTestMongoStore connects to the server named by MONGODB_URI and returns a
// store in a throwaway database.
func newTestMongoStore(t *testing.T) *MongoStore {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set")
	}
	client, err := mongo.NewClient(&mongo.ClientConfig{URI: uri})
	require.NoError(t, err)
	db := client.Database("rainbow-test-" + uuid.NewString())
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return NewMongoStore(db, "")
}

func TestMongoStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestMongoStore(t)

	exists, err := store.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
	_, err = store.Load(ctx)
	assert.True(t, errors.Is(err, NotFoundErr))

	table := buildTable(t, "alpha", "bravo", "charlie", "", "snowman ☃")
	require.NoError(t, store.Save(ctx, table))

	exists, err = store.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, table.Equal(loaded))
	assert.Equal(t, 10, loaded.ChainLength())
}

func TestMongoStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := newTestMongoStore(t)
	require.NoError(t, store.Save(ctx, buildTable(t, "alpha", "bravo")))
	second := buildTable(t, "charlie")
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, second.Equal(loaded))

	names, err := store.database.ListCollectionNames(ctx, bson.M{"name": DefaultCollection + stagingSuffix})
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestMongoStoreEmptyTable(t *testing.T) {
	ctx := context.Background()
	store := newTestMongoStore(t)
	require.NoError(t, store.Save(ctx, buildTable(t)))
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
}

func TestMongoStoreFailedSaveKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	store := newTestMongoStore(t)
	first := buildTable(t, "alpha", "bravo")
	require.NoError(t, store.Save(ctx, first))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.Error(t, store.Save(cancelled, buildTable(t, "charlie")))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, first.Equal(loaded))
}

func TestMongoStoreSizeMismatchIsCorrupt(t *testing.T) {
	ctx := context.Background()
	store := newTestMongoStore(t)
	require.NoError(t, store.Save(ctx, buildTable(t, "alpha", "bravo")))

	_, err := store.database.Collection(MetaCollection).UpdateOne(ctx,
		bson.M{"_id": DefaultCollection},
		bson.M{"$set": bson.M{"size": 3}})
	require.NoError(t, err)

	_, err = store.Load(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, CorruptErr), "unexpected error: %v", err)
}

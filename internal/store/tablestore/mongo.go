package tablestore

import (
	"context"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/ykhdr/rainbow-hash/internal/rainbow"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	MetaCollection    = "tables"
	DefaultCollection = "chains"

	insertBatchSize = 10000
	stagingSuffix   = ".staging"
)

type chainDocument struct {
	Endpoint string `bson:"_id"`
	Seed     string `bson:"seed"`
}

type metaDocument struct {
	Name        string `bson:"_id"`
	ChainLength int    `bson:"chain_length"`
	Size        int    `bson:"size"`
}

// MongoStore keeps one document per chain in its collection and the table
// metadata in MetaCollection, keyed by the collection name.
type MongoStore struct {
	l          zerolog.Logger
	database   *mongo.Database
	collection string
}

func NewMongoStore(database *mongo.Database, collection string) *MongoStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &MongoStore{
		database:   database,
		collection: collection,
		l: log.With().
			Str("domain", "tablestore").
			Str("type", "mongo").
			Str("collection", collection).
			Logger(),
	}
}

func (s *MongoStore) Exists(ctx context.Context) (bool, error) {
	_, err := s.loadMeta(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, NotFoundErr) {
		return false, nil
	}
	return false, err
}

func (s *MongoStore) loadMeta(ctx context.Context) (*metaDocument, error) {
	var meta metaDocument
	err := s.database.Collection(MetaCollection).FindOne(ctx, bson.M{"_id": s.collection}).Decode(&meta)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NotFoundErr
		}
		return nil, errors.Wrap(err, "failed to load table metadata")
	}
	return &meta, nil
}

func (s *MongoStore) Load(ctx context.Context) (*rainbow.Table, error) {
	meta, err := s.loadMeta(ctx)
	if err != nil {
		return nil, err
	}
	cursor, err := s.database.Collection(s.collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to query chains")
	}
	defer func() { _ = cursor.Close(ctx) }()
	entries := make(map[string]string, meta.Size)
	for cursor.Next(ctx) {
		var doc chainDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrapf(CorruptErr, "decode chain: %v", err)
		}
		entries[doc.Endpoint] = doc.Seed
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read chains")
	}
	if len(entries) != meta.Size {
		return nil, errors.Wrapf(CorruptErr, "expected %d chains, found %d", meta.Size, len(entries))
	}
	table, err := rainbow.FromEntries(meta.ChainLength, entries)
	if err != nil {
		return nil, errors.Wrapf(CorruptErr, "%v", err)
	}
	s.l.Debug().Int("entries", table.Len()).Msg("table loaded")
	return table, nil
}

// Save replaces any table previously stored under the same collection. The
// chains are written to a staging collection which is renamed over the live
// one once complete, so a failed save leaves the previous table loadable.
func (s *MongoStore) Save(ctx context.Context, table *rainbow.Table) error {
	staging := s.collection + stagingSuffix
	coll := s.database.Collection(staging)
	if err := coll.Drop(ctx); err != nil {
		return errors.Wrap(err, "failed to drop staging chains")
	}
	if err := s.database.CreateCollection(ctx, staging); err != nil {
		return errors.Wrap(err, "failed to create staging chains")
	}
	batch := make([]chainDocument, 0, min(insertBatchSize, table.Len()))
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := coll.InsertMany(ctx, batch, options.InsertMany().SetOrdered(true)); err != nil {
			return errors.Wrap(err, "failed to insert chains")
		}
		s.l.Trace().Int("count", len(batch)).Msg("chains inserted")
		batch = batch[:0]
		return nil
	}
	var err error
	table.Range(func(endpoint, seed string) bool {
		batch = append(batch, chainDocument{Endpoint: endpoint, Seed: seed})
		if len(batch) == insertBatchSize {
			err = flush()
		}
		return err == nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		_ = coll.Drop(ctx)
		return err
	}

	// Between the rename and the metadata write the stored size disagrees with
	// the chains, which Load reports as corrupt rather than loading a mix.
	db := s.database.Name()
	rename := bson.D{
		{Key: "renameCollection", Value: db + "." + staging},
		{Key: "to", Value: db + "." + s.collection},
		{Key: "dropTarget", Value: true},
	}
	if err := s.database.Client().Database("admin").RunCommand(ctx, rename).Err(); err != nil {
		_ = coll.Drop(ctx)
		return errors.Wrap(err, "failed to swap in chains")
	}
	meta := metaDocument{
		Name:        s.collection,
		ChainLength: table.ChainLength(),
		Size:        table.Len(),
	}
	_, err = s.database.Collection(MetaCollection).ReplaceOne(ctx, bson.M{"_id": s.collection}, meta, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(err, "failed to save table metadata")
	}
	s.l.Debug().Int("entries", table.Len()).Msg("table saved")
	return nil
}

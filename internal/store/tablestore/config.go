package tablestore

import (
	"context"
	"github.com/pkg/errors"
	"github.com/ykhdr/rainbow-hash/internal/store/mongo"
)

const (
	FileType  = "file"
	MongoType = "mongo"

	DefaultPath = "rainbow_table.json"
)

var ErrUnknownStoreType = errors.New("unknown table store type")

type Config struct {
	Type        string        `kdl:"type"`
	Path        string        `kdl:"path"`
	Collection  string        `kdl:"collection"`
	MongoConfig *mongo.Config `kdl:"mongodb"`
}

func DefaultConfig() *Config {
	return &Config{
		Type:       FileType,
		Path:       DefaultPath,
		Collection: DefaultCollection,
	}
}

type CloseFunc func(ctx context.Context) error

// New opens the store described by cfg. The returned CloseFunc releases any
// connection the store holds.
func New(cfg *Config) (Store, CloseFunc, error) {
	switch cfg.Type {
	case "", FileType:
		path := cfg.Path
		if path == "" {
			path = DefaultPath
		}
		return NewFileStore(path), func(context.Context) error { return nil }, nil
	case MongoType:
		if cfg.MongoConfig == nil {
			return nil, nil, errors.New("mongodb store requires mongodb config")
		}
		client, err := mongo.NewClient(&cfg.MongoConfig.ClientConfig)
		if err != nil {
			return nil, nil, err
		}
		store := NewMongoStore(client.Database(cfg.MongoConfig.Database), cfg.Collection)
		return store, client.Disconnect, nil
	default:
		return nil, nil, errors.Wrap(ErrUnknownStoreType, cfg.Type)
	}
}

package tablestore

import (
	"context"
	"github.com/pkg/errors"
	"github.com/ykhdr/rainbow-hash/internal/rainbow"
)

var (
	NotFoundErr = errors.New("table not found")
	CorruptErr  = errors.New("table is corrupt")
)

// Store persists a single rainbow table.
type Store interface {
	Exists(ctx context.Context) (bool, error)
	Load(ctx context.Context) (*rainbow.Table, error)
	Save(ctx context.Context, table *rainbow.Table) error
}

package tablestore

import (
	"bufio"
	"context"
	"encoding/json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/ykhdr/rainbow-hash/internal/rainbow"
	"os"
	"path/filepath"
)

// fileDocument is the on-disk layout. Files written without chain_length
// load with an unknown chain length.
type fileDocument struct {
	ChainLength int               `json:"chain_length,omitempty"`
	Table       map[string]string `json:"table"`
}

type FileStore struct {
	l    zerolog.Logger
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		l: log.With().
			Str("domain", "tablestore").
			Str("type", "file").
			Str("path", path).
			Logger(),
	}
}

func (s *FileStore) Exists(_ context.Context) (bool, error) {
	_, err := os.Stat(s.path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrap(err, "failed to stat table file")
}

func (s *FileStore) Load(_ context.Context) (*rainbow.Table, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(NotFoundErr, s.path)
		}
		return nil, errors.Wrap(err, "failed to open table file")
	}
	defer func() { _ = f.Close() }()

	doc, err := decodeDocument(json.NewDecoder(bufio.NewReader(f)))
	if err != nil {
		s.l.Error().Err(err).Msg("failed to decode table")
		return nil, errors.Wrapf(CorruptErr, "%s: %v", s.path, err)
	}
	if doc.Table == nil {
		return nil, errors.Wrapf(CorruptErr, "%s: missing table", s.path)
	}
	table, err := rainbow.FromEntries(doc.ChainLength, doc.Table)
	if err != nil {
		return nil, errors.Wrapf(CorruptErr, "%s: %v", s.path, err)
	}
	s.l.Debug().Int("entries", table.Len()).Msg("table loaded")
	return table, nil
}

// decodeDocument reads a fileDocument token by token. Unlike Decode it
// rejects a table object that repeats an endpoint.
func decodeDocument(dec *json.Decoder) (*fileDocument, error) {
	var doc fileDocument
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch key {
		case "chain_length":
			err = dec.Decode(&doc.ChainLength)
		case "table":
			doc.Table, err = decodeEntries(dec)
		default:
			var skip json.RawMessage
			err = dec.Decode(&skip)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return &doc, nil
}

func decodeEntries(dec *json.Decoder) (map[string]string, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	entries := make(map[string]string)
	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return nil, err
		}
		endpoint, ok := key.(string)
		if !ok {
			return nil, errors.Errorf("unexpected table key %v", key)
		}
		var seed string
		if err := dec.Decode(&seed); err != nil {
			return nil, errors.Wrapf(err, "endpoint %s", endpoint)
		}
		if _, dup := entries[endpoint]; dup {
			return nil, errors.Errorf("duplicate endpoint %s", endpoint)
		}
		entries[endpoint] = seed
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return entries, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return errors.Errorf("expected %v, got %v", want, tok)
	}
	return nil
}

// Save writes the table to a temporary file next to the target and renames it
// into place.
func (s *FileStore) Save(_ context.Context, table *rainbow.Table) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create table file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := bufio.NewWriter(tmp)
	doc := fileDocument{
		ChainLength: table.ChainLength(),
		Table:       table.Entries(),
	}
	if err := json.NewEncoder(w).Encode(&doc); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "failed to encode table")
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "failed to write table file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close table file")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(err, "failed to replace table file")
	}
	s.l.Debug().Int("entries", table.Len()).Msg("table saved")
	return nil
}

package seed

import (
	"bufio"
	"github.com/pkg/errors"
	"github.com/ykhdr/rainbow-hash/internal/rainbow"
	"io"
	"os"
	"strings"
)

const maxLineSize = 1 << 20

var ErrSourceUnavailable = errors.New("seed source unavailable")

// Source yields candidate plaintexts in order.
type Source = rainbow.SeedSource

// ReaderSource reads one seed per line. A trailing carriage return is
// stripped; an empty line is the empty seed.
type ReaderSource struct {
	scanner *bufio.Scanner
	text    string
	closer  io.Closer
}

func NewReaderSource(r io.Reader) *ReaderSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &ReaderSource{scanner: scanner}
}

// Open opens a line-oriented seed file. The caller must Close it.
func Open(path string) (*ReaderSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrSourceUnavailable, "%s: %v", path, err)
	}
	src := NewReaderSource(f)
	src.closer = f
	return src, nil
}

func (s *ReaderSource) Scan() bool {
	if !s.scanner.Scan() {
		return false
	}
	s.text = strings.TrimSuffix(s.scanner.Text(), "\r")
	return true
}

func (s *ReaderSource) Text() string {
	return s.text
}

func (s *ReaderSource) Err() error {
	if err := s.scanner.Err(); err != nil {
		return errors.Wrap(err, "failed to read seeds")
	}
	return nil
}

func (s *ReaderSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

type sliceSource struct {
	seeds []string
	idx   int
}

// FromSlice returns a Source over an in-memory list of seeds.
func FromSlice(seeds []string) Source {
	return &sliceSource{seeds: seeds}
}

func (s *sliceSource) Scan() bool {
	if s.idx >= len(s.seeds) {
		return false
	}
	s.idx++
	return true
}

func (s *sliceSource) Text() string {
	return s.seeds[s.idx-1]
}

func (s *sliceSource) Err() error {
	return nil
}

package store

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/stefanpenner/analog/pkg/board"
)

// DefaultFilename is the snapshot file name inside the data directory.
const DefaultFilename = "analog-board.json"

// ErrNoSnapshot is returned by Read when nothing has been stored yet.
var ErrNoSnapshot = errors.New("no stored board")

// FileStore keeps the board snapshot in a single file. The codec follows the
// file extension (see CodecForPath).
type FileStore struct {
	Path string

	codec  Codec
	logger *log.Logger
	mu     sync.Mutex
	synced [sha256.Size]byte // hash of the bytes last read or written
}

// NewFileStore creates a FileStore for path, creating its parent directory
// if it doesn't exist. A nil logger means log.Default().
func NewFileStore(path string, logger *log.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FileStore{Path: path, codec: CodecForPath(path), logger: logger}, nil
}

// Codec returns the codec the store reads and writes with.
func (s *FileStore) Codec() Codec {
	return s.codec
}

// Read loads and validates the stored snapshot.
func (s *FileStore) Read() (board.State, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return board.State{}, ErrNoSnapshot
	}
	if err != nil {
		return board.State{}, fmt.Errorf("reading %s: %w", s.Path, err)
	}
	st, err := decodeSnapshot(s.codec, data)
	if err != nil {
		return board.State{}, fmt.Errorf("%s: %w", s.Path, err)
	}
	s.mu.Lock()
	s.synced = sha256.Sum256(data)
	s.mu.Unlock()
	return st, nil
}

// Write replaces the snapshot atomically. Concurrent writers are serialized
// and a reader never sees a partial file.
func (s *FileStore) Write(st board.State) error {
	data, err := s.codec.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding board: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := atomicWriteFile(s.Path, data, 0644); err != nil {
		return err
	}
	s.synced = sha256.Sum256(data)
	return nil
}

// Changed reports whether the file now holds something other than what this
// store last read or wrote successfully. A file that cannot be read counts as
// changed.
func (s *FileStore) Changed() bool {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return true
	}
	sum := sha256.Sum256(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	return sum != s.synced
}

// Load implements board.Storage.
func (s *FileStore) Load() (board.State, bool) {
	return loadBestEffort(s.logger, s.Path, s.Read)
}

// Save implements board.Storage.
func (s *FileStore) Save(st board.State) {
	saveBestEffort(s.logger, s.Path, st, s.Write)
}

// atomicWriteFile writes data to a temp file in the same directory and
// renames it over path.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("syncing %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Chmod(tmp, perm); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

func loadBestEffort(logger *log.Logger, where string, read func() (board.State, error)) (board.State, bool) {
	st, err := read()
	switch {
	case errors.Is(err, ErrNoSnapshot):
		logger.Debug("no stored board", "at", where)
		return board.State{}, false
	case err != nil:
		logger.Warn("ignoring unreadable board", "at", where, "err", err)
		return board.State{}, false
	}
	return st, true
}

func saveBestEffort(logger *log.Logger, where string, st board.State, write func(board.State) error) {
	if err := write(st); err != nil {
		logger.Error("saving board", "at", where, "err", err)
	}
}

// Package cas keeps encoded series outputs in a content-addressed store.
// Blobs are addressed by the SHA-256 of their uncompressed bytes, with a
// BLAKE3 pointer alongside. Blobs may be xz-compressed at rest.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/FocuswithJustin/ringconv/internal/fileutil"
	"github.com/FocuswithJustin/ringconv/internal/logging"
)

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// tempFileWrite is a function variable for writing to temp files (for testing).
var tempFileWrite = func(f *os.File, data []byte) (int, error) {
	return f.Write(data)
}

// tempFileClose is a function variable for closing temp files (for testing).
var tempFileClose = func(f io.Closer) error {
	return f.Close()
}

// ErrBlobNotFound is returned when a blob with the given hash does not exist.
var ErrBlobNotFound = errors.New("blob not found")

// ErrInvalidHash is returned when a hash string is not 64 lowercase hex digits.
var ErrInvalidHash = errors.New("invalid hash format")

// ErrCorrupt is returned when a blob no longer matches its address.
var ErrCorrupt = errors.New("blob content does not match its hash")

var hashPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Store is a content-addressed blob store rooted at a directory.
type Store struct {
	root     string
	compress bool
}

// Option configures a Store.
type Option func(*Store)

// WithCompression stores new blobs xz-compressed.
func WithCompression(on bool) Option {
	return func(s *Store) { s.compress = on }
}

// NewStore opens (creating if needed) a store at root.
func NewStore(root string, opts ...Option) (*Store, error) {
	blobDir := filepath.Join(root, "blobs", "sha256")
	if err := os.MkdirAll(blobDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	s := &Store{root: root}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the store directory.
func (s *Store) Root() string { return s.root }

// Store writes data and returns its SHA-256 hash. Storing existing content
// is a no-op.
func (s *Store) Store(data []byte) (string, error) {
	hash := Hash(data)

	blobPath := s.pathForHash(hash)
	if _, err := os.Stat(blobPath); err == nil {
		return hash, nil
	}

	payload := data
	if s.compress {
		packed, err := fileutil.CompressXZ(data)
		if err != nil {
			return "", fmt.Errorf("failed to compress blob: %w", err)
		}
		payload = packed
	}

	if err := s.writeAtomic(filepath.Dir(blobPath), blobPath, ".blob-*", payload); err != nil {
		return "", err
	}
	logging.StoreEvent(hash, int64(len(data)), "stored_size", len(payload))
	return hash, nil
}

// Retrieve returns the blob with the given SHA-256 hash and checks it
// against the hash. Blobs stored compressed are unwrapped; an output that
// is itself xz data is returned as is.
func (s *Store) Retrieve(hash string) ([]byte, error) {
	if !isValidHash(hash) {
		return nil, ErrInvalidHash
	}

	raw, err := os.ReadFile(s.pathForHash(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}

	if Hash(raw) == hash {
		return raw, nil
	}
	data, err := fileutil.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, hash)
	}
	if Hash(data) != hash {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, hash)
	}
	return data, nil
}

// Exists reports whether a blob with the given hash is present.
func (s *Store) Exists(hash string) bool {
	if !isValidHash(hash) {
		return false
	}
	_, err := os.Stat(s.pathForHash(hash))
	return err == nil
}

// pathForHash returns <root>/blobs/sha256/<first2>/<hash>.
func (s *Store) pathForHash(hash string) string {
	return filepath.Join(s.root, "blobs", "sha256", hash[:2], hash)
}

func (s *Store) writeAtomic(dir, dst, pattern string, data []byte) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create prefix directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFileWrite(tempFile, data); err != nil {
		tempFileClose(tempFile)
		os.Remove(tempPath)
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tempFileClose(tempFile); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := osRename(tempPath, dst); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename blob: %w", err)
	}
	return nil
}

func isValidHash(hash string) bool {
	return hashPattern.MatchString(hash)
}

// Hash computes the SHA-256 address of data without storing it.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

package cas

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// HashResult contains both addresses of a stored output.
type HashResult struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
	Size   int    `json:"size"`
}

// pointer is the content of a BLAKE3 pointer file.
type pointer struct {
	SHA256 string `json:"sha256"`
	Format string `json:"format,omitempty"`
}

// Put stores an encoded output and records a BLAKE3 pointer to it. format
// names the codec that produced data and is kept in the pointer.
func (s *Store) Put(data []byte, format string) (*HashResult, error) {
	sha, err := s.Store(data)
	if err != nil {
		return nil, err
	}

	b3 := Blake3Hash(data)
	if err := s.writePointer(b3, pointer{SHA256: sha, Format: format}); err != nil {
		return nil, fmt.Errorf("failed to create BLAKE3 pointer: %w", err)
	}
	return &HashResult{SHA256: sha, BLAKE3: b3, Size: len(data)}, nil
}

// pointerPath returns <root>/blobs/blake3/<first2>/<hash>.json.
func (s *Store) pointerPath(b3 string) string {
	return filepath.Join(s.root, "blobs", "blake3", b3[:2], b3+".json")
}

func (s *Store) writePointer(b3 string, p pointer) error {
	path := s.pointerPath(b3)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal pointer: %w", err)
	}
	return s.writeAtomic(filepath.Dir(path), path, ".pointer-*", data)
}

// Lookup resolves a BLAKE3 hash to its SHA-256 address and the format
// recorded when it was stored.
func (s *Store) Lookup(b3 string) (sha256 string, format string, err error) {
	if !isValidHash(b3) {
		return "", "", ErrInvalidHash
	}

	data, err := os.ReadFile(s.pointerPath(b3))
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", ErrBlobNotFound
		}
		return "", "", fmt.Errorf("failed to read pointer: %w", err)
	}

	var p pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return "", "", fmt.Errorf("failed to parse pointer: %w", err)
	}
	return p.SHA256, p.Format, nil
}

// Get retrieves an output by either of its addresses.
func (s *Store) Get(hash string) ([]byte, error) {
	if s.Exists(hash) {
		return s.Retrieve(hash)
	}
	sha, _, err := s.Lookup(hash)
	if err != nil {
		return nil, err
	}
	return s.Retrieve(sha)
}

// Blake3Hash computes the BLAKE3 hash of data without storing it.
func Blake3Hash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Package archive keeps full captured tool output in a content-addressed
// blob store so evidence records can stay small.
package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

// Ref points at a stored blob by content hash.
type Ref struct {
	SHA256 string `json:"sha256"`
}

// Store manages the content-addressed archive.
type Store struct {
	BasePath string
}

// NewStore creates a new archive store. With an empty basePath the archive
// lives under ~/.crosscheck/archive.
func NewStore(basePath string) (*Store, error) {
	if basePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		basePath = filepath.Join(home, ".crosscheck", "archive")
	}

	if err := os.MkdirAll(filepath.Join(basePath, "objects"), 0755); err != nil {
		return nil, err
	}

	return &Store{BasePath: basePath}, nil
}

// StoreBlob stores raw bytes by SHA256 content hash in a sharded directory
// structure and returns a ref. Storing the same content twice is a no-op.
func (s *Store) StoreBlob(data []byte) (Ref, error) {
	hashBytes := sha256.Sum256(data)
	hash := hex.EncodeToString(hashBytes[:])

	// Shard by first 2 chars
	shard := hash[:2]
	dir := filepath.Join(s.BasePath, "objects", shard)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Ref{}, err
	}

	path := filepath.Join(dir, hash)
	if _, err := os.Stat(path); err == nil {
		return Ref{SHA256: hash}, nil
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return Ref{}, err
	}

	return Ref{SHA256: hash}, nil
}

// Read returns the blob for a ref.
func (s *Store) Read(ref Ref) ([]byte, error) {
	path := filepath.Join(s.BasePath, "objects", ref.SHA256[:2], ref.SHA256)
	return os.ReadFile(path)
}

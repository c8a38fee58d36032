package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalPrefix marks identifiers minted by the local fallback tier.
const LocalPrefix = "local-"

// LocalStore is the disk-backed fallback tier. Blobs live under a
// two-level directory sharded by the first 4 hex characters of the
// content hash, which keeps directory fan-out bounded and makes write
// targets disjoint for distinct content, so no locking is needed.
type LocalStore struct {
	root string
}

// NewLocalStore creates a local store rooted at dir
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{root: dir}
}

type blobMeta struct {
	OriginalName string    `json:"original_name,omitempty"`
	SizeBytes    int64     `json:"size_bytes"`
	Created      time.Time `json:"created"`
}

// Identifier returns the deterministic local identifier for content:
// "local-" + hex(sha256(content)).
func Identifier(content []byte) string {
	sum := sha256.Sum256(content)
	return LocalPrefix + hex.EncodeToString(sum[:])
}

// IsLocal reports whether id was minted by the local fallback tier
func IsLocal(id string) bool {
	return strings.HasPrefix(id, LocalPrefix)
}

// Put writes content under its content-derived identifier and returns it.
// Re-storing identical bytes overwrites the same path without error.
func (s *LocalStore) Put(content []byte, originalName string) (string, error) {
	id := Identifier(content)

	dir := filepath.Dir(s.path(id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create shard dir: %w", err)
	}

	path := s.path(id)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}

	if originalName != "" {
		meta := blobMeta{
			OriginalName: originalName,
			SizeBytes:    int64(len(content)),
			Created:      time.Now().UTC(),
		}
		data, err := json.MarshalIndent(meta, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal meta: %w", err)
		}
		if err := os.WriteFile(path+".meta", data, 0o644); err != nil {
			return "", fmt.Errorf("write meta: %w", err)
		}
	}

	return id, nil
}

// Get reads the blob for a local identifier. The bytes are returned as
// written; the content hash is not re-verified on the read path.
func (s *LocalStore) Get(id string) ([]byte, error) {
	if !IsLocal(id) {
		return nil, fmt.Errorf("%w: %q is not a local identifier", ErrNotFound, id)
	}
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

// Meta reads the sidecar metadata for a local identifier, if present
func (s *LocalStore) Meta(id string) (originalName string, sizeBytes int64, err error) {
	data, err := os.ReadFile(s.path(id) + ".meta")
	if err != nil {
		if os.IsNotExist(err) {
			return "", 0, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return "", 0, fmt.Errorf("read meta: %w", err)
	}
	var meta blobMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", 0, fmt.Errorf("decode meta: %w", err)
	}
	return meta.OriginalName, meta.SizeBytes, nil
}

// Delete removes a blob and its sidecar. Deleting an absent blob
// returns ErrNotFound.
func (s *LocalStore) Delete(id string) error {
	if !IsLocal(id) {
		return fmt.Errorf("%w: %q is not a local identifier", ErrNotFound, id)
	}
	path := s.path(id)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("remove blob: %w", err)
	}
	_ = os.Remove(path + ".meta")
	return nil
}

// path maps an identifier to its sharded location:
// <root>/<h[0:2]>/<h[2:4]>/<id> where h is the hash portion of the id.
func (s *LocalStore) path(id string) string {
	h := strings.TrimPrefix(id, LocalPrefix)
	if len(h) < 4 {
		return filepath.Join(s.root, id)
	}
	return filepath.Join(s.root, h[0:2], h[2:4], id)
}

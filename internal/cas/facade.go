// Package cas provides the content-addressable storage facade: a single
// entry point that persists blobs through a remote distributed store and
// falls back to a local disk tier when the remote is unreachable.
package cas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkang/heritaged/internal/model"
)

// Facade hides which tier actually holds a blob. Clients are injected at
// construction so tests can substitute doubles; there is no package-level
// client state.
type Facade struct {
	remote RemoteStore
	local  *LocalStore
}

// NewFacade builds a facade over the given tiers. remote may be nil, in
// which case every write lands on the local fallback.
func NewFacade(remote RemoteStore, local *LocalStore) *Facade {
	return &Facade{remote: remote, local: local}
}

// Store persists content and returns its content record. The remote tier
// is tried first; on any remote failure the bytes are written to the
// local fallback under a hash-derived identifier. Store fails only when
// both tiers fail.
func (f *Facade) Store(ctx context.Context, content []byte, originalName string) (*model.ContentRecord, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty content", ErrInvalidInput)
	}

	var remoteErr error
	if f.remote != nil {
		id, err := f.remote.Add(ctx, content, originalName)
		if err == nil {
			return &model.ContentRecord{
				Identifier:   id,
				Origin:       model.OriginRemote,
				SizeBytes:    int64(len(content)),
				OriginalName: originalName,
				CreatedAt:    time.Now().UTC(),
			}, nil
		}
		remoteErr = err
	} else {
		remoteErr = errors.New("no remote store configured")
	}

	id, localErr := f.local.Put(content, originalName)
	if localErr != nil {
		return nil, fmt.Errorf("%w: remote: %v; local fallback: %v",
			ErrStorageUnavailable, remoteErr, localErr)
	}

	rec := &model.ContentRecord{
		Identifier:   id,
		Origin:       model.OriginLocalFallback,
		SizeBytes:    int64(len(content)),
		OriginalName: originalName,
		CreatedAt:    time.Now().UTC(),
	}
	rec.SetRemoteErr(remoteErr)
	return rec, nil
}

// Retrieve returns the bytes behind an identifier. Local-fallback
// identifiers are read from disk directly. Remote identifiers go to the
// remote store; the local tier cannot generally serve a remote-origin
// identifier it never wrote, so an unreachable remote surfaces as
// ErrStorageUnavailable rather than being silently swallowed.
func (f *Facade) Retrieve(ctx context.Context, id string) ([]byte, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrInvalidInput)
	}

	if IsLocal(id) {
		return f.local.Get(id)
	}

	if f.remote == nil {
		return nil, fmt.Errorf("%w: no remote store configured for identifier %s",
			ErrStorageUnavailable, id)
	}

	data, err := f.remote.Cat(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return data, nil
}

// Describe reports stored metadata for an identifier without fetching
// the content. Local blobs read their sidecar when one was written;
// remote identifiers are stat'ed on the node.
func (f *Facade) Describe(ctx context.Context, id string) (*model.ContentRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrInvalidInput)
	}

	if IsLocal(id) {
		name, size, err := f.local.Meta(id)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
			// Stored without a sidecar; size comes from the blob itself.
			data, gerr := f.local.Get(id)
			if gerr != nil {
				return nil, gerr
			}
			size = int64(len(data))
		}
		return &model.ContentRecord{
			Identifier:   id,
			Origin:       model.OriginLocalFallback,
			SizeBytes:    size,
			OriginalName: name,
		}, nil
	}

	if f.remote == nil {
		return nil, fmt.Errorf("%w: no remote store configured", ErrStorageUnavailable)
	}
	stat, err := f.remote.Stat(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return &model.ContentRecord{
		Identifier: id,
		Origin:     model.OriginRemote,
		SizeBytes:  stat.Size,
	}, nil
}

// GatewayURL returns the public gateway URL for a remote-origin
// identifier, or "" for local-fallback blobs.
func (f *Facade) GatewayURL(id string) string {
	if id == "" || IsLocal(id) || f.remote == nil {
		return ""
	}
	return f.remote.GatewayURL(id)
}

// RemoteAvailable reports whether a remote tier is configured and
// currently answering
func (f *Facade) RemoteAvailable(ctx context.Context) bool {
	return f.remote != nil && f.remote.IsAvailable(ctx)
}

// Delete removes a blob: local-fallback blobs are deleted from disk,
// remote blobs are unpinned on the node (eventual garbage collection is
// the node's concern).
func (f *Facade) Delete(ctx context.Context, id string) error {
	if IsLocal(id) {
		return f.local.Delete(id)
	}
	if f.remote == nil {
		return fmt.Errorf("%w: no remote store configured", ErrStorageUnavailable)
	}
	if err := f.remote.Unpin(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

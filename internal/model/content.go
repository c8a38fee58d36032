package model

import "time"

// StorageOrigin identifies which tier holds the canonical copy of a blob
type StorageOrigin string

const (
	OriginRemote        StorageOrigin = "remote"
	OriginLocalFallback StorageOrigin = "local-fallback"
)

// ContentRecord describes one stored blob. The identifier is content-derived:
// either a CID assigned by the remote store's own addressing scheme or a
// "local-" prefixed SHA-256 hex digest for fallback writes. Identical bytes
// always map to the identical identifier within a tier.
type ContentRecord struct {
	Identifier   string        `json:"identifier"`
	Origin       StorageOrigin `json:"origin"`
	SizeBytes    int64         `json:"sizeBytes"`
	OriginalName string        `json:"originalName,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`

	// remoteErr records why the remote tier was skipped when the
	// fallback path was taken; nil on the remote-success path.
	remoteErr error
}

// SetRemoteErr records the remote-tier failure that forced a fallback write.
func (r *ContentRecord) SetRemoteErr(err error) { r.remoteErr = err }

// RemoteErr reports the remote-tier failure behind a local-fallback write,
// or nil if the remote store accepted the content.
func (r *ContentRecord) RemoteErr() error { return r.remoteErr }

// Package cache provides the layered (memory + disk) cache used to hold
// remote classification results between requests.
package cache

import "time"

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

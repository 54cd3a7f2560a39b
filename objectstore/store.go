// Package objectstore defines the storage contract the commit protocol
// and catalog facades read and write through. A table's durable state
// lives entirely behind this interface: metadata JSON, manifest and
// manifest-list bytes, and the version-hint file.
package objectstore

import (
	"context"
	"io"
)

// ErrNotFound-style conditions are reported through pkg/errors codes
// (CommonNotFound, CommonConflict) rather than sentinel values, so
// callers use errors.IsCode to branch.

// ObjectStore is the minimal contract the commit protocol needs: get,
// put, a conditional put for optimistic concurrency, delete, and list.
// Backends that cannot offer a true compare-and-swap degrade to Put
// and document the race window; see PutIfAbsent and CompareAndSwap.
type ObjectStore interface {
	// Get returns the full contents of path, or a CommonNotFound error.
	Get(ctx context.Context, path string) ([]byte, error)

	// Put writes data to path unconditionally, overwriting any existing
	// object.
	Put(ctx context.Context, path string, data []byte) error

	// PutIfAbsent writes data to path only if no object currently
	// exists there. Implementations that cannot guarantee atomicity
	// report it via Capabilities().AtomicPutIfAbsent == false; callers
	// must then treat a post-write existence race as a possibility.
	PutIfAbsent(ctx context.Context, path string, data []byte) error

	// CompareAndSwap replaces path's contents with newData only if its
	// current contents equal expected. A mismatch (including a missing
	// object, when expected is non-nil) returns a CommonConflict error.
	CompareAndSwap(ctx context.Context, path string, expected, newData []byte) error

	// Delete removes path. Deleting a missing object is not an error;
	// callers use it for best-effort cleanup.
	Delete(ctx context.Context, path string) error

	// List returns every object path with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Capabilities reports which concurrency primitives the backend
	// can truly guarantee atomically.
	Capabilities() Capabilities
}

// Capabilities advertises which of ObjectStore's conditional
// operations the backend implements natively versus emulates.
type Capabilities struct {
	AtomicPutIfAbsent    bool
	AtomicCompareAndSwap bool
}

// ReadCloserStore is implemented by backends that can stream large
// objects (manifest bodies, manifest-lists) instead of buffering the
// whole object in memory. Optional: callers fall back to Get when a
// store does not implement it.
type ReadCloserStore interface {
	OpenForRead(ctx context.Context, path string) (io.ReadCloser, error)
}

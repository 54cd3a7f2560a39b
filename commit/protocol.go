package commit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/icelake-io/iceberg-engine/objectstore"
	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// Committer runs the publish-and-verify protocol for one table
// location against a backing ObjectStore.
type Committer struct {
	store    objectstore.ObjectStore
	location string
	retry    RetryConfig
	logger   zerolog.Logger
}

// Option configures a Committer at construction time.
type Option func(*Committer)

// WithRetryConfig overrides the default retry bound.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(c *Committer) { c.retry = cfg }
}

// WithLogger attaches a logger; the zero value is zerolog's no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Committer) { c.logger = logger }
}

// NewCommitter builds a Committer for the table rooted at location
// (e.g. "s3://bucket/warehouse/db/table").
func NewCommitter(store objectstore.ObjectStore, location string, opts ...Option) *Committer {
	c := &Committer{
		store:    store,
		location: location,
		retry:    DefaultRetryConfig(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VersionHintPath returns the single durable mutable key for this
// table's location.
func (c *Committer) VersionHintPath() string {
	return c.location + "/metadata/version-hint.text"
}

func (c *Committer) metadataPath(version int) string {
	return fmt.Sprintf("%s/metadata/%d-%s.metadata.json", c.location, version, uuid.NewString())
}

// ReadHint reads the current version-hint contents, translating a
// missing object into the "table does not exist" condition a fresh
// Load step must report.
func (c *Committer) ReadHint(ctx context.Context) ([]byte, error) {
	data, err := c.store.Get(ctx, c.VersionHintPath())
	if err != nil {
		if errors.IsCode(err, errors.CommonNotFound) {
			return nil, errors.New(errors.CommitCode("table_gone"), "table has no version-hint at this location", err).
				AddContext("location", c.location)
		}
		return nil, err
	}
	return data, nil
}

// Commit runs the full propose/write/publish/verify cycle described
// by the engine's commit protocol, retrying on conflict up to the
// configured bound and raising RetryExhaustedError or
// TransactionFailedError when it cannot make progress.
func (c *Committer) Commit(ctx context.Context, initial State, propose ProposeFunc, reload ReloadFunc) (*Result, error) {
	cur := initial
	var lastErr error

	for attempt := 1; ; attempt++ {
		newMeta, err := propose(cur.Metadata)
		if err != nil {
			return nil, err
		}

		newVersion := cur.Version + 1
		newPath := c.metadataPath(newVersion)
		payload := []byte(newMeta.JSON())

		if err := c.writeMetadataFile(ctx, newPath, payload); err != nil {
			if errors.IsCode(err, errors.CommonConflict) {
				lastErr = err
				if attempt > c.retry.MaxAttempts {
					return nil, &errors.RetryExhaustedError{Attempts: attempt, LastError: lastErr}
				}
				c.logger.Warn().Str("path", newPath).Int("attempt", attempt).Msg("commit write collision, retrying")
				cur, err = c.reloadOrFail(ctx, reload)
				if err != nil {
					return nil, err
				}
				continue
			}
			c.cleanupBestEffort(ctx, []string{newPath})
			return nil, &errors.TransactionFailedError{WrittenFiles: []string{newPath}, CleanupOK: true, Cause: err}
		}

		publishErr := c.publish(ctx, cur.HintPath, newPath)
		if publishErr == nil {
			if verifyErr := c.verify(ctx, newPath); verifyErr == nil {
				return &Result{Metadata: newMeta, MetadataPath: newPath, Version: newVersion, Attempts: attempt}, nil
			} else {
				publishErr = verifyErr
			}
		}

		if errors.IsCode(publishErr, errors.CommonConflict) {
			lastErr = publishErr
			c.cleanupOrphan(ctx, newPath)
			if attempt > c.retry.MaxAttempts {
				return nil, &errors.RetryExhaustedError{Attempts: attempt, LastError: lastErr}
			}
			c.logger.Warn().Str("path", newPath).Int("attempt", attempt).Msg("commit publish collision, retrying")
			cur, err = c.reloadOrFail(ctx, reload)
			if err != nil {
				return nil, err
			}
			continue
		}

		cleanupOK := c.cleanupBestEffort(ctx, []string{newPath})
		return nil, &errors.TransactionFailedError{WrittenFiles: []string{newPath}, CleanupOK: cleanupOK, Cause: publishErr}
	}
}

// writeMetadataFile performs step 3 of the commit algorithm: an
// atomic put_if_absent where the backend supports it, degrading to a
// flagged non-atomic put otherwise.
func (c *Committer) writeMetadataFile(ctx context.Context, path string, data []byte) error {
	caps := c.store.Capabilities()
	if !caps.AtomicPutIfAbsent {
		c.logger.Debug().Str("path", path).Msg("backend lacks atomic put_if_absent, falling back to put")
	}
	return c.store.PutIfAbsent(ctx, path, data)
}

// publish performs step 4: compare-and-swap the version hint from its
// last-observed value to the new metadata path. An empty expectedHint
// means this is the table's first commit and the hint must not
// already exist.
func (c *Committer) publish(ctx context.Context, expectedHint, newPath string) error {
	var expected []byte
	if expectedHint != "" {
		expected = []byte(expectedHint)
	}
	return c.store.CompareAndSwap(ctx, c.VersionHintPath(), expected, []byte(newPath))
}

// verify performs step 5: re-read the hint and confirm it still
// names what we just published. Backends with a true compare-and-swap
// cannot fail this after publish succeeds; it exists to catch
// degraded backends that emulate CAS with a stat-then-write race.
func (c *Committer) verify(ctx context.Context, newPath string) error {
	data, err := c.store.Get(ctx, c.VersionHintPath())
	if err != nil {
		return err
	}
	if string(data) != newPath {
		return errors.Conflict("version-hint changed concurrently after publish").AddContext("expected", newPath).AddContext("found", string(data))
	}
	return nil
}

func (c *Committer) reloadOrFail(ctx context.Context, reload ReloadFunc) (State, error) {
	if reload == nil {
		return State{}, errors.New(errors.CommitCode("reload_unavailable"), "commit conflict detected but no reload function was supplied", nil)
	}
	return reload(ctx)
}

// cleanupOrphan best-effort deletes a metadata file written during an
// attempt that lost the race, per step 6.
func (c *Committer) cleanupOrphan(ctx context.Context, path string) {
	if err := c.store.Delete(ctx, path); err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("failed to clean up orphaned metadata file")
	}
}

// cleanupBestEffort deletes every file written during a failed
// attempt, per step 7, reporting whether all deletes succeeded.
func (c *Committer) cleanupBestEffort(ctx context.Context, paths []string) bool {
	ok := true
	for _, p := range paths {
		if err := c.store.Delete(ctx, p); err != nil {
			c.logger.Warn().Err(err).Str("path", p).Msg("cleanup failed for written file")
			ok = false
		}
	}
	return ok
}

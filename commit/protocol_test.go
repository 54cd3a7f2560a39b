package commit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icelake-io/iceberg-engine/iceberg"
	"github.com/icelake-io/iceberg-engine/metadata"
	"github.com/icelake-io/iceberg-engine/objectstore"
	"github.com/icelake-io/iceberg-engine/objectstore/memory"
	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

func seedMetadata(t *testing.T) *metadata.TableMetadata {
	t.Helper()
	schema, err := iceberg.NewSchema(0, iceberg.NestedField{ID: 1, Name: "id", Required: true, Type: iceberg.Int64()})
	require.NoError(t, err)
	meta, err := metadata.NewBuilder(2, "s3://bucket/warehouse/db/t").AddSchema(schema).SetCurrentSchema(0).Build()
	require.NoError(t, err)
	return meta
}

func addProperty(key, value string) ProposeFunc {
	return func(current *metadata.TableMetadata) (*metadata.TableMetadata, error) {
		return metadata.FromBase(current).
			SetProperties(map[string]string{key: value}).
			Build()
	}
}

func TestCommitHappyPath(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	committer := NewCommitter(store, "s3://bucket/warehouse/db/t")

	result, err := committer.Commit(ctx, State{Metadata: seedMetadata(t), Version: 0}, addProperty("owner", "alice"), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Version)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, "alice", result.Metadata.Properties["owner"])

	hint, err := store.Get(ctx, committer.VersionHintPath())
	require.NoError(t, err)
	assert.Equal(t, result.MetadataPath, string(hint))
}

func TestCommitRetriesOnConflictThenSucceeds(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	committer := NewCommitter(store, "s3://bucket/warehouse/db/t")

	// Simulate a writer that already published version 1 out-of-band.
	other := seedMetadata(t)
	otherPath := "s3://bucket/warehouse/db/t/metadata/1-other.metadata.json"
	require.NoError(t, store.Put(ctx, otherPath, []byte(other.JSON())))
	require.NoError(t, store.Put(ctx, committer.VersionHintPath(), []byte(otherPath)))

	reloadCalls := 0
	reload := func(ctx context.Context) (State, error) {
		reloadCalls++
		return State{Metadata: other, Version: 1, HintPath: otherPath}, nil
	}

	result, err := committer.Commit(ctx, State{Metadata: seedMetadata(t), Version: 0}, addProperty("owner", "bob"), reload)
	require.NoError(t, err)
	assert.Equal(t, 1, reloadCalls)
	assert.Equal(t, 2, result.Version)
	assert.Equal(t, 2, result.Attempts)

	hint, err := store.Get(ctx, committer.VersionHintPath())
	require.NoError(t, err)
	assert.Equal(t, result.MetadataPath, string(hint))
}

func TestCommitRetryExhausted(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	committer := NewCommitter(store, "s3://bucket/warehouse/db/t", WithRetryConfig(RetryConfig{MaxAttempts: 2}))

	seed := seedMetadata(t)
	require.NoError(t, store.Put(ctx, committer.VersionHintPath(), []byte("s3://bucket/warehouse/db/t/metadata/0-seed.metadata.json")))

	reloadCalls := 0
	reload := func(ctx context.Context) (State, error) {
		// Every reload still reports a hint value that never matches
		// what's actually stored, so every subsequent publish keeps
		// colliding until the retry budget is exhausted.
		reloadCalls++
		return State{Metadata: seed, Version: reloadCalls, HintPath: "always-wrong"}, nil
	}

	_, err := committer.Commit(ctx, State{Metadata: seed, Version: 0, HintPath: "always-wrong"}, addProperty("k", "v"), reload)
	require.Error(t, err)
	var retryErr *errors.RetryExhaustedError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, 3, retryErr.Attempts)
}

type failingStore struct {
	objectstore.ObjectStore
}

func (f failingStore) PutIfAbsent(ctx context.Context, path string, data []byte) error {
	return errors.New(errors.ObjectStoreCode("disk_full"), "disk full", nil)
}

func TestCommitNonConflictWriteFailureReportsTransactionFailed(t *testing.T) {
	ctx := context.Background()
	store := failingStore{ObjectStore: memory.New()}
	committer := NewCommitter(store, "s3://bucket/warehouse/db/t")

	_, err := committer.Commit(ctx, State{Metadata: seedMetadata(t), Version: 0}, addProperty("k", "v"), nil)
	require.Error(t, err)
	var txErr *errors.TransactionFailedError
	require.ErrorAs(t, err, &txErr)
	assert.Len(t, txErr.WrittenFiles, 1)
}

package deletes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/icelake-io/iceberg-engine/manifest"
)

func TestValidateDeletionVectorRequiresAllThreeFields(t *testing.T) {
	ref := "data/f1.parquet"
	offset := int64(0)
	size := int64(100)

	assert.NoError(t, ValidateDeletionVector(manifest.DataFile{}))
	assert.NoError(t, ValidateDeletionVector(manifest.DataFile{
		ReferencedDataFile: &ref, ContentOffset: &offset, ContentSizeInBytes: &size,
	}))
	assert.Error(t, ValidateDeletionVector(manifest.DataFile{ReferencedDataFile: &ref}))
}

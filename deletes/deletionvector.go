package deletes

import (
	"github.com/icelake-io/iceberg-engine/manifest"
	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// ValidateDeletionVector enforces the v3 deletion-vector invariant: a
// data file entry that carries any of referenced-data-file,
// content-offset, or content-size-in-bytes must carry all three,
// pointing at the Puffin blob that replaces position-delete files for
// that data file.
func ValidateDeletionVector(df manifest.DataFile) error {
	any3 := df.ReferencedDataFile != nil || df.ContentOffset != nil || df.ContentSizeInBytes != nil
	all3 := df.ReferencedDataFile != nil && df.ContentOffset != nil && df.ContentSizeInBytes != nil
	if any3 && !all3 {
		return errors.InvalidInput("deletion vector fields referenced_data_file/content_offset/content_size_in_bytes must all be present together")
	}
	return nil
}

package sqlcatalog

import "github.com/uptrace/bun"

// namespaceRow is one namespace-property key/value pair. Namespace
// paths are stored joined by "." since bun models need a flat primary
// key; CreateNamespace seeds a sentinel row with an empty key so an
// otherwise-propertyless namespace is still discoverable.
type namespaceRow struct {
	bun.BaseModel `bun:"table:iceberg_namespace_properties"`

	Namespace string `bun:"namespace,pk"`
	Key       string `bun:"property_key,pk"`
	Value     string `bun:"property_value"`
}

const namespaceSentinelKey = ""

// tableRow is the pointer from a (namespace, name) pair to the
// table's current and previous metadata file locations.
type tableRow struct {
	bun.BaseModel `bun:"table:iceberg_tables"`

	Namespace                string `bun:"table_namespace,pk"`
	Name                     string `bun:"table_name,pk"`
	MetadataLocation         string `bun:"metadata_location,notnull"`
	PreviousMetadataLocation string `bun:"previous_metadata_location"`
}

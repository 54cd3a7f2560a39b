package metadata

// CompactLog trims the metadata log to the configured retention policy:
// it keeps at most retainVersions entries and drops anything older than
// maxAgeMs relative to the newest entry, always keeping at least one
// entry if the log is non-empty so a reader mid-flight never loses
// every fallback location at once.
func CompactLog(log []MetadataLogEntry, retainVersions int, maxAgeMs int64) []MetadataLogEntry {
	if len(log) == 0 {
		return log
	}
	newest := log[len(log)-1].TimestampMs

	var kept []MetadataLogEntry
	for _, e := range log {
		if maxAgeMs > 0 && newest-e.TimestampMs > maxAgeMs {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		kept = log[len(log)-1:]
	}
	if retainVersions > 0 && len(kept) > retainVersions {
		kept = kept[len(kept)-retainVersions:]
	}
	return kept
}

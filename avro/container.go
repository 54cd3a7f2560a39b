package avro

import (
	"bytes"
	"crypto/rand"
	"fmt"

	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// Magic is the 4-byte Avro object-container-file identifier.
var Magic = [4]byte{'O', 'b', 'j', 0x01}

// SyncMarkerSize is the width of the random per-file sync marker.
const SyncMarkerSize = 16

// NullCodec is the only codec this engine writes; every Avro reader
// must support it, so it needs no negotiation.
const NullCodec = "null"

// ContainerWriter accumulates Avro records into OCF blocks. Each Append
// adds one record to the current (single) block; Bytes emits the file.
type ContainerWriter struct {
	schema     *Schema
	syncMarker [SyncMarkerSize]byte
	records    []any
	extraMeta  map[string]string
}

// NewContainerWriter creates a writer for the given record schema. A
// fresh random sync marker is generated for this file.
func NewContainerWriter(schema *Schema) (*ContainerWriter, error) {
	var marker [SyncMarkerSize]byte
	if _, err := rand.Read(marker[:]); err != nil {
		return nil, errors.New(errors.AvroCode("sync_marker_failed"), "failed to generate sync marker", err)
	}
	return &ContainerWriter{schema: schema, syncMarker: marker, extraMeta: map[string]string{}}, nil
}

// SetMeta attaches an additional header metadata key (e.g. Iceberg's
// manifest-level summary fields stored alongside avro.schema).
func (w *ContainerWriter) SetMeta(key, value string) { w.extraMeta[key] = value }

// Append queues one record for encoding. value must match w.schema's shape.
func (w *ContainerWriter) Append(value any) { w.records = append(w.records, value) }

// Len reports how many records have been queued.
func (w *ContainerWriter) Len() int { return len(w.records) }

// Bytes renders the full container file: magic, header, sync marker,
// then a single block holding every queued record (a writer is free to
// split records across multiple blocks; one block is simplest and
// sufficient here), followed by the sync marker.
func (w *ContainerWriter) Bytes() ([]byte, error) {
	var out bytes.Buffer
	out.Write(Magic[:])

	header := map[string]any{
		"avro.schema": []byte(w.schema.JSON()),
		"avro.codec":  []byte(NullCodec),
	}
	for k, v := range w.extraMeta {
		header[k] = []byte(v)
	}
	headerBytes, err := Encode(nil, Map(Bytes()), header)
	if err != nil {
		return nil, errors.New(errors.AvroCode("header_encode_failed"), "failed to encode container header", err)
	}
	out.Write(headerBytes)
	out.Write(w.syncMarker[:])

	if len(w.records) > 0 {
		var payload []byte
		for _, rec := range w.records {
			payload, err = Encode(payload, w.schema, rec)
			if err != nil {
				return nil, errors.New(errors.AvroCode("record_encode_failed"), "failed to encode record", err)
			}
		}
		blockHeader := AppendVarint(nil, int64(len(w.records)))
		blockHeader = AppendVarint(blockHeader, int64(len(payload)))
		out.Write(blockHeader)
		out.Write(payload)
		out.Write(w.syncMarker[:])
	}

	return out.Bytes(), nil
}

// ContainerFile is the parsed result of reading back an OCF file.
type ContainerFile struct {
	Header     map[string]string
	SyncMarker [SyncMarkerSize]byte
	Schema     string // the "avro.schema" header value, as JSON text
	Codec      string
	Records    []any
}

// ReadContainer parses an OCF file back into its header metadata and
// decoded records, given the record schema used to write it (this
// engine does not implement schema resolution from the embedded JSON —
// callers always know which of the two Iceberg schemas they're reading).
func ReadContainer(data []byte, schema *Schema) (*ContainerFile, error) {
	if len(data) < 4 || !bytes.Equal(data[:4], Magic[:]) {
		return nil, errors.InvalidInput("not an Avro object container file: bad magic")
	}
	c := &cursor{buf: data, pos: 4}

	headerVal, err := decodeInto(c, Map(Bytes()))
	if err != nil {
		return nil, errors.New(errors.AvroCode("header_decode_failed"), "failed to decode container header", err)
	}
	headerMap, ok := headerVal.(map[string]any)
	if !ok {
		return nil, errors.InvalidInput("malformed container header")
	}
	header := map[string]string{}
	for k, v := range headerMap {
		if b, ok := v.([]byte); ok {
			header[k] = string(b)
		}
	}
	if _, ok := header["avro.schema"]; !ok {
		return nil, errors.InvalidInput("container header missing required avro.schema key")
	}

	syncBytes, err := c.readN(SyncMarkerSize)
	if err != nil {
		return nil, errors.New(errors.AvroCode("truncated_sync_marker"), "failed to read sync marker", err)
	}
	var marker [SyncMarkerSize]byte
	copy(marker[:], syncBytes)

	result := &ContainerFile{
		Header:     header,
		SyncMarker: marker,
		Schema:     header["avro.schema"],
		Codec:      header["avro.codec"],
	}

	for c.remaining() > 0 {
		count, err := c.readVarint()
		if err != nil {
			return nil, errors.New(errors.AvroCode("truncated_block_header"), "failed to read block object count", err)
		}
		byteSize, err := c.readVarint()
		if err != nil {
			return nil, errors.New(errors.AvroCode("truncated_block_header"), "failed to read block byte size", err)
		}
		blockStart := c.pos
		for i := int64(0); i < count; i++ {
			rec, err := decodeInto(c, schema)
			if err != nil {
				return nil, errors.New(errors.AvroCode("record_decode_failed"), "failed to decode record", err).
					AddContext("record_index", i)
			}
			result.Records = append(result.Records, rec)
		}
		if consumed := int64(c.pos - blockStart); consumed != byteSize {
			return nil, errors.InvalidInput(fmt.Sprintf(
				"block byte-size mismatch: header said %d, decoded %d", byteSize, consumed))
		}
		marker, err := c.readN(SyncMarkerSize)
		if err != nil {
			return nil, errors.New(errors.AvroCode("truncated_sync_marker"), "failed to read block sync marker", err)
		}
		if !bytes.Equal(marker, result.SyncMarker[:]) {
			return nil, errors.InvalidInput("block sync marker does not match file sync marker")
		}
	}

	return result, nil
}

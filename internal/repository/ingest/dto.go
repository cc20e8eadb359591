package ingest

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/fixhub-ai/partsearch/internal/domain"
)

// docToFields flattens a document into hash fields. Text and vector live
// under reserved __ names so they never collide with metadata.
func docToFields(doc domain.Document) map[string]string {
	fields := make(map[string]string, len(doc.Tags)+len(doc.Numerics)+2)
	fields["__text"] = doc.Text
	fields["__vector"] = vectorToBytes(doc.Vector)
	for k, v := range doc.Tags {
		fields[k] = v
	}
	for k, v := range doc.Numerics {
		fields[k] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fields
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

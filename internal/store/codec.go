package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// encodeDoc marshals a document and returns both the raw JSON and its
// top-level field map, from which key and index values are extracted.
func encodeDoc(doc any) ([]byte, map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal document: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, nil, fmt.Errorf("document is not a JSON object: %w", err)
	}
	return raw, fields, nil
}

// primaryKey extracts the primary key value from the field map. An absent or
// empty key returns "".
func primaryKey(fields map[string]any, keyField string) string {
	v, ok := fields[keyField]
	if !ok || v == nil {
		return ""
	}
	s := indexValue(v)
	return s
}

// assignKey writes a generated uuid into the key field and re-marshals.
func assignKey(fields map[string]any, keyField string) (string, []byte, error) {
	id := uuid.New().String()
	fields[keyField] = id
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", nil, fmt.Errorf("marshal document: %w", err)
	}
	return id, raw, nil
}

// indexValue normalizes a field value for equality comparison. All index
// values compare as strings; json numbers are rendered without a trailing
// fractional part when they are whole.
func indexValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(t)
	}
}

// decodeList unmarshals a set of raw documents into out, which must be a
// pointer to a slice. The documents are stitched into one JSON array so the
// caller's element type drives decoding.
func decodeList(docs [][]byte, out any) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, d := range docs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(d)
	}
	buf.WriteByte(']')
	if err := json.Unmarshal(buf.Bytes(), out); err != nil {
		return fmt.Errorf("decode documents: %w", err)
	}
	return nil
}

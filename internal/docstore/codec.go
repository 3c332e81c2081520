package docstore

import (
	"encoding/json"
	"fmt"
)

// Codec converts between the in-memory document model and the byte
// representation stored in the backend.
type Codec interface {
	Encode(doc Document) ([]byte, error)
	Decode(data []byte) (Document, error)
}

// JSONCodec is the wire format used by every backend: a UTF-8 JSON object
// with top-level keys feeds, keywords, visitors and reports. Encode and
// Decode round-trip losslessly.
type JSONCodec struct{}

// Encode serialises the document. Collections are cloned first so nil slices
// and maps always serialise as empty ones and the stored layout never varies
// with how the document was built in memory.
func (JSONCodec) Encode(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc.Clone(), "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// Decode parses stored bytes back into a document. Missing collections come
// back initialised so mutators can append without nil checks.
func (JSONCodec) Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	if doc.Feeds == nil {
		doc.Feeds = []string{}
	}
	if doc.Keywords == nil {
		doc.Keywords = []string{}
	}
	if doc.Reports == nil {
		doc.Reports = map[string]Report{}
	}
	return doc, nil
}

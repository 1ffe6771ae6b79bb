package domain

import (
	"bytes"
	"encoding/json"
)

// Document is one metadata record from the documents API, covering both
// transcript documents and slide decks. Raw preserves the exact bytes the
// server returned; the remaining fields are best-effort parsed views used
// for grouping, selection and file naming.
//
// Records in the wild are loosely shaped: ids may be missing or non-integer,
// the event object may be absent, updatedAt may be empty. HasID/HasEventID
// report whether the corresponding value was an integer-valued JSON number.
type Document struct {
	Raw json.RawMessage

	ID         int64
	HasID      bool
	EventID    int64
	HasEventID bool

	FileURL    string
	UpdatedAt  string
	EventTitle string
}

// ParseDocument builds a Document from one raw record. Field-shape surprises
// never fail the parse: a record that is not a JSON object yields a Document
// with only Raw set, which downstream code treats as having no usable ids.
func ParseDocument(raw json.RawMessage) Document {
	doc := Document{Raw: raw}

	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return doc
	}

	doc.ID, doc.HasID = intValue(fields["id"])
	doc.EventID, doc.HasEventID = intValue(fields["eventId"])
	doc.FileURL, _ = fields["fileUrl"].(string)
	doc.UpdatedAt, _ = fields["updatedAt"].(string)

	if event, ok := fields["event"].(map[string]any); ok {
		doc.EventTitle, _ = event["title"].(string)
	}

	return doc
}

// intValue reports v as an int64 when it is an integer-valued JSON number.
// Floats, numeric strings, booleans and null all report false.
func intValue(v any) (int64, bool) {
	num, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	n, err := num.Int64()
	if err != nil {
		return 0, false
	}
	return n, true
}

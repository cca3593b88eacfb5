package records

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	// errMalformed marks stored category data that is not valid JSON.
	errMalformed = errors.New("records: category is not valid JSON")

	// errNotArray marks valid JSON that is not an array of entries.
	errNotArray = errors.New("records: category is not a JSON array")
)

// splitCategory returns the entries of a stored category without decoding
// them, so entries written by other tools keep every field they carry.
func splitCategory(data []byte) ([]json.RawMessage, error) {
	var entries []json.RawMessage
	err := json.Unmarshal(data, &entries)

	var syntaxErr *json.SyntaxError
	switch {
	case err == nil:
		return entries, nil
	case errors.As(err, &syntaxErr) || !json.Valid(data):
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	default:
		return nil, fmt.Errorf("%w: %v", errNotArray, err)
	}
}

// nextRawID returns the id after the highest integer id among entries.
// Entries without one are skipped.
func nextRawID(entries []json.RawMessage) int {
	highest := 0
	for _, e := range entries {
		var peek struct {
			ID json.RawMessage `json:"id"`
		}
		if json.Unmarshal(e, &peek) != nil {
			continue
		}
		id, err := strconv.Atoi(string(peek.ID))
		if err == nil && id > highest {
			highest = id
		}
	}
	return highest + 1
}

// decodeRecords decodes entries as far as they match Record. Fields of the
// wrong shape are left zero; entries that are not objects are skipped.
func decodeRecords(entries []json.RawMessage) []Record {
	list := make([]Record, 0, len(entries))
	for _, e := range entries {
		e = bytes.TrimSpace(e)
		if len(e) == 0 || e[0] != '{' {
			continue
		}

		var rec Record
		var typeErr *json.UnmarshalTypeError
		if err := json.Unmarshal(e, &rec); err != nil && !errors.As(err, &typeErr) {
			continue
		}
		if rec.BaseType == nil {
			rec.BaseType = []string{}
		}
		list = append(list, rec)
	}
	return list
}

// encodeJSON marshals v without HTML escaping, indenting when indent is set.
func encodeJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// appendRecord adds rec to entries as a new raw entry.
func appendRecord(entries []json.RawMessage, rec Record) ([]json.RawMessage, error) {
	data, err := encodeJSON(rec, "")
	if err != nil {
		return nil, err
	}
	return append(entries, json.RawMessage(data)), nil
}

// Package jsoncodec implements gitdocdb's canonical JSON encoding
// (spec.md §4.B): sorted keys, two-space indent, no trailing newline, with
// "_id" pinned to the last position so the canonical form is stable across
// the id-in-body round trip (spec.md §9).
//
// The pretty-print and key-append passes are built on tidwall/pretty and
// tidwall/sjson rather than hand-rolled string building: encoding/json's
// own (alphabetical) map-key ordering places every field other than "_id",
// sjson's documented "new keys are appended at the end" behavior is the
// mechanism used to pin "_id" last, and tidwall/pretty (with SortKeys off,
// so "_id" is not resorted) applies the two-space indent, whose trailing
// newline Encode then trims.
package jsoncodec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/gitdocdb/gitdocdb/internal/gitdocerr"
	"github.com/gitdocdb/gitdocdb/internal/types"
)

var prettyOpts = &pretty.Options{
	Width:    0,
	Prefix:   "",
	Indent:   "  ",
	SortKeys: false, // false: "_id" must stay last, not be resorted in
}

// ValidatePropertyNames rejects top-level property names beginning with
// '_' other than "_id" and "_deleted" (spec.md §4.B, optional rule).
func ValidatePropertyNames(doc types.Document) error {
	for k := range doc {
		if strings.HasPrefix(k, "_") && k != "_id" && k != "_deleted" {
			return fmt.Errorf("%w: property %q must not start with '_'", gitdocerr.ErrInvalidPropertyNameInDocument, k)
		}
	}
	return nil
}

// Encode produces the canonical on-disk form of doc. The document's "_id"
// (if present) is always written last.
func Encode(doc types.Document) ([]byte, error) {
	if err := checkEncodable(map[string]any(doc)); err != nil {
		return nil, err
	}
	if err := ValidatePropertyNames(doc); err != nil {
		return nil, err
	}

	id := doc.ID()
	rest := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		rest[k] = v
	}

	compact, err := json.Marshal(rest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gitdocerr.ErrInvalidJSONObject, err)
	}

	if id != "" {
		compact, err = sjson.SetBytes(compact, "_id", id)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", gitdocerr.ErrInvalidJSONObject, err)
		}
	}

	out := pretty.PrettyOptions(compact, prettyOpts)
	out = bytes.TrimRight(out, "\n")
	return out, nil
}

// Decode parses the canonical on-disk form and re-attaches id (the
// document's filename-derived identifier, per spec.md §3). If the body
// already carries an "_id" that disagrees with id, the repository is
// considered corrupted (spec.md §7 ErrCorruptedRepository).
func Decode(data []byte, id string) (types.Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid json", gitdocerr.ErrInvalidJSONObject)
	}

	existing := gjson.GetBytes(data, "_id")
	if existing.Exists() && existing.Type == gjson.String && existing.String() != id {
		return nil, fmt.Errorf("%w: body _id %q disagrees with path-derived id %q", gitdocerr.ErrCorruptedRepository, existing.String(), id)
	}

	var doc types.Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", gitdocerr.ErrInvalidJSONObject, err)
	}
	if doc == nil {
		doc = types.Document{}
	}
	doc["_id"] = id
	return doc, nil
}

// ExtractID returns the top-level "_id" string of a raw JSON blob without a
// full unmarshal, or "" if absent.
func ExtractID(data []byte) string {
	r := gjson.GetBytes(data, "_id")
	if r.Type != gjson.String {
		return ""
	}
	return r.String()
}

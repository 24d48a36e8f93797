// Package feed models the published release feed and produces updated
// entries from freshly collected CI data.
//
// A feed document maps version strings to release entries. Entries are kept
// as raw JSON fields so that anything this service does not know about
// survives an aggregation run byte-for-byte: the overlay replaces exactly
// the fields derived from the current build and leaves every other field of
// the most recent prior release untouched.
package feed

import "encoding/json"

// Field names this service owns in a release entry. Everything else is
// carried through opaquely.
const (
	FieldCLI              = "cli"
	FieldChecksum         = "sha2"
	FieldStandaloneCLI    = "standaloneCli"
	FieldItemTemplates    = "itemTemplates"
	FieldProjectTemplates = "projectTemplates"
)

// Entry is one release record: a flat mapping of named fields. Unknown
// fields are preserved as raw JSON.
type Entry map[string]json.RawMessage

// StandaloneEntry describes one per-platform standalone CLI artifact.
//
// The OS/OperatingSystem asymmetry is part of the published contract:
// macOS artifacts carry "OperatingSystem" and no "OS", all other platforms
// the reverse.
type StandaloneEntry struct {
	OS              string `json:"OS,omitempty"`
	OperatingSystem string `json:"OperatingSystem,omitempty"`
	Architecture    string `json:"Architecture"`
	DownloadLink    string `json:"downloadLink"`
	Checksum        string `json:"sha2"`
}

// Clone returns a copy of the entry sharing the underlying raw values.
// Raw values are never mutated, only replaced, so sharing is safe.
func (e Entry) Clone() Entry {
	out := make(Entry, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// SetString replaces one field with a JSON string value.
func (e Entry) SetString(field, value string) {
	raw, _ := json.Marshal(value)
	e[field] = raw
}

// SetStandalone replaces the standalone CLI array wholesale. The previous
// array is not merged; each run publishes the complete current set.
func (e Entry) SetStandalone(entries []StandaloneEntry) {
	raw, _ := json.Marshal(entries)
	e[FieldStandaloneCLI] = raw
}

// GetString reads a field as a JSON string. Returns "" for missing or
// non-string fields.
func (e Entry) GetString(field string) string {
	var s string
	if raw, ok := e[field]; ok {
		json.Unmarshal(raw, &s)
	}
	return s
}

package session

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"unicode/utf8"

	apperr "github.com/jh3/tabsnap/internal/errors"
)

// rawDocument keeps fields undecoded so shape errors can be told apart.
type rawDocument map[string]json.RawMessage

// Marshal renders a session as indented JSON.
func Marshal(doc Document) ([]byte, error) {
	if doc.Tabs == nil {
		doc.Tabs = []Tab{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Write saves a session file, replacing any previous content.
func Write(path string, doc Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return apperr.SessionWriteFailed(path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return apperr.SessionWriteFailed(path, err)
	}
	return nil
}

// Load reads a session file. A missing file yields a KindNotFound error, a
// file that is not a session a KindInvalid error, and any other read
// failure a KindIO error.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Document{}, apperr.SessionNotFound(path, err)
	}
	if err != nil {
		return Document{}, apperr.SessionUnreadable(path, err)
	}
	return Parse(path, data)
}

// Parse decodes session JSON. path is only used in error messages.
func Parse(path string, data []byte) (Document, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return Document{}, apperr.SessionInvalid(path, "not UTF-8 text")
	}

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return Document{}, apperr.SessionInvalid(path, "not a JSON object")
	}

	tabsRaw, ok := raw["tabs"]
	tabsRaw = bytes.TrimSpace(tabsRaw)
	if !ok || len(tabsRaw) == 0 || tabsRaw[0] != '[' {
		return Document{}, apperr.SessionInvalid(path, "tabs must be an array")
	}

	doc := Document{Version: parseVersion(raw["version"])}
	if err := json.Unmarshal(tabsRaw, &doc.Tabs); err != nil {
		return Document{}, apperr.SessionInvalid(path, "malformed tab entry")
	}
	if doc.Tabs == nil {
		doc.Tabs = []Tab{}
	}
	return doc, nil
}

func parseVersion(raw json.RawMessage) int {
	if len(raw) == 0 {
		return LegacyVersion
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return LegacyVersion
	}
	if *v < 1 || *v > math.MaxInt32 {
		return LegacyVersion
	}
	return int(*v)
}

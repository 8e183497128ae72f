// Package refset normalizes reference-id inputs and reconciles reference sets
// from add/remove lists.
package refset

import (
	"encoding/json"
	"fmt"
	"strings"

	"catalog-admin/internal/domain"

	"github.com/google/uuid"
)

type inputKind int

const (
	kindAbsent inputKind = iota
	kindSingle
	kindText
	kindList
)

// Input is a reference-id list as received from a caller. It is absent, a
// single id, free text (comma separated or a JSON array), or a native list.
type Input struct {
	kind   inputKind
	text   string
	values []string
}

// Absent is the zero Input.
func Absent() Input { return Input{} }

// Single wraps exactly one id.
func Single(id string) Input { return Input{kind: kindSingle, text: id} }

// Text wraps a comma separated list or a JSON encoded array.
func Text(s string) Input { return Input{kind: kindText, text: s} }

// List wraps a native list of ids.
func List(ids []string) Input { return Input{kind: kindList, values: ids} }

// FromUUIDs wraps already typed ids.
func FromUUIDs(ids []uuid.UUID) Input {
	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = id.String()
	}
	return List(values)
}

// FromJSON builds an Input from a raw request field holding either a JSON
// string or a JSON array of strings. Null and missing fields are absent.
func FromJSON(raw json.RawMessage) (Input, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return Absent(), nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return List(list), nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return Text(text), nil
	}

	return Absent(), domain.ValidationFailed("invalid id list", map[string]string{
		"ids": "must be a string or an array of strings",
	})
}

// Present reports whether the caller supplied the field at all, even if it
// was an empty list.
func (in Input) Present() bool {
	return in.kind != kindAbsent
}

func (in Input) tokens() []string {
	switch in.kind {
	case kindSingle:
		return []string{in.text}
	case kindList:
		return in.values
	case kindText:
		text := strings.TrimSpace(in.text)
		if text == "" {
			return nil
		}
		var list []string
		if err := json.Unmarshal([]byte(text), &list); err == nil {
			return list
		}
		return strings.Split(text, ",")
	}
	return nil
}

// IDs parses the input into a deduplicated list in first-seen order. Blank
// entries are skipped; malformed ids fail with ErrValidationFailed.
func (in Input) IDs() ([]uuid.UUID, error) {
	var (
		ids     []uuid.UUID
		invalid []string
		seen    = make(map[uuid.UUID]struct{})
	)
	for _, token := range in.tokens() {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		id, err := uuid.Parse(token)
		if err != nil {
			invalid = append(invalid, token)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if len(invalid) > 0 {
		return nil, domain.ValidationFailed("invalid id list", map[string]string{
			"ids": fmt.Sprintf("malformed ids: %s", strings.Join(invalid, ", ")),
		})
	}
	return ids, nil
}

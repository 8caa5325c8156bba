// internal/domain/models/organization.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Organization is a catalog entry. Organizations come from a static dataset
// and are never written by this app.
//
// The dataset stores Id as either a JSON string or a JSON number
// ("420940" and 420940 both occur), so ID is normalized to its string form
// when decoding.
type Organization struct {
	ID             string   `json:"Id"`
	Name           string   `json:"Name"`
	ShortName      string   `json:"ShortName,omitempty"`
	Description    string   `json:"Description,omitempty"`
	Summary        string   `json:"Summary,omitempty"`
	ProfilePicture string   `json:"ProfilePicture,omitempty"`
	CategoryNames  []string `json:"CategoryNames,omitempty"`
	WebsiteKey     string   `json:"WebsiteKey,omitempty"`
}

// UnmarshalJSON accepts a string or numeric Id.
func (o *Organization) UnmarshalJSON(b []byte) error {
	type alias Organization
	var raw struct {
		alias
		ID json.RawMessage `json:"Id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*o = Organization(raw.alias)

	id, err := normalizeID(raw.ID)
	if err != nil {
		return fmt.Errorf("organization %q: %w", raw.Name, err)
	}
	o.ID = id
	return nil
}

func normalizeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("missing Id")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("Id must be a string or number: %w", err)
	}
	return n.String(), nil
}

// About returns the longest available description, falling back to the summary.
func (o Organization) About() string {
	if o.Description != "" {
		return o.Description
	}
	if o.Summary != "" {
		return o.Summary
	}
	return "No description available."
}

// Package schema checks profile JSON payloads before they reach a store.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
)

//go:embed profile.schema.json
var profileSchema []byte

const profileSchemaURL = "profile.schema.json"

var compileProfile = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(profileSchemaURL, bytes.NewReader(profileSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := compiler.Compile(profileSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return s, nil
})

// Error is a payload that does not have the profile shape. Field is empty
// when the problem is not tied to one property.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return "invalid profile payload: " + e.Message
	}
	return fmt.Sprintf("invalid profile payload at '%s': %s", e.Field, e.Message)
}

// ValidateProfileJSON checks data against the profile schema and then runs
// the required-field rules. Shape problems are returned as *Error, empty
// fields as *profile.ValidationError.
func ValidateProfileJSON(data []byte) (profile.Profile, error) {
	s, err := compileProfile()
	if err != nil {
		return profile.Profile{}, err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return profile.Profile{}, &Error{Message: "malformed JSON: " + err.Error()}
	}
	if err := s.Validate(v); err != nil {
		return profile.Profile{}, toError(err)
	}

	var p profile.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return profile.Profile{}, &Error{Message: err.Error()}
	}
	if err := profile.Validate(p); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

// ValidateProfilesJSON checks a JSON array of profiles, stopping at the first
// invalid element.
func ValidateProfilesJSON(data []byte) ([]profile.Profile, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Message: "expected a JSON array of profiles: " + err.Error()}
	}
	out := make([]profile.Profile, 0, len(raw))
	for i, r := range raw {
		p, err := ValidateProfileJSON(r)
		if err != nil {
			return nil, fmt.Errorf("profile %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func toError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	return &Error{
		Field:   strings.TrimPrefix(leaf.InstanceLocation, "/"),
		Message: leaf.Message,
	}
}

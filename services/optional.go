package services

import (
	"encoding/json"
	"strings"
)

// OptionalID distinguishes an absent JSON field from an explicit null.
// Set is true whenever the key was present; Value is nil for null.
type OptionalID struct {
	Set   bool
	Value *uint
}

// UnmarshalJSON records presence. encoding/json calls it for null too.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if strings.TrimSpace(string(data)) == "null" {
		o.Value = nil
		return nil
	}
	var v uint
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Clear reports an explicit null
func (o OptionalID) Clear() bool {
	return o.Set && o.Value == nil
}

// OptionalString is OptionalID for text fields
type OptionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON records presence
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if strings.TrimSpace(string(data)) == "null" {
		o.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func sameID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

package repository

import (
	"encoding/json"

	apperrors "github.com/allisson/envstore/internal/errors"
)

// marshalVariables serializes a variable map for storage. Nil maps become
// empty JSON objects so the column is never NULL.
func marshalVariables(variables map[string]string) ([]byte, error) {
	if variables == nil {
		variables = map[string]string{}
	}
	payload, err := json.Marshal(variables)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal variables")
	}
	return payload, nil
}

// unmarshalVariables deserializes a stored variable map.
func unmarshalVariables(payload []byte) (map[string]string, error) {
	if len(payload) == 0 {
		return map[string]string{}, nil
	}
	var variables map[string]string
	if err := json.Unmarshal(payload, &variables); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal variables")
	}
	if variables == nil {
		variables = map[string]string{}
	}
	return variables, nil
}

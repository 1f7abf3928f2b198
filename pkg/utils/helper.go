package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ParseQueryInt parses an optional integer query value. An empty value
// yields defaultValue; anything non-numeric is an error.
func ParseQueryInt(value string, defaultValue int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultValue, nil
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", value)
	}
	return result, nil
}

// ParseOptionalUUID parses an optional identifier query value.
func ParseOptionalUUID(value string) (*uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

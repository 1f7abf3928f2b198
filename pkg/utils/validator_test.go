package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	Username string `json:"username" validate:"required,min=4,max=20,alphanum"`
	Sort     string `json:"sort" validate:"omitempty,oneof=created_at likes"`
	Limit    int    `json:"limit" validate:"min=1,max=100"`
}

func TestValidateStructValid(t *testing.T) {
	assert.Nil(t, ValidateStruct(sampleRequest{Username: "alice1", Limit: 20}))
}

func TestValidateStructMessages(t *testing.T) {
	tests := []struct {
		name  string
		req   sampleRequest
		field string
		want  string
	}{
		{"required", sampleRequest{Limit: 1}, "username", "This field is required"},
		{"short string", sampleRequest{Username: "abc", Limit: 1}, "username", "Minimum length is 4"},
		{"alphanum", sampleRequest{Username: "bad name", Limit: 1}, "username", "Only letters and digits are allowed"},
		{"oneof", sampleRequest{Username: "alice1", Sort: "title", Limit: 1}, "sort", "Must be one of: created_at, likes"},
		{"number max", sampleRequest{Username: "alice1", Limit: 101}, "limit", "Maximum value is 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateStruct(tt.req)
			assert.Equal(t, tt.want, errs[tt.field])
		})
	}
}

func TestFormatValidationErrorsSorted(t *testing.T) {
	got := FormatValidationErrors(map[string]string{
		"title":   "This field is required",
		"content": "Minimum length is 100",
	})
	assert.Equal(t, "content: Minimum length is 100; title: This field is required", got)
}

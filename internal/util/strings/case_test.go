package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Post":           "post",
		"BlogPost":       "blog_post",
		"HTTPRequest":    "http_request",
		"FieldLevelTest": "field_level_test",
	}
	for in, want := range tests {
		assert.Equal(t, want, ToSnakeCase(in), in)
	}
}

func TestToLowerCamel(t *testing.T) {
	tests := map[string]string{
		"":                 "",
		"ID":               "id",
		"Bar":              "bar",
		"bar":              "bar",
		"URLPath":          "urlPath",
		"ComputedProperty": "computedProperty",
		"StringID":         "stringID",
	}
	for in, want := range tests {
		assert.Equal(t, want, ToLowerCamel(in), in)
	}
}

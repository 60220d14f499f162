package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		wantNil bool
		wantErr bool
	}{
		{
			name:    "nil document compiles to nil",
			raw:     nil,
			wantNil: true,
		},
		{
			name: "valid object schema compiles",
			raw: Object(map[string]*Property{
				"query": String("What to search for"),
			}, "query"),
		},
		{
			name:    "invalid type keyword fails",
			raw:     map[string]any{"type": "not-a-type"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Compile(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, s)
			} else {
				require.NotNil(t, s)
				assert.Equal(t, tt.raw, s.Raw())
			}
		})
	}
}

func TestValidate(t *testing.T) {
	s := MustCompile(Object(map[string]*Property{
		"query": String("What to search for"),
		"limit": Integer("Maximum results").Default(5),
	}, "query"))

	tests := []struct {
		name    string
		data    map[string]any
		wantErr bool
	}{
		{
			name: "valid arguments pass",
			data: map[string]any{"query": "go releases", "limit": 3},
		},
		{
			name: "optional property may be omitted",
			data: map[string]any{"query": "go releases"},
		},
		{
			name:    "missing required property fails",
			data:    map[string]any{"limit": 3},
			wantErr: true,
		},
		{
			name:    "wrong type fails",
			data:    map[string]any{"query": 42},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.data)
			if tt.wantErr {
				var verr *ValidationError
				require.Error(t, err)
				assert.True(t, errors.As(err, &verr))
				assert.Contains(t, err.Error(), "schema validation failed")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateNilSchemaAcceptsEverything(t *testing.T) {
	var s *Schema
	assert.NoError(t, s.Validate(map[string]any{"anything": true}))
}

func TestBuilders(t *testing.T) {
	raw := Object(map[string]*Property{
		"name":    String("Display name"),
		"count":   Integer("How many").Default(1),
		"ratio":   Number("Scale factor"),
		"verbose": Boolean("Extra output"),
	}, "name")

	props, ok := raw["properties"].(map[string]any)
	require.True(t, ok)

	assert.Equal(t, map[string]any{"type": "string", "description": "Display name"}, props["name"])
	assert.Equal(t, map[string]any{"type": "integer", "description": "How many", "default": 1}, props["count"])
	assert.Equal(t, map[string]any{"type": "number", "description": "Scale factor"}, props["ratio"])
	assert.Equal(t, map[string]any{"type": "boolean", "description": "Extra output"}, props["verbose"])
	assert.Equal(t, []string{"name"}, raw["required"])
}

func TestMustCompilePanicsOnInvalidSchema(t *testing.T) {
	assert.Panics(t, func() {
		MustCompile(map[string]any{"type": "not-a-type"})
	})
}

package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkerMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"JsonProperty", true},
		{"JsonPropertyAttribute", true},
		{"Newtonsoft.Json.JsonProperty", true},
		{"global::Newtonsoft.Json.JsonPropertyAttribute", true},
		{"JsonPropertyName", false},
		{"Other.JsonProperty", false},
		{"Obsolete", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Newtonsoft.Matches(tt.name), tt.name)
	}
}

func TestMarkerUsage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `[JsonProperty("first_name")]`, Newtonsoft.Usage("first_name"))
	assert.Equal(t, `[JsonPropertyName("id")]`, SystemTextJson.Usage("id"))
}

func TestMarkerByName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "newtonsoft", "Json.NET", " newtonsoft "} {
		m, err := MarkerByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, Newtonsoft, m, name)
	}
	for _, name := range []string{"system-text-json", "STJ", "System.Text.Json"} {
		m, err := MarkerByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, SystemTextJson, m, name)
	}

	_, err := MarkerByName("protobuf")
	require.Error(t, err)
}

package casing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToPascal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"first_name", "FirstName"},
		{"id", "Id"},
		{"UserId", "UserId"},
		{"already_Pascal", "AlreadyPascal"},
		{"", ""},
		{"x", "X"},
		{"URL", "URL"},
		{"_id_", "Id"},
		{"__", ""},
		{"user__id", "UserId"},
		{"http_URL", "HttpURL"},
		{"camelCase", "CamelCase"},
		{"état_civil", "ÉtatCivil"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ToPascal(tt.in))
		})
	}
}

func TestToPascal_FixpointOnPascalCase(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"FirstName", "Id", "UserId", "URL", "X", "HttpURL", "Age"} {
		once := ToPascal(s)
		assert.Equal(t, s, once, "ToPascal(%q)", s)
		assert.Equal(t, once, ToPascal(once), "ToPascal(ToPascal(%q))", s)
	}
}

func TestToPascal_Idempotent(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"first_name", "_id_", "already_Pascal", "a_b_c", "x"} {
		once := ToPascal(s)
		assert.Equal(t, once, ToPascal(once), "ToPascal(%q)", s)
	}
}

func TestIsPascal(t *testing.T) {
	t.Parallel()

	assert.True(t, IsPascal("Age"))
	assert.True(t, IsPascal("URL"))
	assert.True(t, IsPascal(""))
	assert.False(t, IsPascal("age"))
	assert.False(t, IsPascal("First_Name"))
	assert.False(t, IsPascal("_Id"))
}

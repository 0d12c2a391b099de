package rewrite

import (
	"fmt"
	"strconv"
	"strings"
)

// Marker is the serialization attribute that records a property's original
// wire name, and the namespace that defines it.
type Marker struct {
	Attribute string
	Namespace string
}

var (
	// Newtonsoft is Json.NET's [JsonProperty("name")].
	Newtonsoft = Marker{Attribute: "JsonProperty", Namespace: "Newtonsoft.Json"}

	// SystemTextJson is System.Text.Json's [JsonPropertyName("name")].
	SystemTextJson = Marker{Attribute: "JsonPropertyName", Namespace: "System.Text.Json.Serialization"}
)

// MarkerByName maps the names accepted in configuration to markers.
func MarkerByName(name string) (Marker, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "newtonsoft", "json.net":
		return Newtonsoft, nil
	case "system-text-json", "stj", "system.text.json":
		return SystemTextJson, nil
	default:
		return Marker{}, fmt.Errorf("rewrite: unknown serializer %q", name)
	}
}

// Matches reports whether an attribute name, as written in source, refers to
// the marker: bare, with the Attribute suffix, or namespace-qualified.
func (m Marker) Matches(name string) bool {
	name = strings.TrimPrefix(name, "global::")
	for _, candidate := range []string{m.Attribute, m.Attribute + "Attribute"} {
		if name == candidate || name == m.Namespace+"."+candidate {
			return true
		}
	}
	return false
}

// Usage renders the attribute list annotating a property with its wire name.
func (m Marker) Usage(wireName string) string {
	return "[" + m.Attribute + "(" + strconv.Quote(wireName) + ")]"
}

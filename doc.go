// Package pascalfix provides a code fix for C# types whose properties are not
// PascalCase. It renames each such property and tags it with a serialization
// attribute carrying the original name, so the JSON wire format is unchanged.
//
// # Pipeline
//
// A fix runs in three steps over tree-sitter parse trees:
//
//  1. Resolve: find the smallest class, struct or record enclosing the
//     diagnostic's span and remember it by name (its namespace-qualified
//     path), never by node.
//
//  2. Rewrite: capture the container's auto-property names, then for each
//     name re-locate the container and the property in the current tree,
//     rename it and add [JsonProperty("original")]. Every edit produces a new
//     source buffer and a new tree.
//
//  3. Import: add using Newtonsoft.Json; unless the unit already has it.
//
// A failure at any step discards the whole fix; partial rewrites are never
// returned.
//
// # Usage
//
//	f := pascalfix.New()
//	res, err := f.Fix(ctx, src, pascalfix.NewDiagnostic(pascalfix.Span{Start: off, End: off}))
//	if errors.Is(err, pascalfix.ErrNotApplicable) { ... }
//	os.WriteFile(path, res.Source, 0o644)
//
// [Fixer.FixAll] applies several diagnostics to one document, [Fixer.FixDocument]
// fixes every container in a document and [Fixer.FixFiles] fixes many files
// concurrently.
//
// # Serializers
//
// [Newtonsoft] (the default) annotates with JsonProperty from Newtonsoft.Json.
// [SystemTextJson] annotates with JsonPropertyName from
// System.Text.Json.Serialization. Select one with [WithMarker].
package pascalfix

// Package rewrite renames the properties of a C# container to PascalCase and
// annotates each renamed property with its original wire name.
//
// Every edit produces a new syntax.Document. Containers and properties are
// looked up again by name in the current document before each edit; views
// from an earlier document are never reused.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jward/pascalfix/internal/casing"
	"github.com/jward/pascalfix/internal/syntax"
)

var (
	// ErrStaleReference is returned when a container or property captured at
	// the start of a rewrite cannot be found again in the current document.
	ErrStaleReference = errors.New("stale reference")

	// ErrNameCollision is returned when the PascalCase name of a property is
	// already used by another member of its container.
	ErrNameCollision = errors.New("name collision")

	// ErrInvalidSyntax is returned when an edit would leave the document with
	// syntax errors.
	ErrInvalidSyntax = errors.New("invalid syntax")
)

// Rename records one renamed property.
type Rename struct {
	Container string `json:"container" yaml:"container"`
	From      string `json:"from" yaml:"from"`
	To        string `json:"to" yaml:"to"`
	Annotated bool   `json:"annotated" yaml:"annotated"`
}

// Outcome is the result of rewriting a document.
type Outcome struct {
	Doc         *syntax.Document
	Renames     []Rename
	ImportAdded bool
}

// Annotated reports whether any rename added a marker attribute.
func (o *Outcome) Annotated() bool {
	return slices.ContainsFunc(o.Renames, func(r Rename) bool { return r.Annotated })
}

// Rewriter applies the rename-and-annotate transform for one Marker.
type Rewriter struct {
	marker Marker
	logger *slog.Logger
}

// New creates a Rewriter. A nil logger discards log output.
func New(marker Marker, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Rewriter{marker: marker, logger: logger}
}

// Marker returns the attribute the Rewriter annotates with.
func (r *Rewriter) Marker() Marker {
	return r.marker
}

// Container renames the properties of the referenced container and, if any
// annotation was added, ensures the marker's namespace is imported.
//
// On error the returned Outcome is nil; doc is never modified.
func (r *Rewriter) Container(ctx context.Context, doc *syntax.Document, ref syntax.Ref) (*Outcome, error) {
	out, err := r.Members(ctx, doc, ref)
	if err != nil {
		return nil, err
	}
	if !out.Annotated() {
		return out, nil
	}

	next, added, err := r.EnsureImport(ctx, out.Doc)
	if err != nil {
		return nil, err
	}
	out.Doc, out.ImportAdded = next, added
	return out, nil
}

// Members renames the eligible properties of the referenced container
// without touching imports.
func (r *Rewriter) Members(ctx context.Context, doc *syntax.Document, ref syntax.Ref) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, ok := doc.Lookup(ref)
	if !ok {
		return nil, fmt.Errorf("rewrite: container %s: %w", ref, ErrStaleReference)
	}

	// Identifiers are about to change; capture them before the first edit.
	var names []string
	for _, p := range doc.Properties(c) {
		if p.Eligible() {
			names = append(names, p.Name)
		}
	}

	out := &Outcome{Doc: doc}
	for _, name := range names {
		next, rename, err := r.member(ctx, out.Doc, ref, name)
		if err != nil {
			return nil, err
		}
		if rename == nil {
			continue
		}
		out.Doc = next
		out.Renames = append(out.Renames, *rename)
	}
	return out, nil
}

// member rewrites a single property. It returns a nil Rename when the
// property needs no change.
func (r *Rewriter) member(ctx context.Context, doc *syntax.Document, ref syntax.Ref, name string) (*syntax.Document, *Rename, error) {
	path := ref.String()
	c, ok := doc.Lookup(ref)
	if !ok {
		return nil, nil, fmt.Errorf("rewrite: container %s vanished: %w", path, ErrStaleReference)
	}
	p, ok := findProperty(doc, c, name)
	if !ok {
		return nil, nil, fmt.Errorf("rewrite: member %q of %s vanished: %w", name, path, ErrStaleReference)
	}

	ident := strings.TrimPrefix(p.Name, "@")
	pascal := casing.ToPascal(ident)
	if pascal == ident {
		return doc, nil, nil
	}
	if !validIdentifier(pascal) {
		r.logger.Warn("skipping property without a usable PascalCase name",
			"container", path, "property", p.Name, "candidate", pascal)
		return doc, nil, nil
	}
	if err := checkCollision(doc, c, p.Name, pascal); err != nil {
		return nil, nil, fmt.Errorf("rewrite: %s.%s: %w", path, p.Name, err)
	}

	annotate := !slices.ContainsFunc(p.Attributes, func(a syntax.Attribute) bool {
		return r.marker.Matches(a.Name)
	})

	start, end, text := r.edit(doc, p, ident, pascal, annotate)
	next, err := doc.Replace(ctx, start, end, text)
	if err != nil {
		return nil, nil, fmt.Errorf("rewrite: %s.%s: %w", path, p.Name, err)
	}
	if next.HasErrors() && !doc.HasErrors() {
		return nil, nil, fmt.Errorf("rewrite: renaming %s.%s: %w", path, p.Name, ErrInvalidSyntax)
	}

	r.logger.Debug("renamed property",
		"container", path, "from", p.Name, "to", pascal, "annotated", annotate)

	return next, &Rename{Container: ref.Path, From: p.Name, To: pascal, Annotated: annotate}, nil
}

// edit returns the replacement that renames p to pascal and, when annotate is
// set, places the marker after the property's attribute lists.
func (r *Rewriter) edit(doc *syntax.Document, p syntax.Property, wireName, pascal string, annotate bool) (int, int, string) {
	if !annotate {
		return p.NameStart, p.NameEnd, pascal
	}

	src := doc.Source()
	usage := r.marker.Usage(wireName)
	indent, blank := doc.LineIndent(p.Start)
	if !blank {
		indent = ""
	}

	if p.AttributesEnd >= 0 {
		// [Existing]<sep>[Marker("x")]<original gap>modifiers type Pascal
		sep := " "
		if gap := src[p.AttributesEnd:p.NameStart]; leadingNewline(gap) {
			sep = "\n" + indent
		}
		return p.AttributesEnd, p.NameEnd, sep + usage + string(src[p.AttributesEnd:p.NameStart]) + pascal
	}

	sep := " "
	if blank {
		sep = "\n" + indent
	}
	return p.Start, p.NameEnd, usage + sep + string(src[p.Start:p.NameStart]) + pascal
}

// EnsureImport adds a top-level using directive for the marker's namespace
// unless a plain using of that namespace already exists anywhere in doc.
func (r *Rewriter) EnsureImport(ctx context.Context, doc *syntax.Document) (*syntax.Document, bool, error) {
	for _, imp := range doc.Imports() {
		if !imp.Alias && !imp.Static && imp.Name == r.marker.Namespace {
			return doc, false, nil
		}
	}

	directive := "using " + r.marker.Namespace + ";"
	ins := doc.ImportInsertion()

	var text string
	switch ins.Mode {
	case syntax.AfterImport:
		indent, blank := doc.LineIndent(ins.Anchor)
		if !blank {
			indent = ""
		}
		text = "\n" + indent + directive
	case syntax.AfterExternAlias:
		text = "\n\n" + directive
	case syntax.BeforeConstruct:
		text = directive + "\n\n"
	case syntax.EndOfUnit:
		text = directive + "\n"
		if src := doc.Source(); len(src) > 0 && src[len(src)-1] != '\n' {
			text = "\n" + text
		}
	}

	next, err := doc.Replace(ctx, ins.Offset, ins.Offset, text)
	if err != nil {
		return nil, false, fmt.Errorf("rewrite: adding %s: %w", directive, err)
	}
	if next.HasErrors() && !doc.HasErrors() {
		return nil, false, fmt.Errorf("rewrite: adding %s: %w", directive, ErrInvalidSyntax)
	}

	r.logger.Debug("added using directive", "namespace", r.marker.Namespace, "offset", ins.Offset)
	return next, true, nil
}

func findProperty(doc *syntax.Document, c syntax.Container, name string) (syntax.Property, bool) {
	for _, p := range doc.Properties(c) {
		if p.Name == name && p.Eligible() {
			return p, true
		}
	}
	return syntax.Property{}, false
}

// checkCollision rejects pascal if the container or another of its members
// already uses that name.
func checkCollision(doc *syntax.Document, c syntax.Container, current, pascal string) error {
	if pascal == strings.TrimPrefix(c.Name, "@") {
		return fmt.Errorf("%q matches its enclosing type: %w", pascal, ErrNameCollision)
	}
	for _, name := range doc.MemberNames(c) {
		if name == current {
			continue
		}
		if strings.TrimPrefix(name, "@") == pascal {
			return fmt.Errorf("%q is already declared: %w", pascal, ErrNameCollision)
		}
	}
	return nil
}

func validIdentifier(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return s != "" && (unicode.IsLetter(r) || r == '_')
}

func leadingNewline(gap []byte) bool {
	for _, b := range gap {
		switch b {
		case '\n':
			return true
		case ' ', '\t', '\r':
		default:
			return false
		}
	}
	return false
}

package pascalfix

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/jward/pascalfix/internal/rewrite"
	"github.com/jward/pascalfix/internal/syntax"
)

var (
	// ErrNotApplicable is returned when a diagnostic has another ID or its
	// span is not inside a class, struct or record.
	ErrNotApplicable = errors.New("no applicable target")

	// ErrStaleReference is returned when a container or property vanished
	// while the rewrite was re-locating it.
	ErrStaleReference = rewrite.ErrStaleReference

	// ErrNameCollision is returned when a PascalCase name is already taken.
	ErrNameCollision = rewrite.ErrNameCollision

	// ErrInvalidSyntax is returned for input that does not parse cleanly, or
	// when an edit would break the syntax.
	ErrInvalidSyntax = rewrite.ErrInvalidSyntax

	// ErrUnsupportedLanguage is returned by FixFiles for non-C# files.
	ErrUnsupportedLanguage = syntax.ErrUnsupportedLanguage
)

// Fixer applies the PascalCase-with-JSON-name code fix.
type Fixer struct {
	marker      Marker
	logger      *slog.Logger
	parallelism int
	rewriter    *rewrite.Rewriter
}

// Option configures a Fixer.
type Option func(*Fixer)

// WithMarker selects the serialization attribute. Defaults to Newtonsoft.
func WithMarker(m Marker) Option {
	return func(f *Fixer) {
		f.marker = m
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fixer) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithParallelism bounds how many files FixFiles processes at once.
// Values below 1 mean runtime.NumCPU().
func WithParallelism(n int) Option {
	return func(f *Fixer) {
		f.parallelism = n
	}
}

// New creates a Fixer.
func New(opts ...Option) *Fixer {
	f := &Fixer{
		marker: Newtonsoft,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.parallelism < 1 {
		f.parallelism = runtime.NumCPU()
	}
	f.rewriter = rewrite.New(f.marker, f.logger)
	return f
}

// FixableDiagnosticIDs returns the diagnostic IDs the Fixer handles.
func (f *Fixer) FixableDiagnosticIDs() []string {
	return []string{DiagnosticID}
}

// Title is the user-facing name of the code action.
func (f *Fixer) Title() string {
	if f.marker == Newtonsoft {
		return "To PascalCase with Json.Net"
	}
	return "To PascalCase with " + f.marker.Attribute
}

// Fix applies the fix for one diagnostic to src. On error no result is
// returned; the caller keeps src.
func (f *Fixer) Fix(ctx context.Context, src []byte, d Diagnostic) (*Result, error) {
	return f.FixAll(ctx, src, []Diagnostic{d})
}

// FixAll applies the fix for every applicable diagnostic in ds to src.
// Diagnostic spans are resolved against src before any edit; the containers
// are then rewritten one after another and the import is ensured once.
// Diagnostics that do not apply are skipped; if none applies the error is
// ErrNotApplicable.
func (f *Fixer) FixAll(ctx context.Context, src []byte, ds []Diagnostic) (*Result, error) {
	doc, err := f.parse(ctx, src)
	if err != nil {
		return nil, err
	}
	return f.fixDiagnostics(ctx, src, doc, ds)
}

// fixDiagnostics is FixAll over an already parsed src.
func (f *Fixer) fixDiagnostics(ctx context.Context, src []byte, doc *syntax.Document, ds []Diagnostic) (*Result, error) {
	var refs []syntax.Ref
	seen := make(map[syntax.Ref]bool)
	for _, d := range ds {
		ref, err := f.resolve(doc, d)
		if err != nil {
			f.logger.Debug("skipping diagnostic", "id", d.ID, "start", d.Span.Start, "error", err)
			continue
		}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		if len(ds) == 1 {
			// Keep the precise reason for the common single-diagnostic case.
			_, err := f.resolve(doc, ds[0])
			return nil, err
		}
		return nil, fmt.Errorf("pascalfix: %d diagnostic(s): %w", len(ds), ErrNotApplicable)
	}

	return f.fixRefs(ctx, src, doc, refs)
}

// FixDocument fixes every container in src. A document without containers
// comes back unchanged.
func (f *Fixer) FixDocument(ctx context.Context, src []byte) (*Result, error) {
	doc, err := f.parse(ctx, src)
	if err != nil {
		return nil, err
	}

	var refs []syntax.Ref
	for _, c := range doc.Containers() {
		refs = append(refs, c.Ref())
	}
	return f.fixRefs(ctx, src, doc, refs)
}

// FixContainer fixes the container with the given namespace-qualified path,
// e.g. "App.Models.Person".
func (f *Fixer) FixContainer(ctx context.Context, src []byte, path string) (*Result, error) {
	doc, err := f.parse(ctx, src)
	if err != nil {
		return nil, err
	}

	var refs []syntax.Ref
	for _, c := range doc.Containers() {
		if c.Path == path {
			refs = append(refs, c.Ref())
		}
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("pascalfix: no class, struct or record named %s: %w", path, ErrNotApplicable)
	}
	return f.fixRefs(ctx, src, doc, refs)
}

// resolve maps a diagnostic to the container enclosing its span.
func (f *Fixer) resolve(doc *syntax.Document, d Diagnostic) (syntax.Ref, error) {
	if d.ID != DiagnosticID {
		return syntax.Ref{}, fmt.Errorf("pascalfix: diagnostic %q: %w", d.ID, ErrNotApplicable)
	}
	c, ok := doc.ContainerAt(d.Span.Start)
	if !ok {
		return syntax.Ref{}, fmt.Errorf("pascalfix: no class, struct or record at offset %d: %w", d.Span.Start, ErrNotApplicable)
	}
	return c.Ref(), nil
}

func (f *Fixer) fixRefs(ctx context.Context, src []byte, doc *syntax.Document, refs []syntax.Ref) (*Result, error) {
	res := &Result{Original: src}

	annotated := false
	for _, ref := range refs {
		out, err := f.rewriter.Members(ctx, doc, ref)
		if err != nil {
			return nil, err
		}
		doc = out.Doc
		res.Renames = append(res.Renames, out.Renames...)
		annotated = annotated || out.Annotated()
	}

	if annotated {
		next, added, err := f.rewriter.EnsureImport(ctx, doc)
		if err != nil {
			return nil, err
		}
		doc, res.ImportAdded = next, added
	}

	res.Source = doc.Source()
	f.logger.Info("fix applied",
		"containers", len(refs), "renames", len(res.Renames), "import_added", res.ImportAdded)
	return res, nil
}

func (f *Fixer) parse(ctx context.Context, src []byte) (*syntax.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := syntax.Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("pascalfix: %w", err)
	}
	if doc.HasErrors() {
		return nil, fmt.Errorf("pascalfix: source does not parse cleanly: %w", ErrInvalidSyntax)
	}
	return doc, nil
}

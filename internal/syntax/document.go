// Package syntax wraps tree-sitter parse trees of C# source in immutable
// documents and exposes typed views of the declarations the fixer rewrites.
//
// A Document never changes after Parse. Edits go through Document.Replace,
// which builds a new buffer and a new tree; views and nodes obtained from the
// old document stay tied to the old document and must be looked up again by
// name in the new one.
package syntax

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrUnsupportedLanguage is returned when no grammar is registered for a language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Document is an immutable C# source buffer together with its parse tree.
type Document struct {
	src  []byte
	tree *sitter.Tree
	root *sitter.Node
}

// Parse parses C# source. The source is copied; later changes to src do not
// affect the Document.
func Parse(ctx context.Context, src []byte) (*Document, error) {
	return parse(ctx, bytes.Clone(src))
}

func parse(ctx context.Context, src []byte) (*Document, error) {
	if src == nil {
		src = []byte{}
	}
	lang, ok := GrammarForLanguage(CSharp)
	if !ok {
		return nil, fmt.Errorf("syntax: %s: %w", CSharp, ErrUnsupportedLanguage)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	// Always a full parse: handing an old tree to the parser would require
	// editing it in place, and old documents must stay usable.
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("syntax: tree-sitter parse failed: %w", err)
	}
	return &Document{src: src, tree: tree, root: tree.RootNode()}, nil
}

// Source returns the document text. Callers must not modify the slice.
func (d *Document) Source() []byte {
	return d.src
}

// Len returns the size of the document in bytes.
func (d *Document) Len() int {
	return len(d.src)
}

// HasErrors reports whether the parse tree contains ERROR or MISSING nodes.
func (d *Document) HasErrors() bool {
	return d.root.HasError()
}

// Replace returns a new Document whose text is the receiver's text with the
// byte range [start, end) replaced by text. The receiver is left untouched.
func (d *Document) Replace(ctx context.Context, start, end int, text string) (*Document, error) {
	if start < 0 || end < start || end > len(d.src) {
		return nil, fmt.Errorf("syntax: replace range [%d, %d) outside document of %d bytes", start, end, len(d.src))
	}

	next := make([]byte, 0, len(d.src)-(end-start)+len(text))
	next = append(next, d.src[:start]...)
	next = append(next, text...)
	next = append(next, d.src[end:]...)

	return parse(ctx, next)
}

// Offset converts a 1-based line and a 1-based byte column to a byte offset.
func (d *Document) Offset(line, col int) (int, error) {
	if line < 1 || col < 1 {
		return 0, fmt.Errorf("syntax: invalid position %d:%d", line, col)
	}

	start := 0
	for l := 1; l < line; l++ {
		i := bytes.IndexByte(d.src[start:], '\n')
		if i < 0 {
			return 0, fmt.Errorf("syntax: line %d beyond end of document", line)
		}
		start += i + 1
	}

	end := len(d.src)
	if i := bytes.IndexByte(d.src[start:], '\n'); i >= 0 {
		end = start + i
	}
	off := start + col - 1
	if off > end {
		return 0, fmt.Errorf("syntax: column %d beyond end of line %d", col, line)
	}
	return off, nil
}

// LineIndent returns the text between the start of the line containing offset
// and offset itself, and whether that text is blank.
func (d *Document) LineIndent(offset int) (string, bool) {
	offset = min(max(offset, 0), len(d.src))
	start := bytes.LastIndexByte(d.src[:offset], '\n') + 1
	prefix := d.src[start:offset]
	return string(prefix), len(bytes.TrimSpace(prefix)) == 0
}

// text returns the source text covered by n.
func (d *Document) text(n *sitter.Node) string {
	return n.Content(d.src)
}

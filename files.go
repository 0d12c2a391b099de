package pascalfix

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jward/pascalfix/internal/syntax"
)

// Target selects what is fixed in each file. The zero Target fixes every
// container in the file.
type Target struct {
	// Diagnostics are applied with FixAll.
	Diagnostics []Diagnostic
	// Line and Col (1-based, byte columns) place a single diagnostic.
	Line, Col int
	// Container is a namespace-qualified type path, e.g. "App.Models.User".
	Container string
}

// FixTarget fixes src according to t.
func (f *Fixer) FixTarget(ctx context.Context, src []byte, t Target) (*Result, error) {
	switch {
	case len(t.Diagnostics) > 0:
		return f.FixAll(ctx, src, t.Diagnostics)
	case t.Line > 0:
		doc, err := f.parse(ctx, src)
		if err != nil {
			return nil, err
		}
		off, err := doc.Offset(t.Line, t.Col)
		if err != nil {
			return nil, fmt.Errorf("pascalfix: %w", err)
		}
		return f.fixDiagnostics(ctx, src, doc, []Diagnostic{NewDiagnostic(Span{Start: off, End: off})})
	case t.Container != "":
		return f.FixContainer(ctx, src, t.Container)
	default:
		return f.FixDocument(ctx, src)
	}
}

// FixFiles reads and fixes every file in paths concurrently, at most
// WithParallelism files at a time. Nothing is written back. Results are in
// the order of paths. The first failure cancels the rest and is returned
// with its path.
func (f *Fixer) FixFiles(ctx context.Context, paths []string, t Target) ([]*Result, error) {
	results := make([]*Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.parallelism)
	for i, path := range paths {
		g.Go(func() error {
			res, err := f.fixFile(ctx, path, t)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (f *Fixer) fixFile(ctx context.Context, path string, t Target) (*Result, error) {
	if _, ok := syntax.LanguageForFile(path); !ok {
		return nil, ErrUnsupportedLanguage
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	res, err := f.FixTarget(ctx, src, t)
	if err != nil {
		return nil, err
	}
	res.Path = path
	f.logger.Debug("file fixed", "path", path, "renames", len(res.Renames))
	return res, nil
}

// skipDirs are directory names never descended into by DiscoverFiles.
var skipDirs = map[string]bool{
	"bin":          true,
	"obj":          true,
	"packages":     true,
	"node_modules": true,
}

// DiscoverFiles returns the C# files under root. Inside a git repository it
// uses git ls-files so .gitignore is respected; otherwise it walks the tree,
// skipping hidden directories and build output (bin, obj, packages,
// node_modules).
func DiscoverFiles(root string) ([]string, error) {
	paths, err := gitListFiles(root)
	if err != nil {
		return walkListFiles(root)
	}
	return paths, nil
}

func gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		absPath := filepath.Join(root, line)
		if _, ok := syntax.LanguageForFile(absPath); ok {
			paths = append(paths, absPath)
		}
	}
	return paths, nil
}

func walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := syntax.LanguageForFile(path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

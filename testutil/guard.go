// Package testutil provides import-boundary assertions shared by the
// architecture tests of the engine, its plugins and the public data model.
package testutil

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// DomainPackage matches the public data model package.
func DomainPackage(path string) bool {
	return strings.HasSuffix(path, "/pkg/domain") || strings.Contains(path, "/pkg/domain@")
}

// InternalPackage matches any path containing an internal/ element.
func InternalPackage(path string) bool {
	return strings.Contains(path, "/internal/") || strings.HasPrefix(path, "internal/")
}

// Under matches prefix itself and every package nested below it.
func Under(prefix string) func(string) bool {
	return func(path string) bool {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
}

// ImportViolations parses the non-test Go files in dir, walking
// subdirectories when recursive is set, and reports every forbidden import
// as "import (in file)". File names are relative to dir.
func ImportViolations(dir string, recursive bool, forbidden func(string) bool) ([]string, error) {
	fset := token.NewFileSet()
	var viols []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		for _, imp := range file.Imports {
			ip, _ := strconv.Unquote(imp.Path.Value)
			if forbidden(ip) {
				viols = append(viols, fmt.Sprintf("%s (in %s)", ip, filepath.ToSlash(rel)))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(viols)
	return viols, nil
}

// AssertNoImports fails t when any non-test file under dir imports a
// forbidden package.
func AssertNoImports(t testing.TB, dir string, recursive bool, forbidden func(string) bool, reason string) {
	t.Helper()
	viols, err := ImportViolations(dir, recursive, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	failIf(t, "forbidden direct imports", reason, viols)
}

// TransitiveViolations loads pattern and returns every package in its
// dependency graph, excluding the roots, that matches forbidden.
func TransitiveViolations(pattern string, forbidden func(string) bool) ([]string, error) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports | packages.NeedDeps}
	roots, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var viols []string
	packages.Visit(roots, func(p *packages.Package) bool {
		if _, ok := seen[p.PkgPath]; ok {
			return false
		}
		seen[p.PkgPath] = struct{}{}
		return true
	}, nil)
	isRoot := make(map[string]bool, len(roots))
	for _, r := range roots {
		isRoot[r.PkgPath] = true
	}
	for path := range seen {
		if !isRoot[path] && forbidden(path) {
			viols = append(viols, path)
		}
	}
	sort.Strings(viols)
	return viols, nil
}

// AssertNoTransitiveDependency fails t when pattern depends, directly or
// not, on a forbidden package.
func AssertNoTransitiveDependency(t testing.TB, pattern string, forbidden func(string) bool, reason string) {
	t.Helper()
	viols, err := TransitiveViolations(pattern, forbidden)
	if err != nil {
		t.Fatalf("load %s: %v", pattern, err)
	}
	failIf(t, "forbidden transitive dependencies", reason, viols)
}

type fatalf interface {
	Fatalf(format string, args ...any)
}

func failIf(t fatalf, what, reason string, viols []string) {
	if len(viols) > 0 {
		t.Fatalf("%s (%s):\n%s", what, reason, strings.Join(viols, "\n"))
	}
}

package architecture_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const modulePrefix = "rescollect/internal/modules/"

// importsOf walks root and calls fn with every non-test Go file and the
// rescollect imports it declares.
func importsOf(t *testing.T, root string, fn func(path string, imports []string)) {
	t.Helper()
	fset := token.NewFileSet()
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		node, parseErr := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if parseErr != nil {
			return parseErr
		}
		var imports []string
		for _, imp := range node.Imports {
			if p := strings.Trim(imp.Path.Value, `"`); strings.HasPrefix(p, "rescollect/internal/") {
				imports = append(imports, p)
			}
		}
		fn(filepath.ToSlash(path), imports)
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
}

func TestHexagonalLayerImports(t *testing.T) {
	t.Parallel()
	importsOf(t, filepath.Join("..", "modules"), func(path string, imports []string) {
		module, layer := moduleName(path), detectLayer(path)
		if module == "" || layer == "" {
			return
		}
		for _, imp := range imports {
			if !strings.HasPrefix(imp, modulePrefix) {
				continue
			}
			if violatesLayerRule(module, layer, imp) {
				t.Errorf("forbidden import in %s (%s): %s", path, layer, imp)
			}
		}
	})
}

func TestPlatformDoesNotDependOnModules(t *testing.T) {
	t.Parallel()
	importsOf(t, filepath.Join("..", "platform"), func(path string, imports []string) {
		for _, imp := range imports {
			if strings.HasPrefix(imp, modulePrefix) || strings.Contains(imp, "/internal/ui/") || strings.HasSuffix(imp, "/internal/bootstrap") {
				t.Errorf("platform package %s imports %s", path, imp)
			}
		}
	})
}

func TestUIReachesModulesOnlyThroughPorts(t *testing.T) {
	t.Parallel()
	importsOf(t, filepath.Join("..", "ui"), func(path string, imports []string) {
		for _, imp := range imports {
			if !strings.HasPrefix(imp, modulePrefix) {
				continue
			}
			if hasLayer(imp, "service", "usecase", "adapter") {
				t.Errorf("ui package %s imports %s", path, imp)
			}
		}
	})
}

func TestViolatesLayerRule(t *testing.T) {
	t.Parallel()
	cases := []struct {
		module, layer, imp string
		want               bool
	}{
		{"rows", "usecase", modulePrefix + "rows/service", false},
		{"rows", "usecase", modulePrefix + "rows/adapter/out", true},
		{"rows", "port/out", modulePrefix + "measurement/port/in", false},
		{"rows", "usecase", modulePrefix + "measurement/service", true},
		{"collector", "adapter/in", modulePrefix + "collector/dto", false},
		{"collector", "adapter/in", modulePrefix + "collector/domain", true},
		{"collector", "port/out", modulePrefix + "batch/domain", false},
		{"collector", "service", modulePrefix + "collector/usecase", true},
		{"collector", "domain", modulePrefix + "collector/service", true},
	}
	for _, tc := range cases {
		if got := violatesLayerRule(tc.module, tc.layer, tc.imp); got != tc.want {
			t.Errorf("violatesLayerRule(%s, %s, %s) = %t, want %t", tc.module, tc.layer, tc.imp, got, tc.want)
		}
	}
}

func moduleName(path string) string {
	parts := strings.Split(path, "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "modules" {
			return parts[i+1]
		}
	}
	return ""
}

var layers = []string{"adapter/in", "adapter/out", "usecase", "service", "domain", "port/in", "port/out", "dto"}

func detectLayer(path string) string {
	for _, layer := range layers {
		if strings.Contains(path, "/"+layer+"/") {
			return layer
		}
	}
	return ""
}

func hasLayer(importPath string, names ...string) bool {
	for _, name := range names {
		if strings.Contains(importPath+"/", "/"+name+"/") {
			return true
		}
	}
	return false
}

// forbidden lists, per layer, what it may not import from its own module.
var forbidden = map[string][]string{
	"usecase": {"adapter"},
	"service": {"adapter", "usecase"},
	"domain":  {"adapter", "usecase", "service"},
}

func violatesLayerRule(module, layer, importPath string) bool {
	sameModule := strings.HasPrefix(importPath+"/", modulePrefix+module+"/")
	if !sameModule {
		if hasLayer(importPath, "service", "adapter", "usecase") {
			return true
		}
		if hasLayer(importPath, "port/in", "dto") {
			return false
		}
	}
	if layer == "adapter/in" {
		return !hasLayer(importPath, "port/in", "dto")
	}
	return hasLayer(importPath, forbidden[layer]...)
}

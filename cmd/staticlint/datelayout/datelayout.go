// Package datelayout reports calendar date layouts written out as string
// literals outside the models package, where models.DateLayout is declared.
// Stored dates are compared as strings, so every place that formats or
// parses them has to share the one layout constant.
package datelayout

import (
	"go/ast"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/tools/go/analysis"

	"github.com/patric-chuzhbe/exercisetracker/internal/models"
)

// layoutOwner is the package allowed to spell the layout out.
const layoutOwner = "internal/models"

var layouts = map[string]bool{
	models.DateLayout:                               true,
	strings.ReplaceAll(models.DateLayout, "-", "/"): true,
}

var Analyzer = &analysis.Analyzer{
	Name: "datelayout",
	Doc:  "reports date layout literals that should use models.DateLayout",
	Run:  run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	if strings.HasSuffix(pass.Pkg.Path(), layoutOwner) {
		return nil, nil
	}

	for _, file := range pass.Files {
		filename := pass.Fset.File(file.Pos()).Name()
		if isGoBuildCacheFile(filename) || strings.HasSuffix(filename, "_test.go") {
			continue
		}

		ast.Inspect(file, func(n ast.Node) bool {
			lit, ok := n.(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				return true
			}

			value, err := strconv.Unquote(lit.Value)
			if err != nil {
				return true
			}

			if layouts[value] {
				pass.Reportf(lit.Pos(), "date layout %q should be models.DateLayout", value)
			}

			return true
		})
	}

	return nil, nil
}

func isGoBuildCacheFile(path string) bool {
	path = filepath.ToSlash(path)
	return strings.Contains(path, "/go-build/")
}

// Command sqllint checks that every inline SQL statement starts with a unique
// `--sql <uuid>` audit marker. The marker is what query logs and the
// db_query_duration_seconds metric are keyed on.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	sqlKeywordPattern = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with)\b`)
	markerPattern     = regexp.MustCompile(`^--sql ([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)
)

type violation struct {
	file    string
	name    string
	line    int
	message string
}

func (v violation) String() string {
	return fmt.Sprintf("%s:%d %s (%s)", v.file, v.line, v.message, v.name)
}

type statement struct {
	file   string
	name   string
	line   int
	marker string
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"internal/sqlinline"}
	}
	os.Exit(run(targets, os.Stderr))
}

func run(targets []string, out io.Writer) int {
	var files []string
	for _, target := range targets {
		found, err := goFiles(target)
		if err != nil {
			fmt.Fprintf(out, "sqllint: %v\n", err)
			return 1
		}
		files = append(files, found...)
	}

	var statements []statement
	var violations []violation
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(out, "sqllint: %v\n", err)
			return 1
		}
		st, vs, err := lintSource(path, src)
		if err != nil {
			fmt.Fprintf(out, "sqllint: %v\n", err)
			return 1
		}
		statements = append(statements, st...)
		violations = append(violations, vs...)
	}
	violations = append(violations, duplicates(statements)...)

	if len(violations) == 0 {
		return 0
	}
	fmt.Fprintln(out, "sqllint: SQL audit marker violations")
	for _, v := range violations {
		fmt.Fprintf(out, "  %s\n", v)
	}
	return 1
}

func goFiles(target string) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if filepath.Ext(target) == ".go" {
			return []string{target}, nil
		}
		return nil, nil
	}
	var files []string
	err = filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != target && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_") || d.Name() == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".go" && !strings.HasSuffix(path, "_test.go") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// lintSource returns the marked statements declared in src along with any
// statement whose marker is missing or malformed.
func lintSource(path string, src []byte) ([]statement, []violation, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, nil, err
	}
	var statements []statement
	var violations []violation
	ast.Inspect(file, func(n ast.Node) bool {
		vs, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, value := range vs.Values {
			bl, ok := value.(*ast.BasicLit)
			if !ok || bl.Kind != token.STRING {
				continue
			}
			raw, err := unquote(bl.Value)
			if err != nil || !sqlKeywordPattern.MatchString(raw) {
				continue
			}
			name := specName(vs.Names, i)
			line := fset.Position(bl.Pos()).Line
			m := markerPattern.FindStringSubmatch(firstLine(raw))
			if m == nil {
				violations = append(violations, violation{file: path, line: line, name: name, message: "missing or invalid --sql <uuid> marker"})
				continue
			}
			statements = append(statements, statement{file: path, line: line, name: name, marker: m[1]})
		}
		return true
	})
	return statements, violations, nil
}

func duplicates(statements []statement) []violation {
	byMarker := make(map[string][]statement)
	for _, st := range statements {
		byMarker[st.marker] = append(byMarker[st.marker], st)
	}
	markers := make([]string, 0, len(byMarker))
	for marker, group := range byMarker {
		if len(group) > 1 {
			markers = append(markers, marker)
		}
	}
	sort.Strings(markers)

	var violations []violation
	for _, marker := range markers {
		group := byMarker[marker]
		first := group[0]
		for _, st := range group[1:] {
			violations = append(violations, violation{
				file:    st.file,
				line:    st.line,
				name:    st.name,
				message: fmt.Sprintf("marker %s already used by %s", marker, first.name),
			})
		}
	}
	return violations
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) == 0 {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}

func specName(idents []*ast.Ident, i int) string {
	if i < len(idents) && idents[i] != nil {
		return idents[i].Name
	}
	return "?"
}

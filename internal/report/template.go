package report

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/pmgledhill102/perfreport/internal/config"
	"github.com/pmgledhill102/perfreport/internal/format"
)

//go:embed templates/*
var builtin embed.FS

// Templates resolves templates by name. A file in Dir wins over a built-in
// template of the same name; a name that is neither is read as a path.
type Templates struct {
	Dir string
}

var funcs = template.FuncMap{
	"thousands":   thousandsText,
	"formatBytes": intText(format.Bytes),
	"formatTime":  intText(format.Time),
	"join":        strings.Join,
}

// Lookup parses the named template.
func (t Templates) Lookup(name string) (*template.Template, error) {
	if name == "" {
		return nil, config.Invalidf("template name is empty")
	}

	if t.Dir != "" {
		path := filepath.Join(t.Dir, name)
		if _, err := os.Stat(path); err == nil {
			return parseFile(path)
		}
	}

	if _, err := fs.Stat(builtin, "templates/"+name); err == nil {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(builtin, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing built-in template %s: %w", name, err)
		}
		return tmpl, nil
	}

	if _, err := os.Stat(name); err == nil {
		return parseFile(name)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading template %s: %w", name, err)
	}

	return nil, config.Invalidf("template %q not found", name)
}

func parseFile(path string) (*template.Template, error) {
	tmpl, err := template.New(filepath.Base(path)).Funcs(funcs).ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", path, err)
	}
	return tmpl, nil
}

// Render executes the named template with data and writes the result to out.
func (t Templates) Render(name string, data any, out string) error {
	tmpl, err := t.Lookup(name)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// CloudFormationContext returns the data a CloudFormation template is
// rendered with.
func CloudFormationContext(jmeterServers int) map[string]any {
	return map[string]any{
		"jmeter_servers": jmeterServers,
		"start_bastian":  true,
	}
}

// thousandsText groups the digits of a numeric string; anything else is
// returned unchanged.
func thousandsText(s string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return s
	}
	return format.Thousands(f)
}

func intText(fn func(int) string) func(string) string {
	return func(s string) string {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || f < 0 || f != float64(int(f)) {
			return s
		}
		return fn(int(f))
	}
}

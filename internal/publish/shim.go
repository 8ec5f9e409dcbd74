package publish

import (
	"bytes"
	"fmt"
	"go/format"
	"text/template"

	"git.home.luguber.info/inful/sqlite3src/internal/compileopts"
)

const shimFile = "sqlite3.go"

const shimTemplate = `// Code generated by sqlite3src; DO NOT EDIT.

// Package {{.Package}} bundles the SQLite amalgamation {{.Version}}.
package {{.Package}}

{{range .Defines}}// #cgo CFLAGS: {{.Flag}}
{{end}}// #cgo linux LDFLAGS: -ldl -lm
// #cgo openbsd LDFLAGS: -lm
// #include "sqlite3.h"
import "C"

const (
	// Version is the upstream release tag the amalgamation was generated from.
	Version = {{printf "%q" .Version}}
	// Commit is the upstream commit the amalgamation was generated from.
	Commit = {{printf "%q" .Commit}}
)

// LibVersion reports the version compiled into the bundled library.
func LibVersion() string {
	return C.GoString(C.sqlite3_libversion())
}
`

var shim = template.Must(template.New("shim").Option("missingkey=error").Parse(shimTemplate))

type shimData struct {
	Package string
	Version string
	Commit  string
	Defines []compileopts.Define
}

func renderShim(data shimData) ([]byte, error) {
	var buf bytes.Buffer
	if err := shim.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", shimFile, err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", shimFile, err)
	}
	return src, nil
}

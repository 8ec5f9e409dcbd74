// Package publish packages a generated amalgamation as a self-contained cgo
// Go package: the unmodified sqlite3.c and sqlite3.h, a generated sqlite3.go
// carrying the compile options as #cgo CFLAGS, and a manifest.yaml recording
// provenance. A downstream binding imports the package and cgo compiles
// sqlite3.c directly.
package publish

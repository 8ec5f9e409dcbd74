// Package compileopts models the SQLite compile-time options applied when the
// amalgamation is compiled, and renders them as C preprocessor defines.
//
// Options are addressed by snake_case keys (see Keys). Each option renders in
// one of four ways:
//   - set options always define NAME=1 or NAME=0
//   - enable options define NAME only when true
//   - omit options define SQLITE_OMIT_X only when false
//   - numeric and enumerated options define NAME=<n>
//
// See https://sqlite.org/compile.html for the meaning of each macro.
package compileopts

// Package submodule manages the vendored upstream SQLite checkout: a Git
// submodule of the superproject pinned to a release tag.
//
// All Git operations go through go-git; no git binary is required. The
// submodule's pinned reference lives in .gitmodules as
// submodule.<name>.branch = tags/version-<N>.
package submodule

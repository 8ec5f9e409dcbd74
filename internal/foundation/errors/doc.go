// Package errors provides the classified error primitives used across sqlite3src.
//
// Every failure surfaced to the CLI belongs to one category of the build
// taxonomy:
//   - CategoryFetch: the submodule could not be initialized or fetched
//   - CategoryPin: the requested version tag is invalid or missing upstream
//   - CategoryBuild: configure, make or the C toolchain failed
//   - CategoryPrerequisite: a step ran before the step it depends on
//
// plus the ambient categories (config, filesystem, internal).
//
// Errors are never retried. The CLI adapter maps an error to an exit code,
// preferring the exit status of a failed subprocess found in the chain.
//
// Example usage:
//
//	err := errors.BuildError("configure failed").
//		WithContext("dir", buildDir).
//		WithCause(runErr).
//		Build()
package errors

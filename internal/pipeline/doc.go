// Package pipeline runs the sqlite3src tasks.
//
// Each task declares the tasks it depends on. Running a task first resolves
// its dependency closure into a topological plan; every task in the plan runs
// exactly once, sequentially, and the run stops at the first failure.
//
//	prepare                  ensure submodule, create build directory
//	sqlite   <- prepare      configure + make sqlite3.c
//	build    <- sqlite       compile libsqlite3.a
//	publish  <- sqlite       bundle the amalgamation as a Go package
//	update   <- prepare      pin the submodule to a new version
//	clean                    remove build directory and cache
package pipeline

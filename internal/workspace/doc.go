// Package workspace owns the build workspace: the scratch directory where
// configure and make run, and the build cache holding compiled objects.
//
// Both directories are persistent between runs and are only removed by Clean.
// The workspace is not locked; concurrent builds against one workspace are
// unsupported.
package workspace

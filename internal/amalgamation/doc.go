// Package amalgamation regenerates the single-file SQLite amalgamation
// (sqlite3.c and sqlite3.h) from the upstream source checkout by running the
// upstream configure script and "make sqlite3.c" inside the build workspace.
//
// An artifact is only valid for the commit it was built from. Build does not
// repair a workspace left over from a different commit; it warns, and the
// caller is expected to Clean first.
package amalgamation

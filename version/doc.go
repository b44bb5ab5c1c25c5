// Package version reports the build of the running minispark binary.
//
// Version, Commit and BuildTime are set with -ldflags at release time;
// anything left empty is filled from the module build info.
package version

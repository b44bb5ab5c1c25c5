// Package storage serves FILE_BACKED partitions from pluggable backends.
//
// A backend registers a Factory under a URI scheme, usually from an init
// function. Input paths without a scheme go to the "file" backend:
//
//	inputs:
//	  lines: [data/a.txt, s3://logs/2026/10/b.txt]
//
// Component.Open retries transient backend errors with backoff and can cap
// concurrent opens per backend (see Config.Retry and
// Config.MaxConcurrentOpens).
//
// Import the backend packages for their side effect:
//
//	import (
//	    _ "github.com/kbukum/minispark/storage/local"
//	    _ "github.com/kbukum/minispark/storage/s3"
//	)
package storage

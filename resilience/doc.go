// Package resilience wraps calls to slow or flaky backends.
//
// Retry re-runs an operation with exponential backoff while its error is
// transient. Bulkhead caps how many operations run at once against one
// backend. The storage component combines both around every object open:
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "s3", MaxConcurrent: 4})
//	rc, err := resilience.Retry(ctx, cfg.Retry, func() (io.ReadCloser, error) {
//	    return resilience.Within(bh, ctx, func() (io.ReadCloser, error) {
//	        return backend.Open(ctx, path)
//	    })
//	})
package resilience

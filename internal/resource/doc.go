// Package resource limits the resources an index build and artifact transfers may use.
//
//   - Workers: a weighted semaphore bounds concurrent bucketization goroutines.
//   - Memory: a fail-fast budget for posting lists collected during a build.
//   - IO: a token bucket throttles store scans, index writes, and uploads.
//
// Usage:
//
//	rc := resource.NewController(resource.Config{
//	    MaxWorkers:         4,
//	    IOLimitBytesPerSec: 100 << 20,
//	})
//
//	if err := rc.AcquireWorker(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseWorker()
//
//	w := resource.NewRateLimitedWriter(ctx, file, rc)
//
// All Controller methods are safe for concurrent use. A nil *Controller is a
// valid no-op, so limits stay optional without nil checks at call sites.
package resource

// Package httputil provides HTTP helpers for remote catalog clients.
//
// # Retry
//
// [Retry] re-runs an operation with exponential backoff, but only for
// errors wrapped in [RetryableError]. Clients wrap transient failures
// (connection errors, 5xx and 429 responses) and return everything else
// as is, so a 404 or a bad token fails fast:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// [RetryWithBackoff] uses 3 attempts starting at a 1 second delay.
package httputil

package tvhomerun

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/five82/tvhomerun/internal/logging"
)

const (
	maxRetries          = 3
	defaultInitialDelay = 1000 * time.Millisecond
	defaultMaxDelay     = 5000 * time.Millisecond
	requestTimeout      = 30 * time.Second
)

// backoffDelay returns min(initial * 2^attempt, max). attempt is the zero-based
// number of the attempt that just failed.
func backoffDelay(initial, ceiling time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := initial
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= ceiling {
			return ceiling
		}
	}
	return min(delay, ceiling)
}

// retryPolicy retries every transport error and every non-2xx status.
// Successful responses are handed back even if their body will not decode.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	if resp == nil {
		return true, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return true, nil
	}
	return false, nil
}

func newRetryClient(hc *http.Client, log zerolog.Logger, initial, ceiling time.Duration) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = hc
	rc.RetryMax = maxRetries
	rc.RetryWaitMin = initial
	rc.RetryWaitMax = ceiling
	rc.CheckRetry = retryPolicy
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = logging.Leveled(log)
	rc.Backoff = func(waitMin, waitMax time.Duration, attempt int, resp *http.Response) time.Duration {
		delay := backoffDelay(waitMin, waitMax, attempt)
		event := log.Info().
			Int("attempt", attempt+1).
			Int("max_retries", maxRetries).
			Dur("delay", delay)
		if resp != nil {
			event = event.Int("status", resp.StatusCode)
		}
		event.Msg("request failed, retrying")
		return delay
	}
	return rc
}

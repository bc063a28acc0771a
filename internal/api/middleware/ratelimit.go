package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/phrazzld/jobd/internal/api/shared"
	"golang.org/x/time/rate"
)

// ErrRateLimited is logged when a request is refused by RateLimit.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimit admits at most perSecond requests per second with the given
// burst, shared by all clients. Refused requests get 429 with a Retry-After
// header. A perSecond of zero or less disables limiting.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	if perSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return RateLimitWith(rate.NewLimiter(rate.Limit(perSecond), max(burst, 1)))
}

// RateLimitWith is RateLimit over a caller-supplied limiter.
func RateLimitWith(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reservation := limiter.Reserve()
			if !reservation.OK() {
				reject(w, r, time.Second)
				return
			}
			if delay := reservation.Delay(); delay > 0 {
				reservation.Cancel()
				reject(w, r, delay)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, wait time.Duration) {
	seconds := int(math.Ceil(wait.Seconds()))
	w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
	shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
		"Too many job submissions, retry later", ErrRateLimited)
}

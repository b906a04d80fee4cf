package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"

	"connect-api/internal/logger"
	"connect-api/internal/models"
	"connect-api/internal/services"

	"github.com/sirupsen/logrus"
)

// ResponseWriter wraps http.ResponseWriter to capture the status code, so
// usage is only recorded once the downstream call is known to have
// succeeded.
type ResponseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *ResponseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

type RateLimiter struct {
	service services.RateLimitService
}

func NewRateLimiter(service services.RateLimitService) *RateLimiter {
	return &RateLimiter{service: service}
}

// Limit gates a metered endpoint behind the quota for the given api class.
// The check and the record are deliberately split around the handler: a
// failed downstream call must not consume quota, at the cost of a bounded
// overrun equal to the number of requests in flight at check time.
func (rl *RateLimiter) Limit(class models.APIClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := services.UserFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userID := user.ID.String()
			decision := rl.service.CheckQuota(r.Context(), userID, class)

			w.Header().Set("X-RateLimit-Limit-Hourly", strconv.Itoa(decision.LimitHourly))
			w.Header().Set("X-RateLimit-Limit-Daily", strconv.Itoa(decision.LimitDaily))
			w.Header().Set("X-RateLimit-Remaining-Hourly", strconv.Itoa(decision.RemainingHourly))
			w.Header().Set("X-RateLimit-Remaining-Daily", strconv.Itoa(decision.RemainingDaily))

			if !decision.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(decision.RetryAfterSeconds))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error":      "rate_limit_exceeded",
					"message":    "Rate limit exceeded. Please retry later.",
					"retryAfter": decision.RetryAfterSeconds,
				})
				return
			}

			rw := &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			if rw.status >= 400 {
				return
			}

			if err := rl.service.RecordUsage(r.Context(), userID, class); err != nil {
				// The downstream call already succeeded; don't fail the
				// response over a metering write.
				logger.Logger.WithFields(logrus.Fields{
					"error":     err,
					"user":      userID,
					"api_class": class,
				}).Error("Failed to record usage event")
			}
		})
	}
}

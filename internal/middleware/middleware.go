package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader = "X-Request-ID"
	ClientIDHeader  = "X-Client-ID"

	requestIDKey = "request_id"
	maxClients   = 10000
)

// RequestID echoes the caller's X-Request-ID or generates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"request_id": GetRequestID(c),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		})
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request served")
		case status >= http.StatusBadRequest:
			entry.Warn("request served")
		default:
			entry.Info("request served")
		}
	}
}

// RateLimiter allows one request per client every limit. Clients are told
// apart by X-Client-ID, falling back to the remote address. A zero limit
// disables the check.
type RateLimiter struct {
	clients map[string]time.Time
	mu      sync.Mutex
	limit   time.Duration

	// Reject writes the response for a throttled request.
	Reject gin.HandlerFunc
}

func NewRateLimiter(limit time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]time.Time),
		limit:   limit,
		Reject: func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		},
	}
}

func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.limit <= 0 {
			c.Next()
			return
		}
		clientID := c.GetHeader(ClientIDHeader)
		if clientID == "" {
			clientID = c.ClientIP()
		}
		if !r.allow(clientID, time.Now()) {
			r.Reject(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (r *RateLimiter) allow(clientID string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	last, exists := r.clients[clientID]
	if exists && now.Sub(last) < r.limit {
		return false
	}
	if len(r.clients) >= maxClients {
		for id, seen := range r.clients {
			if now.Sub(seen) >= r.limit {
				delete(r.clients, id)
			}
		}
	}
	r.clients[clientID] = now
	return true
}

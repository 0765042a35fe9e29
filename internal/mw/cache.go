package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// ResponseCache keeps successful GET responses in memory, keyed by request
// URI. Flush drops everything, e.g. when the underlying data changes.
type ResponseCache struct {
	entries *cache.Cache
	ttl     time.Duration
}

type snapshot struct {
	status      int
	contentType string
	body        []byte
}

// NewResponseCache creates a cache whose entries live for ttl.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		entries: cache.New(ttl, 2*ttl),
		ttl:     ttl,
	}
}

// Flush drops every cached response.
func (rc *ResponseCache) Flush() {
	rc.entries.Flush()
}

// Middleware serves cached responses and records fresh 2xx ones.
func (rc *ResponseCache) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if v, ok := rc.entries.Get(key); ok {
			hit := v.(snapshot)
			c.Header("X-Cache", "HIT")
			c.Data(hit.status, hit.contentType, hit.body)
			c.Abort()
			return
		}

		tee := &teeWriter{ResponseWriter: c.Writer}
		c.Writer = tee
		c.Next()

		if status := tee.Status(); status >= 200 && status < 300 {
			rc.entries.Set(key, snapshot{
				status:      status,
				contentType: tee.Header().Get("Content-Type"),
				body:        tee.buf.Bytes(),
			}, rc.ttl)
		}
	}
}

// teeWriter copies the response body while it is written to the client.
type teeWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

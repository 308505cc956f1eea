package middlewares

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vshulcz/enginestats/internal/misc"
)

// HashHeader carries the hex sha256 of body+key in both directions.
const HashHeader = "HashSHA256"

var bodyBuffers = misc.NewBufferPool(1 << 20)

// signingWriter holds the response back until it can be signed.
type signingWriter struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (w *signingWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

func (w *signingWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *signingWriter) WriteHeader(code int) {
	w.status = code
}

func (w *signingWriter) flush(c *gin.Context, key string) {
	if w.body.Len() > 0 {
		w.ResponseWriter.Header().Set(HashHeader, misc.SumSHA256(w.body.Bytes(), key))
	}
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}
	c.Writer = w.ResponseWriter
	c.Writer.WriteHeader(status)
	if _, err := c.Writer.Write(w.body.Bytes()); err != nil {
		_ = c.Error(err)
	}
}

// verifyBody checks a signed request body and puts it back for the handler.
// Unsigned requests pass through.
func verifyBody(c *gin.Context, key string) bool {
	got := strings.TrimSpace(c.GetHeader(HashHeader))
	if got == "" {
		return true
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "read body failed"})
		return false
	}
	if err := c.Request.Body.Close(); err != nil {
		_ = c.Error(err)
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if len(raw) > 0 && !strings.EqualFold(got, misc.SumSHA256(raw, key)) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid hash"})
		return false
	}
	return true
}

// HashSHA256 rejects signed ingestion bodies whose signature does not match
// the shared key and signs every response body. An empty key disables both.
func HashSHA256(key string) gin.HandlerFunc {
	key = strings.TrimSpace(key)
	if key == "" {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		sw := &signingWriter{ResponseWriter: c.Writer, body: bodyBuffers.Get()}
		defer bodyBuffers.Put(sw.body)
		c.Writer = sw

		if verifyBody(c, key) {
			c.Next()
		}
		sw.flush(c, key)
	}
}

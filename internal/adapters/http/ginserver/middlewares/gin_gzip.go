package middlewares

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

var gzipWriters = sync.Pool{
	New: func() any { return gzip.NewWriter(io.Discard) },
}

// compressibleTypes are the content types the stats pages and API emit.
var compressibleTypes = []string{"application/json", "text/html"}

func acceptsGzip(header string) bool {
	return strings.Contains(strings.ToLower(header), "gzip")
}

// inflatedBody closes the gzip stream and the original body together.
type inflatedBody struct {
	*gzip.Reader
	raw io.Closer
}

func (b inflatedBody) Close() error {
	gzErr := b.Reader.Close()
	rawErr := b.raw.Close()
	if gzErr != nil {
		return gzErr
	}
	return rawErr
}

// GzipRequest inflates gzip encoded request bodies before they reach the
// handlers; a broken stream is answered with 400.
func GzipRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !acceptsGzip(c.GetHeader("Content-Encoding")) {
			c.Next()
			return
		}
		gr, err := gzip.NewReader(c.Request.Body)
		if err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		c.Request.Body = inflatedBody{Reader: gr, raw: c.Request.Body}
		c.Request.Header.Del("Content-Encoding")
		c.Request.Header.Del("Content-Length")
		c.Request.ContentLength = -1
		c.Next()
	}
}

// lazyGzipWriter decides on the first write, once headers are final.
type lazyGzipWriter struct {
	gin.ResponseWriter
	zw      *gzip.Writer
	decided bool
}

func (w *lazyGzipWriter) shouldCompress() bool {
	h := w.Header()
	if h.Get("Content-Encoding") != "" {
		return false
	}
	if status := w.Status(); status < http.StatusOK || status == http.StatusNoContent {
		return false
	}
	ct := h.Get("Content-Type")
	for _, prefix := range compressibleTypes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}

func (w *lazyGzipWriter) Write(p []byte) (int, error) {
	if !w.decided {
		w.decided = true
		if w.shouldCompress() {
			w.Header().Del("Content-Length")
			w.Header().Set("Content-Encoding", "gzip")
			w.Header().Add("Vary", "Accept-Encoding")
			zw, ok := gzipWriters.Get().(*gzip.Writer)
			if !ok {
				zw = gzip.NewWriter(io.Discard)
			}
			zw.Reset(w.ResponseWriter)
			w.zw = zw
		}
	}
	if w.zw != nil {
		return w.zw.Write(p)
	}
	return w.ResponseWriter.Write(p)
}

func (w *lazyGzipWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *lazyGzipWriter) finish() error {
	if w.zw == nil {
		return nil
	}
	err := w.zw.Close()
	w.zw.Reset(io.Discard)
	gzipWriters.Put(w.zw)
	w.zw = nil
	return err
}

// GzipResponse compresses text and JSON responses for clients that accept
// gzip, unless the handler already encoded the body itself.
func GzipResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !acceptsGzip(c.GetHeader("Accept-Encoding")) {
			c.Next()
			return
		}
		lw := &lazyGzipWriter{ResponseWriter: c.Writer}
		c.Writer = lw
		c.Next()
		if err := lw.finish(); err != nil {
			_ = c.Error(err)
		}
	}
}

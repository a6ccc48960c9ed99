package server

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"taskmanager/internal/domain/messages"
	"taskmanager/internal/logging"
	"taskmanager/internal/pipeline"

	"github.com/gin-gonic/gin"
)

// RequestContext assigns every request an id, honouring one sent by the
// client, and logs the request once it has been answered.
func RequestContext() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		id := strings.TrimSpace(ctx.GetHeader(logging.HeaderRequestID))
		if id == "" || len(id) > 128 {
			id = logging.NewRequestID()
		}
		ctx.Request = ctx.Request.WithContext(logging.ContextWithRequestID(ctx.Request.Context(), id))
		ctx.Header(logging.HeaderRequestID, id)

		ctx.Next()

		status := ctx.Writer.Status()
		event := logging.Ctx(ctx.Request.Context()).Info()
		if status >= http.StatusInternalServerError {
			event = logging.Ctx(ctx.Request.Context()).Error()
		}
		event.
			Str("method", ctx.Request.Method).
			Str("path", ctx.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", ctx.ClientIP()).
			Msg("request")
	}
}

// Recovery turns a panic into the plain server error answer.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(ctx *gin.Context, recovered any) {
		logging.Ctx(ctx.Request.Context()).Error().Interface("panic", recovered).Msg("handler panicked")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": messages.ServerError})
	})
}

type gzipBody struct {
	*gzip.Reader
	body io.Closer
}

func (b *gzipBody) Close() error {
	err := b.Reader.Close()
	if cerr := b.body.Close(); err == nil {
		err = cerr
	}
	return err
}

// GzipRequestDecompress inflates request bodies sent with
// Content-Encoding: gzip so the validation stage sees plain JSON. Every
// body, inflated or not, is cut off after limit bytes; reading past it
// fails with *http.MaxBytesError.
func GzipRequestDecompress(limit int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		encoding := strings.ToLower(ctx.GetHeader("Content-Encoding"))
		if !strings.Contains(encoding, "gzip") {
			if ctx.Request.Body != nil {
				ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)
			}
			ctx.Next()
			return
		}

		gr, err := gzip.NewReader(ctx.Request.Body)
		if err != nil {
			resp := pipeline.Invalid(messages.BodyMalformed)
			ctx.AbortWithStatusJSON(resp.Status, resp.Body)
			return
		}
		body := &gzipBody{Reader: gr, body: ctx.Request.Body}
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, body, limit)
		ctx.Request.Header.Del("Content-Encoding")
		ctx.Request.Header.Del("Content-Length")
		ctx.Request.ContentLength = -1
		ctx.Next()
	}
}

const minCompressSize = 1024

var errHijackBuffered = errors.New("gzip response writer does not support hijacking")

var compressibleTypes = []string{"application/json", "text/plain"}

// gzipResponseWriter holds the whole answer so the encoding can be chosen
// before any header leaves the process.
type gzipResponseWriter struct {
	gin.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *gzipResponseWriter) WriteHeader(code int) {
	if code > 0 {
		w.status = code
	}
}

func (w *gzipResponseWriter) WriteHeaderNow() {}

func (w *gzipResponseWriter) Write(data []byte) (int, error) { return w.buf.Write(data) }

func (w *gzipResponseWriter) WriteString(s string) (int, error) { return w.buf.WriteString(s) }

func (w *gzipResponseWriter) Status() int { return w.status }

func (w *gzipResponseWriter) Size() int { return w.buf.Len() }

func (w *gzipResponseWriter) Written() bool { return w.buf.Len() > 0 }

// Flush is a no-op: nothing may reach the client before the encoding is
// chosen in finish.
func (w *gzipResponseWriter) Flush() {}

func (w *gzipResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return nil, nil, errHijackBuffered
}

func (w *gzipResponseWriter) compressible() bool {
	if w.buf.Len() < minCompressSize || w.status == http.StatusNoContent || w.status == http.StatusNotModified {
		return false
	}
	if w.Header().Get("Content-Encoding") != "" {
		return false
	}
	ct := strings.ToLower(w.Header().Get("Content-Type"))
	for _, prefix := range compressibleTypes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}

func (w *gzipResponseWriter) finish() error {
	out := w.ResponseWriter
	if !w.compressible() {
		out.WriteHeader(w.status)
		out.WriteHeaderNow()
		if w.buf.Len() == 0 {
			return nil
		}
		_, err := out.Write(w.buf.Bytes())
		return err
	}

	out.Header().Del("Content-Length")
	out.Header().Set("Content-Encoding", "gzip")
	out.WriteHeader(w.status)

	gw := gzip.NewWriter(out)
	if _, err := gw.Write(w.buf.Bytes()); err != nil {
		_ = gw.Close()
		return err
	}
	return gw.Close()
}

// GzipResponseCompress compresses JSON and text answers of at least
// minCompressSize bytes for clients that accept gzip. It must run before
// Recovery so a recovered panic is still written through it.
func GzipResponseCompress() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method == http.MethodHead ||
			!strings.Contains(strings.ToLower(ctx.GetHeader("Accept-Encoding")), "gzip") {
			ctx.Next()
			return
		}

		ctx.Header("Vary", "Accept-Encoding")
		original := ctx.Writer
		gw := &gzipResponseWriter{ResponseWriter: original, status: original.Status()}
		ctx.Writer = gw

		ctx.Next()

		ctx.Writer = original
		if err := gw.finish(); err != nil {
			logging.Ctx(ctx.Request.Context()).Error().Err(err).Msg("response compression failed")
		}
	}
}

package http

import (
	"net/http"
)

// StatusResponseWriter is a response writer that remembers the status code
// it wrote so middleware can report on it after the fact.
type StatusResponseWriter struct {
	statusCode    int
	responseBytes int
	http.ResponseWriter
}

// NewStatusResponseWriter wraps w.
func NewStatusResponseWriter(w http.ResponseWriter) *StatusResponseWriter {
	return &StatusResponseWriter{
		ResponseWriter: w,
	}
}

func (w *StatusResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.responseBytes += n
	return n, err
}

// WriteHeader writes the header and captures the status code.
func (w *StatusResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Code returns the status code, defaulting to 200 when none was written.
func (w *StatusResponseWriter) Code() int {
	code := w.statusCode
	if code == 0 {
		// When statusCode is 0 the response header has not been written yet;
		// when it is written the status will be 200.
		code = http.StatusOK
	}
	return code
}

// ResponseBytes returns the number of body bytes written so far.
func (w *StatusResponseWriter) ResponseBytes() int {
	return w.responseBytes
}

// StatusCodeClass returns the class of the status code, e.g. "2XX".
func (w *StatusResponseWriter) StatusCodeClass() string {
	class := "XXX"
	switch w.Code() / 100 {
	case 1:
		class = "1XX"
	case 2:
		class = "2XX"
	case 3:
		class = "3XX"
	case 4:
		class = "4XX"
	case 5:
		class = "5XX"
	}
	return class
}

// Flush implements http.Flusher when the underlying writer supports it, so
// streaming handlers keep working behind this wrapper.
func (w *StatusResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

package logger

import (
	"bytes"
	"io"
	log "log/slog"
	"net/http"
	"time"
)

const (
	slowStorageThreshold = 2 * time.Second
	storageErrBodyLimit  = 1000
)

// StorageTransport 记录对象存储的 HTTP 调用，对象内容不落日志，只有失败响应记录响应体
type StorageTransport struct {
	Transport http.RoundTripper
}

func NewStorageTransport(next http.RoundTripper) *StorageTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &StorageTransport{Transport: next}
}

func (t *StorageTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.Transport.RoundTrip(req)
	elapsed := time.Since(start)

	fields := []any{
		log.String("method", req.Method),
		log.String("path", req.URL.Path),
		log.Int64("req_size", req.ContentLength),
		log.Duration("latency", elapsed),
	}
	if err != nil {
		log.ErrorContext(req.Context(), "STORAGE_REQUEST_ERROR", append(fields, log.Any("err", err))...)
		return nil, err
	}
	fields = append(fields, log.Int("status", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest && resp.Body != nil {
		resBody, _ := io.ReadAll(io.LimitReader(resp.Body, storageErrBodyLimit))
		rest := resp.Body
		resp.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(resBody), rest), rest}
		// 404 属于正常探测（如 BucketExists）
		if resp.StatusCode != http.StatusNotFound {
			log.WarnContext(req.Context(), "STORAGE_REQUEST_FAILED", append(fields, log.String("res_body", string(resBody)))...)
		}
		return resp, nil
	}

	if elapsed > slowStorageThreshold {
		log.WarnContext(req.Context(), "STORAGE_REQUEST_SLOW", fields...)
	} else {
		log.DebugContext(req.Context(), "STORAGE_REQUEST", fields...)
	}
	return resp, nil
}

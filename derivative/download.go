package derivative

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// DefaultChunkSize is the maximum bytes fetched per range request.
const DefaultChunkSize int64 = 1 << 24 // 16 MiB

// ErrUnknownLength is returned when the server does not report a
// Content-Length for a derivative, which the chunked protocol requires.
var ErrUnknownLength = errors.New("derivative: server did not report content length")

// DownloadOption configures an OpenDerivative call.
type DownloadOption func(*Download)

// WithChunkSize overrides DefaultChunkSize. n must be positive.
func WithChunkSize(n int64) DownloadOption {
	return func(d *Download) {
		if n > 0 {
			d.chunkSize = n
		}
	}
}

// Download is a forward-only chunk iterator over one derivative's content.
// It never holds more than one chunk in memory. It is not restartable:
// reading the content again requires a new OpenDerivative call. Not safe
// for concurrent use.
type Download struct {
	client    *Client
	path      string
	chunkSize int64
	total     int64
	delivered int64
}

// derivativePath is the manifest sub-resource holding a derivative's bytes.
func (c *Client) derivativePath(urn, derivativeURN string) string {
	return c.path(fmt.Sprintf("/%s/manifest/%s", escapeSegment(urn), escapeSegment(derivativeURN)))
}

// GetDerivative streams a derivative file in a single request. The caller
// must close the returned reader. For large derivatives prefer
// OpenDerivative, which fetches bounded chunks.
func (c *Client) GetDerivative(ctx context.Context, urn, derivativeURN string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, http.MethodGet, c.derivativePath(urn, derivativeURN), scopeRead, requestOpts{})
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

// OpenDerivative learns a derivative's total length with a HEAD request and
// returns a chunk iterator over its content. The iterator re-resolves
// authorization on every chunk, so tokens expiring mid-download are
// refreshed transparently (client-credentials mode only; static tokens are
// never refreshed).
func (c *Client) OpenDerivative(ctx context.Context, urn, derivativeURN string, opts ...DownloadOption) (*Download, error) {
	d := &Download{
		client:    c,
		path:      c.derivativePath(urn, derivativeURN),
		chunkSize: DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	resp, err := c.do(ctx, http.MethodHead, d.path, scopeRead, requestOpts{})
	if err != nil {
		return nil, fmt.Errorf("derivative: sizing download: %w", err)
	}
	resp.Body.Close()

	if resp.ContentLength < 0 {
		return nil, ErrUnknownLength
	}

	d.total = resp.ContentLength

	c.logger.Info("opened derivative download",
		slog.String("urn", urn),
		slog.Int64("total_bytes", d.total),
		slog.Int64("chunk_size", d.chunkSize),
	)

	return d, nil
}

// Size returns the total content length learned from the HEAD request.
func (d *Download) Size() int64 {
	return d.total
}

// Next fetches and returns the next chunk. Chunks are chunkSize bytes
// except the last, which holds the remainder. Returns io.EOF once all
// bytes have been delivered. A failed chunk request aborts the sequence:
// bytes already returned are not re-fetched and the iterator must be
// discarded.
func (d *Download) Next(ctx context.Context) ([]byte, error) {
	if d.delivered >= d.total {
		return nil, io.EOF
	}

	size := d.chunkSize
	if remaining := d.total - d.delivered; remaining < size {
		size = remaining
	}

	start := d.delivered
	end := start + size - 1 // Range header byte positions are inclusive

	resp, err := d.client.do(ctx, http.MethodGet, d.path, scopeRead, requestOpts{
		headers: map[string]string{
			"Range": fmt.Sprintf("bytes=%d-%d", start, end),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("derivative: fetching chunk %d-%d: %w", start, end, err)
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("derivative: reading chunk %d-%d: %w", start, end, err)
	}

	d.delivered += size

	d.client.logger.Debug("fetched chunk",
		slog.Int64("start", start),
		slog.Int64("end", end),
		slog.Int64("delivered", d.delivered),
		slog.Int64("total", d.total),
	)

	return buf, nil
}

// Copy drains the remaining chunks into w and returns the bytes written.
func (d *Download) Copy(ctx context.Context, w io.Writer) (int64, error) {
	var written int64

	for {
		chunk, err := d.Next(ctx)
		if errors.Is(err, io.EOF) {
			return written, nil
		}

		if err != nil {
			return written, err
		}

		n, err := w.Write(chunk)
		written += int64(n)

		if err != nil {
			return written, fmt.Errorf("derivative: writing chunk: %w", err)
		}
	}
}

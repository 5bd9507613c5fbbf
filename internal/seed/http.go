package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/expanders360/vendormatch/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// maxErrorBody caps how much of an error response ends up in a log line.
const maxErrorBody = 512

// StatusError is returned for any unexpected HTTP status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// HTTPClient talks JSON to the service.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// do sends body as JSON (when not nil), expects status want, and decodes the
// response into out (when not nil).
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// forEach runs fn for every index with at most workers in flight. A failing
// item is logged and counted; the others still run. It stops early only when
// ctx ends.
func forEach(ctx context.Context, workers, n int, what string, fn func(ctx context.Context, i int) error) (failed int, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	var (
		done  atomic.Int64
		fails atomic.Int64
	)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := fn(gctx, i); err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				fails.Add(1)
				logger.Get().Warn(gctx, "request failed", logger.String("step", what), logger.Int("item", i), logger.Error(err))
			}
			done.Add(1)
			return nil
		})
	}
	err = g.Wait()

	logger.Get().Info(ctx, "step completed",
		logger.String("step", what),
		logger.Int64("done", done.Load()),
		logger.Int64("failed", fails.Load()),
	)
	if err == nil {
		err = ctx.Err()
	}
	return int(fails.Load()), err
}

// Package source fetches raw trace documents from files, stdin or a trace
// server.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sire/internal/trace"
)

// Stdin names standard input as a source.
const Stdin = "-"

// maxBody caps the size of a remote trace document.
const maxBody = 512 << 20

// ErrNotFound reports a source that does not exist (missing file, HTTP 404).
var ErrNotFound = errors.New("trace source not found")

// Options controls loading.
type Options struct {
	Timeout time.Duration // per attempt, 0 = none
	Retries int           // extra attempts for transient HTTP failures
	Backoff time.Duration // delay before the first retry, doubled per retry
	Client  *http.Client
	Stdin   io.Reader
}

// Loaded is one fetched document.
type Loaded struct {
	Source string
	Data   []byte
	HadBOM bool
}

// IsRemote reports whether src is an http(s) URL.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Load fetches src.
func Load(ctx context.Context, src string, opts Options) (Loaded, error) {
	ctx, span := trace.Start(ctx, trace.ScopeCall, "load:"+src)
	var (
		data []byte
		err  error
	)
	switch {
	case src == Stdin:
		in := opts.Stdin
		if in == nil {
			in = os.Stdin
		}
		data, err = io.ReadAll(in)
	case IsRemote(src):
		data, err = fetch(ctx, src, opts)
	default:
		data, err = os.ReadFile(src)
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrNotFound, src)
		}
	}
	if err != nil {
		span.Fail(err)
		return Loaded{}, fmt.Errorf("load %s: %w", src, err)
	}
	data, hadBOM := stripBOM(data)
	span.WithExtra("bytes", strconv.Itoa(len(data))).End("")
	return Loaded{Source: src, Data: data, HadBOM: hadBOM}, nil
}

// LoadAll fetches every source with at most jobs loads in flight and returns
// the documents in input order. jobs <= 0 uses GOMAXPROCS.
func LoadAll(ctx context.Context, sources []string, jobs int, opts Options) ([]Loaded, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	out := make([]Loaded, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, src := range sources {
		g.Go(func() error {
			l, err := Load(gctx, src, opts)
			if err != nil {
				return err
			}
			out[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// StatusError is returned for a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Temporary reports whether retrying may help.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

func fetch(ctx context.Context, url string, opts Options) ([]byte, error) {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if attempt > 0 {
			trace.Point(trace.FromContext(ctx), trace.ScopeCall, "retry", fmt.Sprintf("attempt %d: %v", attempt+1, lastErr), trace.CurrentSpan(ctx))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		data, err := fetchOnce(ctx, client, url, opts.Timeout)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", opts.Retries+1, lastErr)
}

func fetchOnce(ctx context.Context, client *http.Client, url string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxBody {
		return nil, fmt.Errorf("GET %s: body exceeds %d bytes", url, maxBody)
	}
	return data, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	// transport failures and per-attempt timeouts
	return true
}

package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthCheck issues a GET against params["url"] and passes when the status
// matches params["expectStatus"] (default 200).
type HealthCheck struct {
	client *http.Client
}

func NewHealthCheck(client *http.Client) *HealthCheck {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HealthCheck{client: client}
}

func (h *HealthCheck) Run(ctx context.Context, params map[string]string) (*Result, error) {
	url, err := requireParam(params, "url")
	if err != nil {
		return nil, err
	}
	expect, err := intParam(params, "expectStatus", http.StatusOK)
	if err != nil {
		return nil, err
	}

	status, _, err := get(ctx, h.client, url)
	if err != nil {
		return failed("GET %s: %v", url, err), nil
	}
	if status != expect {
		return failed("GET %s returned %d, expected %d", url, status, expect), nil
	}
	return &Result{Passed: true, Output: fmt.Sprintf("GET %s returned %d", url, status)}, nil
}

// PerformanceTest sends params["requests"] GETs (default 20) to params["url"]
// with params["concurrency"] workers (default 4) and passes when every
// request succeeds and the p95 latency is within params["maxLatencyMs"]
// (default 500).
type PerformanceTest struct {
	client *http.Client
}

func NewPerformanceTest(client *http.Client) *PerformanceTest {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &PerformanceTest{client: client}
}

func (p *PerformanceTest) Run(ctx context.Context, params map[string]string) (*Result, error) {
	url, err := requireParam(params, "url")
	if err != nil {
		return nil, err
	}
	requests, err := intParam(params, "requests", 20)
	if err != nil {
		return nil, err
	}
	concurrency, err := intParam(params, "concurrency", 4)
	if err != nil {
		return nil, err
	}
	maxLatencyMs, err := intParam(params, "maxLatencyMs", 500)
	if err != nil {
		return nil, err
	}
	if requests < 1 {
		return nil, fmt.Errorf("parameter \"requests\" must be at least 1")
	}

	var (
		mu        sync.Mutex
		latencies = make([]time.Duration, 0, requests)
		errs      []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i := 0; i < requests; i++ {
		g.Go(func() error {
			start := time.Now()
			status, _, err := get(gctx, p.client, url)
			elapsed := time.Since(start)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				errs = append(errs, err.Error())
			case status >= 400:
				errs = append(errs, fmt.Sprintf("status %d", status))
			default:
				latencies = append(latencies, elapsed)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return &Result{
			Passed: false,
			Output: fmt.Sprintf("%d of %d requests to %s failed", len(errs), requests, url),
			Errors: errs,
		}, nil
	}

	p95 := percentile(latencies, 0.95)
	limit := time.Duration(maxLatencyMs) * time.Millisecond
	out := fmt.Sprintf("%d requests to %s, p95 %s (limit %s)", requests, url, p95.Round(time.Millisecond), limit)
	if p95 > limit {
		return &Result{Passed: false, Output: out, Errors: []string{"p95 latency above limit"}}, nil
	}
	return &Result{Passed: true, Output: out}, nil
}

func percentile(samples []time.Duration, q float64) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(float64(len(sorted))*q+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func get(ctx context.Context, client *http.Client, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, body, err
}

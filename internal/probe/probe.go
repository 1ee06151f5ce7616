// Package probe runs the non-suite check types: health checks, performance
// tests, security scans and custom scripts.
package probe

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/edvin/rollout/internal/clients"
	"github.com/edvin/rollout/internal/model"
)

// Result is the outcome of a probe run.
type Result struct {
	Passed bool     `json:"passed"`
	Output string   `json:"output,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// Probe runs one check. A returned error means the check could not be
// carried out; the caller treats it as a failure.
type Probe interface {
	Run(ctx context.Context, params map[string]string) (*Result, error)
}

// Func adapts a function to Probe.
type Func func(ctx context.Context, params map[string]string) (*Result, error)

func (f Func) Run(ctx context.Context, params map[string]string) (*Result, error) {
	return f(ctx, params)
}

// Registry maps check types to probes.
type Registry struct {
	mu     sync.RWMutex
	probes map[string]Probe
}

func NewRegistry() *Registry {
	return &Registry{probes: make(map[string]Probe)}
}

// JobRunner starts and polls jobs on the check execution service.
type JobRunner interface {
	StartJob(ctx context.Context, jobType string, params map[string]string) (string, error)
	GetJobStatus(ctx context.Context, jobID string) (*clients.JobStatus, error)
}

// NewDefaultRegistry returns a registry with the built-in probes.
func NewDefaultRegistry(jobs JobRunner) *Registry {
	r := NewRegistry()
	r.Register(model.CheckTypeHealthCheck, NewHealthCheck(nil))
	r.Register(model.CheckTypePerformanceTest, NewPerformanceTest(nil))
	r.Register(model.CheckTypeSecurityScan, NewSecurityScan(jobs, 5*time.Second))
	r.Register(model.CheckTypeCustomScript, CustomScript{})
	return r
}

func (r *Registry) Register(checkType string, p Probe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probes[checkType] = p
}

func (r *Registry) Get(checkType string) (Probe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.probes[checkType]
	if !ok {
		return nil, fmt.Errorf("no probe registered for check type %q", checkType)
	}
	return p, nil
}

// Types returns the sorted registered check types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.probes))
	for t := range r.probes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func requireParam(params map[string]string, key string) (string, error) {
	v := params[key]
	if v == "" {
		return "", fmt.Errorf("missing parameter %q", key)
	}
	return v, nil
}

func intParam(params map[string]string, key string, fallback int) (int, error) {
	v, ok := params[key]
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parameter %q: %w", key, err)
	}
	return n, nil
}

func failed(format string, args ...any) *Result {
	msg := fmt.Sprintf(format, args...)
	return &Result{Passed: false, Output: msg, Errors: []string{msg}}
}

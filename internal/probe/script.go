package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"
)

const maxScriptOutput = 4096

// CustomScript runs params["command"] with sh -c and passes on exit status 0.
type CustomScript struct{}

func (CustomScript) Run(ctx context.Context, params map[string]string) (*Result, error) {
	command, err := requireParam(params, "command")
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdout = &out
	cmd.Stderr = &out
	runErr := cmd.Run()

	output := tail(strings.TrimSpace(out.String()), maxScriptOutput)

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		return &Result{Passed: true, Output: output}, nil
	case errors.As(runErr, &exitErr):
		return &Result{
			Passed: false,
			Output: output,
			Errors: []string{fmt.Sprintf("exit status %d", exitErr.ExitCode())},
		}, nil
	default:
		return nil, fmt.Errorf("run script: %w", runErr)
	}
}

// tail returns at most the last n bytes of s, starting on a rune boundary.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	start := len(s) - n
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return s[start:]
}

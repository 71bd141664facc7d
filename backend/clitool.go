// File: backend/clitool.go
package backend

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CLIToolBackend generates descriptors by shelling out to an interactive
// coding tool (anything that reads a prompt on stdin and prints JSON on
// stdout). It sits at the top of the priority order because an operator who
// configured one clearly wants it used.
type CLIToolBackend struct {
	Command []string // argv; empty disables the backend
}

// NewCLIToolBackend creates a CLI-tool backend.
func NewCLIToolBackend(command []string) *CLIToolBackend {
	return &CLIToolBackend{Command: command}
}

func (b *CLIToolBackend) Name() string { return "cli-tool" }

func (b *CLIToolBackend) Available() bool {
	if len(b.Command) == 0 {
		return false
	}
	_, err := exec.LookPath(b.Command[0])
	return err == nil
}

func (b *CLIToolBackend) Transform(ctx context.Context, req Request) (string, error) {
	if len(b.Command) == 0 {
		return "", fmt.Errorf("cli tool not configured")
	}

	cmd := exec.CommandContext(ctx, b.Command[0], b.Command[1:]...)
	cmd.Stdin = strings.NewReader(BuildPrompt(req))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("cli tool failed: %s", msg)
	}
	return stdout.String(), nil
}

package actuator

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/benvon/thermod/pkg/retry"
)

// Script drives a relay by invoking an external program with "on" or
// "off" as its sole argument, a narrow-contract stand-in for GPIO/1-Wire/
// analog hardware drivers. Each invocation goes through retry.Do, which
// retries only errors that retry.IsRetriable accepts; a plain non-zero exit
// status is not one of them, so it is reported after the first attempt.
type Script struct {
	path  string
	retry retry.Config

	mu sync.Mutex
	on bool
}

// NewScript returns a Script actuator invoking path with "on"/"off".
func NewScript(path string, retryConfig retry.Config) *Script {
	return &Script{path: path, retry: retryConfig}
}

func (s *Script) run(ctx context.Context, arg string) error {
	return retry.Do(ctx, s.retry, func() error {
		cmd := exec.CommandContext(ctx, s.path, arg)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("actuator script %s %s failed: %w (output: %s)", s.path, arg, err, out)
		}
		return nil
	})
}

// SwitchOn implements Actuator.
func (s *Script) SwitchOn() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.on {
		return nil
	}
	if err := s.run(context.Background(), "on"); err != nil {
		return err
	}
	s.on = true
	return nil
}

// SwitchOff implements Actuator.
func (s *Script) SwitchOff() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.on {
		return nil
	}
	if err := s.run(context.Background(), "off"); err != nil {
		return err
	}
	s.on = false
	return nil
}

// IsOn implements Actuator.
func (s *Script) IsOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.on
}

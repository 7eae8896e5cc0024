package thermometer

import (
	"context"
	"sync"
)

// Memory is an in-memory Thermometer double for tests and for the
// ambient, hardware-free stand-in cmd/thermod wires when no driver is
// configured.
type Memory struct {
	mu   sync.Mutex
	temp float64
	err  error
}

// NewMemory returns a Memory reporting initial until Set or SetError is
// called.
func NewMemory(initial float64) *Memory {
	return &Memory{temp: initial}
}

// Set installs the temperature the next Read calls will return, clearing
// any pending error.
func (m *Memory) Set(temp float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.temp = temp
	m.err = nil
}

// SetError makes the next Read calls fail with err until Set is called again.
func (m *Memory) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Read implements Thermometer.
func (m *Memory) Read(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return m.temp, nil
}

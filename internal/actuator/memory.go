package actuator

import "sync"

// Memory is an in-memory Actuator double used in tests and as the
// ambient, hardware-free stand-in cmd/thermod wires when no relay driver
// is configured.
type Memory struct {
	mu  sync.Mutex
	on  bool
	err error
}

// NewMemory returns a Memory actuator, initially off.
func NewMemory() *Memory {
	return &Memory{}
}

// SetError makes every subsequent SwitchOn/SwitchOff call fail with err.
func (m *Memory) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SwitchOn implements Actuator.
func (m *Memory) SwitchOn() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.on = true
	return nil
}

// SwitchOff implements Actuator.
func (m *Memory) SwitchOff() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.on = false
	return nil
}

// IsOn implements Actuator.
func (m *Memory) IsOn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.on
}

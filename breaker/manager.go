package breaker

import (
	"log/slog"
	"sync"

	"github.com/Jacobolevy/smartling-mcp-server-sub002/metric"
)

// StateChangeListener is notified when any managed breaker changes state.
type StateChangeListener interface {
	OnStateChange(name string, from, to State)
}

// StateChangeListenerFunc adapts a function to the listener interface.
type StateChangeListenerFunc func(name string, from, to State)

// OnStateChange implements StateChangeListener
func (f StateChangeListenerFunc) OnStateChange(name string, from, to State) {
	f(name, from, to)
}

// Manager is a name-keyed registry of circuit breakers. It is the only
// registry in the toolkit and is itself constructed by the caller; the
// library keeps no process-wide state.
type Manager struct {
	mu        sync.RWMutex
	breakers  map[string]*Breaker
	listeners []StateChangeListener
	logger    *slog.Logger
	registry  *metric.Registry
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the structured logger. Nil means slog.Default().
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithManagerMetrics enables Prometheus metrics for breakers the manager
// creates.
func WithManagerMetrics(registry *metric.Registry) ManagerOption {
	return func(m *Manager) {
		m.registry = registry
	}
}

// NewManager creates a breaker manager.
func NewManager(options ...ManagerOption) *Manager {
	m := &Manager{
		breakers: make(map[string]*Breaker),
	}
	for _, option := range options {
		option(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// GetOrCreate returns the breaker registered under name, creating it
// with config on first use. The config of an existing breaker is not
// changed.
func (m *Manager) GetOrCreate(name string, config Config) (*Breaker, error) {
	m.mu.RLock()
	b, exists := m.breakers[name]
	m.mu.RUnlock()
	if exists {
		return b, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if b, exists = m.breakers[name]; exists {
		return b, nil
	}

	options := []Option{
		WithLogger(m.logger),
		WithStateChangeCallback(m.handleStateChange),
	}
	if m.registry != nil {
		options = append(options, WithMetrics(m.registry))
	}

	b, err := New(name, config, options...)
	if err != nil {
		return nil, err
	}

	m.breakers[name] = b
	m.logger.Info("created circuit breaker", "breaker", name)

	return b, nil
}

// Get returns the breaker registered under name, if any.
func (m *Manager) Get(name string) (*Breaker, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.breakers[name]
	return b, ok
}

// Names returns the names of all registered breakers.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.breakers))
	for name := range m.breakers {
		names = append(names, name)
	}
	return names
}

// Statuses returns a snapshot of every registered breaker.
func (m *Manager) Statuses() map[string]Status {
	m.mu.RLock()
	breakers := make([]*Breaker, 0, len(m.breakers))
	for _, b := range m.breakers {
		breakers = append(breakers, b)
	}
	m.mu.RUnlock()

	// Snapshot outside the manager lock; Status takes each breaker's own
	statuses := make(map[string]Status, len(breakers))
	for _, b := range breakers {
		statuses[b.Name()] = b.Status()
	}
	return statuses
}

// RegisterStateChangeListener adds a listener notified on every state
// transition of every managed breaker.
func (m *Manager) RegisterStateChangeListener(listener StateChangeListener) {
	if listener == nil {
		m.logger.Warn("ignoring nil state change listener")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}

// handleStateChange logs the transition and fans it out to listeners in
// goroutines so a slow listener cannot block the breaker.
func (m *Manager) handleStateChange(name string, from, to State) {
	switch to {
	case StateOpen:
		m.logger.Error("circuit breaker opened, requests will fast-fail",
			"breaker", name, "from", from.String())
	case StateHalfOpen:
		m.logger.Info("circuit breaker half-open, probing recovery", "breaker", name)
	case StateClosed:
		m.logger.Info("circuit breaker closed, dependency healthy", "breaker", name)
	}

	m.mu.RLock()
	listeners := make([]StateChangeListener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.RUnlock()

	for _, listener := range listeners {
		go func(l StateChangeListener) {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("state change listener panicked",
						"breaker", name, "panic", r)
				}
			}()
			l.OnStateChange(name, from, to)
		}(listener)
	}
}

package control

import "sync"

// Blackboard is the shared key/value store that sensors write into and
// behavior-tree nodes read from.
type Blackboard struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewBlackboard creates an empty blackboard.
func NewBlackboard() *Blackboard {
	return &Blackboard{data: make(map[string]any)}
}

// Set stores a value.
func (bb *Blackboard) Set(key string, value any) {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	bb.data[key] = value
}

// Get retrieves a value.
func (bb *Blackboard) Get(key string) (any, bool) {
	bb.mu.RLock()
	defer bb.mu.RUnlock()
	v, ok := bb.data[key]
	return v, ok
}

// GetBool retrieves a boolean value, false when absent or mistyped.
func (bb *Blackboard) GetBool(key string) bool {
	v, ok := bb.Get(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// GetFloat retrieves a numeric value as float64.
func (bb *Blackboard) GetFloat(key string) (float64, bool) {
	v, ok := bb.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}

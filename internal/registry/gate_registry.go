package registry

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ground_ops/internal/metrics"
	"ground_ops/internal/models"
	"ground_ops/internal/notify"
)

// GateRegistry is the fixed table of physical gates, numbered from 0
type GateRegistry struct {
	mu       sync.RWMutex
	gates    []*gateRecord
	notifier *notify.Notifier[models.Change]
	metrics  *metrics.Metrics // may be nil
}

// NewGateRegistry creates count gates, all FREE
func NewGateRegistry(count int, m *metrics.Metrics) (*GateRegistry, error) {
	if count <= 0 {
		return nil, fmt.Errorf("gate count must be greater than 0, got %d", count)
	}

	gates := make([]*gateRecord, count)
	for i := range gates {
		gates[i] = newGateRecord()
	}

	return &GateRegistry{
		gates:    gates,
		notifier: notify.New[models.Change](),
		metrics:  m,
	}, nil
}

// Len returns the number of gates
func (r *GateRegistry) Len() int {
	return len(r.gates)
}

// Subscribe registers fn to be called after every accepted mutation
func (r *GateRegistry) Subscribe(fn func(models.Change)) *notify.Subscription[models.Change] {
	return r.notifier.Subscribe(fn)
}

// Allocate reserves a FREE gate for the aircraft in slot. A negative slot
// is not an aircraft reference and leaves the gate alone.
func (r *GateRegistry) Allocate(gate int, slot models.SlotID) (Outcome, error) {
	return r.apply(gate, models.ChangeGateReserve, func(g *gateRecord) bool {
		return g.allocate(slot)
	})
}

// Dock marks a RESERVED gate as OCCUPIED once its aircraft has arrived
func (r *GateRegistry) Dock(gate int) (Outcome, error) {
	return r.apply(gate, models.ChangeGateDock, (*gateRecord).dock)
}

// Depart frees an OCCUPIED gate and clears its aircraft
func (r *GateRegistry) Depart(gate int) (Outcome, error) {
	return r.apply(gate, models.ChangeGateDepart, (*gateRecord).depart)
}

// StatusOf returns the state of one gate
func (r *GateRegistry) StatusOf(gate int) (models.GateState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, err := r.gateLocked(gate)
	if err != nil {
		return models.GateFree, err
	}
	return g.state, nil
}

// AllStatuses returns the state of every gate ordered by gate number
func (r *GateRegistry) AllStatuses() []models.GateState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	states := make([]models.GateState, len(r.gates))
	for i, g := range r.gates {
		states[i] = g.state
	}
	return states
}

// Query returns a snapshot of one gate
func (r *GateRegistry) Query(gate int) (models.GateSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, err := r.gateLocked(gate)
	if err != nil {
		return models.GateSnapshot{}, err
	}
	return g.snapshot(gate), nil
}

// Snapshots returns a snapshot of every gate ordered by gate number
func (r *GateRegistry) Snapshots() []models.GateSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snaps := make([]models.GateSnapshot, len(r.gates))
	for i, g := range r.gates {
		snaps[i] = g.snapshot(i)
	}
	return snaps
}

// GateFor returns the gate reserved or occupied by the aircraft in slot
func (r *GateRegistry) GateFor(slot models.SlotID) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, g := range r.gates {
		if g.state != models.GateFree && g.slot == slot {
			return i, true
		}
	}
	return models.NoGate, false
}

func (r *GateRegistry) apply(gate int, kind models.ChangeKind, mutate func(*gateRecord) bool) (Outcome, error) {
	r.mu.Lock()

	g, err := r.gateLocked(gate)
	if err != nil {
		r.mu.Unlock()
		return Rejected, err
	}

	from, prevSlot := g.state, g.slot
	if !mutate(g) {
		r.mu.Unlock()
		r.metrics.ObserveRejected(string(models.RegistryGate), string(kind))
		slog.Debug("Ignored gate operation", "gate", gate, "operation", string(kind), "state", from.String())
		return Rejected, nil
	}

	// Depart clears the slot, so report the one that was there
	slot := g.slot
	if slot == models.NoSlot {
		slot = prevSlot
	}
	c := models.Change{
		Registry: models.RegistryGate,
		ID:       gate,
		Kind:     kind,
		From:     from.String(),
		To:       g.state.String(),
		At:       time.Now(),
	}
	if slot != models.NoSlot {
		c.Detail = fmt.Sprintf("slot %d", int(slot))
	}
	r.notifier.Post(c)

	r.metrics.ObserveApplied(string(c.Registry), string(c.Kind))
	r.metrics.SetOccupiedGates(countWhere(r.gates, func(g *gateRecord) bool {
		return g.state != models.GateFree
	}))
	slog.Debug("Applied gate operation", "change", c)
	r.mu.Unlock()

	start := time.Now()
	r.notifier.Flush()
	r.metrics.ObserveBroadcast(start)
	return Applied, nil
}

func (r *GateRegistry) gateLocked(gate int) (*gateRecord, error) {
	if gate < 0 || gate >= len(r.gates) {
		return nil, fmt.Errorf("%w: %d (gates 0-%d)", ErrInvalidGate, gate, len(r.gates)-1)
	}
	return r.gates[gate], nil
}

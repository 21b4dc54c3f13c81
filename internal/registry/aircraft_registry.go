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

// AircraftRegistry is the fixed-capacity table of aircraft slots shared by
// every screen. All mutations go through it so the state machine cannot be
// bypassed; each accepted mutation is broadcast to subscribers exactly once.
// A call accepted while another goroutine is delivering returns once its change
// is queued; that goroutine delivers it next.
type AircraftRegistry struct {
	mu           sync.RWMutex
	localAirport string
	records      []*aircraftRecord
	notifier     *notify.Notifier[models.Change]
	metrics      *metrics.Metrics // may be nil
}

// NewAircraftRegistry creates a registry with capacity FREE slots.
// Aircraft whose destination equals localAirport are treated as arrivals.
func NewAircraftRegistry(capacity int, localAirport string, m *metrics.Metrics) (*AircraftRegistry, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("aircraft capacity must be greater than 0, got %d", capacity)
	}

	records := make([]*aircraftRecord, capacity)
	for i := range records {
		records[i] = newAircraftRecord()
	}

	return &AircraftRegistry{
		localAirport: localAirport,
		records:      records,
		notifier:     notify.New[models.Change](),
		metrics:      m,
	}, nil
}

// Capacity returns the number of slots
func (r *AircraftRegistry) Capacity() int {
	return len(r.records)
}

// LocalAirport returns the name of the airport this registry serves
func (r *AircraftRegistry) LocalAirport() string {
	return r.localAirport
}

// Subscribe registers fn to be called after every accepted mutation
func (r *AircraftRegistry) Subscribe(fn func(models.Change)) *notify.Subscription[models.Change] {
	return r.notifier.Subscribe(fn)
}

// Allocate places a newly detected aircraft in the lowest-numbered FREE slot
// and returns its slot id. It fails with ErrRegistryFull when every slot is
// in use, leaving all slots untouched.
func (r *AircraftRegistry) Allocate(d models.FlightDescriptor) (models.SlotID, error) {
	r.mu.Lock()
	for i, rec := range r.records {
		if !rec.detect(d, r.localAirport) {
			continue
		}

		id := models.SlotID(i)
		r.commitLocked(models.Change{
			ID:         i,
			Kind:       models.ChangeDetected,
			From:       models.StateFree.String(),
			To:         rec.state.String(),
			FlightCode: rec.flightCode,
		})
		r.mu.Unlock()
		r.flush()
		return id, nil
	}
	r.mu.Unlock()

	r.metrics.IncrementRegistryFull()
	return models.NoSlot, fmt.Errorf("%w: all %d slots in use", ErrRegistryFull, len(r.records))
}

// ReleaseOnLostContact returns an aircraft that has left radar coverage to
// FREE. Only IN_TRANSIT and DEPARTING_THROUGH_LOCAL_AIRSPACE allow it.
func (r *AircraftRegistry) ReleaseOnLostContact(id models.SlotID) (Outcome, error) {
	return r.apply(id, models.ChangeLostContact, func(rec *aircraftRecord) (string, bool) {
		return "", rec.lostContact()
	})
}

// RequestTransition moves an aircraft along a payload-free edge of the state
// machine, such as LANDING to LANDED
func (r *AircraftRegistry) RequestTransition(id models.SlotID, target models.AircraftState) (Outcome, error) {
	return r.apply(id, models.ChangeTransition, func(rec *aircraftRecord) (string, bool) {
		return "", rec.transition(target, r.localAirport)
	})
}

// TaxiToGate sends a LANDED aircraft to the given gate
func (r *AircraftRegistry) TaxiToGate(id models.SlotID, gate int) (Outcome, error) {
	if gate < 0 {
		// An unknown slot is reported ahead of a bad gate
		if _, err := r.Query(id); err != nil {
			return Rejected, err
		}
		return Rejected, fmt.Errorf("%w: %d", ErrInvalidGate, gate)
	}
	return r.apply(id, models.ChangeTaxi, func(rec *aircraftRecord) (string, bool) {
		return fmt.Sprintf("gate %d", gate), rec.taxiTo(gate)
	})
}

// ReportFault records a maintenance fault. From READY_FOR_CLEAN_MAINT the
// aircraft still needs cleaning; from CLEAN_AWAIT_MAINT it goes to repair.
func (r *AircraftRegistry) ReportFault(id models.SlotID, description string) (Outcome, error) {
	return r.apply(id, models.ChangeFault, func(rec *aircraftRecord) (string, bool) {
		return description, rec.reportFault(description)
	})
}

// BoardPassenger adds a passenger to an aircraft that is READY_PASSENGERS
func (r *AircraftRegistry) BoardPassenger(id models.SlotID, p models.Passenger) (Outcome, error) {
	return r.apply(id, models.ChangeBoarded, func(rec *aircraftRecord) (string, bool) {
		return p.Name, rec.board(p)
	})
}

// Query returns a snapshot of one slot
func (r *AircraftRegistry) Query(id models.SlotID) (models.AircraftSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.recordLocked(id)
	if err != nil {
		return models.AircraftSnapshot{}, err
	}
	return rec.snapshot(id), nil
}

// QueryAll returns the ids of every slot currently in state, in slot order
func (r *AircraftRegistry) QueryAll(state models.AircraftState) []models.SlotID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []models.SlotID
	for i, rec := range r.records {
		if rec.state == state {
			ids = append(ids, models.SlotID(i))
		}
	}
	return ids
}

// Snapshots returns a snapshot of every slot, FREE ones included
func (r *AircraftRegistry) Snapshots() []models.AircraftSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snaps := make([]models.AircraftSnapshot, len(r.records))
	for i, rec := range r.records {
		snaps[i] = rec.snapshot(models.SlotID(i))
	}
	return snaps
}

// apply runs mutate against one slot under the lock and broadcasts if it
// reports a change. mutate returns a detail string for the change event.
func (r *AircraftRegistry) apply(id models.SlotID, kind models.ChangeKind, mutate func(*aircraftRecord) (string, bool)) (Outcome, error) {
	r.mu.Lock()

	rec, err := r.recordLocked(id)
	if err != nil {
		r.mu.Unlock()
		return Rejected, err
	}

	from := rec.state
	flightCode := rec.flightCode
	detail, ok := mutate(rec)
	if !ok {
		r.mu.Unlock()
		r.metrics.ObserveRejected(string(models.RegistryAircraft), string(kind))
		slog.Debug("Ignored aircraft operation",
			"slot", int(id),
			"operation", string(kind),
			"state", from.String(),
		)
		return Rejected, nil
	}

	r.commitLocked(models.Change{
		ID:         int(id),
		Kind:       kind,
		From:       from.String(),
		To:         rec.state.String(),
		FlightCode: flightCode,
		Detail:     detail,
	})
	r.mu.Unlock()
	r.flush()
	return Applied, nil
}

// commitLocked queues the change for broadcast. Must be called with mu held
// and after the record has been mutated.
func (r *AircraftRegistry) commitLocked(c models.Change) {
	c.Registry = models.RegistryAircraft
	c.At = time.Now()
	r.notifier.Post(c)

	r.metrics.ObserveApplied(string(c.Registry), string(c.Kind))
	r.metrics.SetOccupiedSlots(countWhere(r.records, func(rec *aircraftRecord) bool {
		return rec.state != models.StateFree
	}))
	slog.Debug("Applied aircraft operation", "change", c)
}

func (r *AircraftRegistry) flush() {
	start := time.Now()
	r.notifier.Flush()
	r.metrics.ObserveBroadcast(start)
}

func (r *AircraftRegistry) recordLocked(id models.SlotID) (*aircraftRecord, error) {
	if id < 0 || int(id) >= len(r.records) {
		return nil, fmt.Errorf("%w: %d (capacity %d)", ErrInvalidSlot, int(id), len(r.records))
	}
	return r.records[id], nil
}

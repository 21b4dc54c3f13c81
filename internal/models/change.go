package models

import (
	"log/slog"
	"time"
)

// RegistryKind names the registry a change originated from
type RegistryKind string

const (
	RegistryAircraft RegistryKind = "aircraft"
	RegistryGate     RegistryKind = "gate"
)

// ChangeKind names the accepted operation that produced a change
type ChangeKind string

const (
	ChangeDetected    ChangeKind = "detected"
	ChangeLostContact ChangeKind = "lost_contact"
	ChangeTransition  ChangeKind = "transition"
	ChangeTaxi        ChangeKind = "taxi"
	ChangeFault       ChangeKind = "fault"
	ChangeBoarded     ChangeKind = "boarded"
	ChangeGateReserve ChangeKind = "gate_reserve"
	ChangeGateDock    ChangeKind = "gate_dock"
	ChangeGateDepart  ChangeKind = "gate_depart"
)

// Change describes one accepted registry mutation. Observers that only care
// that something changed can ignore the fields and re-query the registry.
type Change struct {
	Registry   RegistryKind `msgpack:"registry"`
	ID         int          `msgpack:"id"` // slot id or gate number
	Kind       ChangeKind   `msgpack:"kind"`
	From       string       `msgpack:"from"`
	To         string       `msgpack:"to"`
	FlightCode string       `msgpack:"flight_code,omitempty"`
	Detail     string       `msgpack:"detail,omitempty"` // gate number, fault text or passenger name
	At         time.Time    `msgpack:"at"`
}

func (c Change) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("registry", string(c.Registry)),
		slog.Int("id", c.ID),
		slog.String("kind", string(c.Kind)),
		slog.String("from", c.From),
		slog.String("to", c.To),
	}
	if c.FlightCode != "" {
		attrs = append(attrs, slog.String("flight_code", c.FlightCode))
	}
	if c.Detail != "" {
		attrs = append(attrs, slog.String("detail", c.Detail))
	}
	return slog.GroupValue(attrs...)
}

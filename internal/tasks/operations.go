package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"ground_ops/internal/models"
	"ground_ops/internal/registry"
)

var (
	faultDescriptions = []string{
		"hydraulic leak",
		"bird strike on left engine",
		"cabin pressure sensor",
		"tyre wear beyond limits",
		"APU will not start",
	}
	boardingNames = []string{
		"Anika Rao", "Ben Carter", "Ciara Doyle", "Dmitri Volkov", "Ella Martin",
		"Felipe Ortiz", "Hana Sato", "Ira Cohen", "Jonah Tui", "Kate Morgan",
	}
)

// OperationsDriver is a scheduled task that stands in for the ground crew
// screens. Each run it moves every occupied slot one step through its
// lifecycle using only the public registry operations.
type OperationsDriver struct {
	aircraft         *registry.AircraftRegistry
	gates            *registry.GateRegistry
	interval         time.Duration
	lostContactTicks int
	faultRate        float64
	rng              *rand.Rand

	// ticks each departing or transiting slot has been seen
	airborne map[models.SlotID]int
}

// NewOperationsDriver creates a driver. A nil rng uses a randomly seeded source.
func NewOperationsDriver(aircraft *registry.AircraftRegistry, gates *registry.GateRegistry, interval time.Duration, lostContactTicks int, faultRate float64, rng *rand.Rand) *OperationsDriver {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &OperationsDriver{
		aircraft:         aircraft,
		gates:            gates,
		interval:         interval,
		lostContactTicks: lostContactTicks,
		faultRate:        faultRate,
		rng:              rng,
		airborne:         make(map[models.SlotID]int),
	}
}

func (o *OperationsDriver) Name() string {
	return "operations"
}

func (o *OperationsDriver) Interval() time.Duration {
	return o.interval
}

// Run advances every occupied slot by one step
func (o *OperationsDriver) Run(ctx context.Context) error {
	var errs []error
	seen := make(map[models.SlotID]bool)

	for _, snap := range o.aircraft.Snapshots() {
		if ctx.Err() != nil {
			break
		}
		if snap.State == models.StateFree {
			continue
		}
		seen[snap.SlotID] = true
		if err := o.step(snap); err != nil {
			errs = append(errs, fmt.Errorf("slot %d (%s): %w", snap.SlotID, snap.State, err))
		}
	}

	for id := range o.airborne {
		if !seen[id] {
			delete(o.airborne, id)
		}
	}

	return errors.Join(errs...)
}

func (o *OperationsDriver) step(snap models.AircraftSnapshot) error {
	id := snap.SlotID

	switch snap.State {
	case models.StateInTransit, models.StateDepartingThroughLocalAirspace:
		o.airborne[id]++
		if o.airborne[id] <= o.lostContactTicks {
			return nil
		}
		delete(o.airborne, id)
		return o.check(o.aircraft.ReleaseOnLostContact(id))

	case models.StateLanded:
		return o.taxiToFreeGate(snap)

	case models.StateTaxiing:
		gate, ok := o.gates.GateFor(id)
		if !ok {
			return fmt.Errorf("no gate reserved for %s", snap.FlightCode)
		}
		if err := o.check(o.gates.Dock(gate)); err != nil {
			return err
		}
		return o.advance(id, models.StateUnloading)

	case models.StateReadyForCleanMaint:
		if o.faulty() {
			return o.check(o.aircraft.ReportFault(id, o.pick(faultDescriptions)))
		}
		// Aircraft either passes inspection straight away or goes to maintenance
		if o.rng.IntN(2) == 0 {
			return o.advance(id, models.StateOKAwaitClean)
		}
		return o.advance(id, models.StateCleanAwaitMaint)

	case models.StateCleanAwaitMaint:
		if o.faulty() {
			return o.check(o.aircraft.ReportFault(id, o.pick(faultDescriptions)))
		}
		return o.advance(id, models.StateReadyRefuel)

	case models.StateReadyPassengers:
		for range 1 + o.rng.IntN(4) {
			if err := o.check(o.aircraft.BoardPassenger(id, models.Passenger{Name: o.pick(boardingNames)})); err != nil {
				return err
			}
		}
		return o.advance(id, models.StateReadyDepart)

	case models.StateReadyDepart:
		// The aircraft drops its gate number on pushback, the gate registry still knows it
		gate, ok := o.gates.GateFor(id)
		if err := o.advance(id, models.StateAwaitingTaxi); err != nil {
			return err
		}
		if ok {
			return o.check(o.gates.Depart(gate))
		}
		return nil

	default:
		next := registry.NextStates(snap.State)
		if len(next) == 0 {
			return nil
		}
		return o.advance(id, next[0])
	}
}

// taxiToFreeGate reserves the first free gate and sends the aircraft to it.
// With every gate in use the aircraft waits on the apron.
func (o *OperationsDriver) taxiToFreeGate(snap models.AircraftSnapshot) error {
	gate := -1
	for n, state := range o.gates.AllStatuses() {
		if state == models.GateFree {
			gate = n
			break
		}
	}
	if gate < 0 {
		slog.Debug("No free gate, aircraft holding", "slot", snap.SlotID, "flight_code", snap.FlightCode)
		return nil
	}

	outcome, err := o.gates.Allocate(gate, snap.SlotID)
	if err != nil || outcome == registry.Rejected {
		return err
	}

	outcome, err = o.aircraft.TaxiToGate(snap.SlotID, gate)
	if err != nil {
		return err
	}
	if outcome == registry.Rejected {
		// Someone else moved the aircraft; hand the gate back
		slog.Warn("Taxi rejected, releasing gate", "slot", snap.SlotID, "gate", gate)
		if _, err := o.gates.Dock(gate); err != nil {
			return err
		}
		return o.check(o.gates.Depart(gate))
	}
	return nil
}

func (o *OperationsDriver) advance(id models.SlotID, target models.AircraftState) error {
	return o.check(o.aircraft.RequestTransition(id, target))
}

// check discards the outcome; a rejected step is retried on the next run
func (o *OperationsDriver) check(_ registry.Outcome, err error) error {
	return err
}

func (o *OperationsDriver) faulty() bool {
	return o.rng.Float64() < o.faultRate
}

func (o *OperationsDriver) pick(from []string) string {
	return from[o.rng.IntN(len(from))]
}

package display

import (
	"fmt"
	"log/slog"
	"sync"

	"ground_ops/internal/models"
	"ground_ops/internal/notify"
	"ground_ops/internal/registry"

	"github.com/brunoga/deep"
)

// Row is one line of the public flight information board
type Row struct {
	SlotID     models.SlotID
	FlightCode string
	Airport    string // origin for arrivals, destination for departures
	Status     string
	Gate       int
	Remark     string
}

var arrivalStatus = map[models.AircraftState]string{
	models.StateWantingToLand:          "Approaching",
	models.StateGroundClearanceGranted: "Cleared to land",
	models.StateLanding:                "Landing",
	models.StateLanded:                 "Landed",
	models.StateTaxiing:                "Taxiing",
	models.StateUnloading:              "At gate",
}

var departureStatus = map[models.AircraftState]string{
	models.StateReadyForCleanMaint:            "Scheduled",
	models.StateFaultyAwaitClean:              "Delayed",
	models.StateOKAwaitClean:                  "Scheduled",
	models.StateCleanAwaitMaint:               "Scheduled",
	models.StateAwaitRepair:                   "Delayed",
	models.StateReadyRefuel:                   "Scheduled",
	models.StateReadyPassengers:               "Boarding",
	models.StateReadyDepart:                   "Gate closed",
	models.StateAwaitingTaxi:                  "Pushback",
	models.StateAwaitingTakeoff:               "Awaiting takeoff",
	models.StateDepartingThroughLocalAirspace: "Departed",
}

// Board observes both registries and keeps an arrivals/departures view.
// It rebuilds its rows from fresh snapshots on every change.
type Board struct {
	aircraft *registry.AircraftRegistry
	gates    *registry.GateRegistry

	aircraftSub *notify.Subscription[models.Change]
	gateSub     *notify.Subscription[models.Change]

	mu         sync.RWMutex
	arrivals   []Row
	departures []Row
	gateStates []models.GateSnapshot
	updates    int
}

// NewBoard builds the initial view and subscribes to both registries
func NewBoard(aircraft *registry.AircraftRegistry, gates *registry.GateRegistry) *Board {
	b := &Board{
		aircraft: aircraft,
		gates:    gates,
	}
	b.rebuild()
	b.aircraftSub = aircraft.Subscribe(b.onChange)
	b.gateSub = gates.Subscribe(b.onChange)
	return b
}

// Close stops observing the registries
func (b *Board) Close() {
	b.aircraftSub.Unsubscribe()
	b.gateSub.Unsubscribe()
}

// Arrivals returns a copy of the arrivals rows, ordered by slot
func (b *Board) Arrivals() []Row {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return deep.MustCopy(b.arrivals)
}

// Departures returns a copy of the departures rows, ordered by slot
func (b *Board) Departures() []Row {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return deep.MustCopy(b.departures)
}

// Gates returns a copy of the last seen gate states
func (b *Board) Gates() []models.GateSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return deep.MustCopy(b.gateStates)
}

// Updates returns how many times the board has been rebuilt
func (b *Board) Updates() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.updates
}

func (b *Board) onChange(c models.Change) {
	slog.Debug("Board refresh", "change", c)
	b.rebuild()
}

// rebuild holds the board lock across the registry reads so that two
// concurrent refreshes cannot leave an older view in place. Registries
// never call back while holding their own locks.
func (b *Board) rebuild() {
	b.mu.Lock()
	defer b.mu.Unlock()

	var arrivals, departures []Row

	for _, snap := range b.aircraft.Snapshots() {
		if status, ok := arrivalStatus[snap.State]; ok {
			arrivals = append(arrivals, Row{
				SlotID:     snap.SlotID,
				FlightCode: snap.FlightCode,
				Airport:    snap.Itinerary.From,
				Status:     status,
				Gate:       snap.Gate,
			})
			continue
		}

		status, ok := departureStatus[snap.State]
		if !ok {
			continue
		}

		// The outbound itinerary is only set once boarding opens
		destination := snap.Itinerary.To
		if snap.State < models.StateReadyPassengers {
			destination = snap.Itinerary.Next
		}

		row := Row{
			SlotID:     snap.SlotID,
			FlightCode: snap.FlightCode,
			Airport:    destination,
			Status:     status,
			Gate:       snap.Gate,
		}
		if snap.State.FaultPending() {
			row.Remark = fmt.Sprintf("Technical: %s", snap.Fault)
		}
		departures = append(departures, row)
	}

	b.arrivals = arrivals
	b.departures = departures
	b.gateStates = b.gates.Snapshots()
	b.updates++
}

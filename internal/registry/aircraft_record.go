package registry

import "ground_ops/internal/models"

// aircraftRecord is the state of one aircraft slot. Every mutator checks its
// precondition and reports whether it changed anything.
type aircraftRecord struct {
	state      models.AircraftState
	flightCode string
	itinerary  models.Itinerary
	manifest   models.PassengerManifest
	gate       int
	fault      string
}

func newAircraftRecord() *aircraftRecord {
	return &aircraftRecord{state: models.StateFree, gate: models.NoGate}
}

// detect seeds a FREE slot from a radar descriptor
func (r *aircraftRecord) detect(d models.FlightDescriptor, localAirport string) bool {
	if r.state != models.StateFree {
		return false
	}

	r.flightCode = d.FlightCode
	r.itinerary = d.Itinerary
	r.manifest = models.NewPassengerManifest(d.Manifest.Passengers()...)
	r.gate = models.NoGate
	r.fault = ""

	if d.Itinerary.To == localAirport {
		r.state = models.StateWantingToLand
	} else {
		r.state = models.StateInTransit
	}
	return true
}

func (r *aircraftRecord) lostContact() bool {
	if !canLoseContact(r.state) {
		return false
	}
	r.reset()
	return true
}

func (r *aircraftRecord) reset() {
	*r = aircraftRecord{state: models.StateFree, gate: models.NoGate}
}

func (r *aircraftRecord) transition(target models.AircraftState, localAirport string) bool {
	if !CanTransition(r.state, target) {
		return false
	}

	switch target {
	case models.StateReadyForCleanMaint:
		// Passengers have disembarked
		r.manifest.Clear()
	case models.StateReadyRefuel:
		r.fault = ""
	case models.StateReadyPassengers:
		r.itinerary = models.Itinerary{From: localAirport, To: r.itinerary.Next}
		r.manifest.Clear()
	case models.StateAwaitingTaxi:
		r.gate = models.NoGate
	}

	r.state = target
	return true
}

func (r *aircraftRecord) taxiTo(gate int) bool {
	if r.state != models.StateLanded {
		return false
	}
	r.gate = gate
	r.state = models.StateTaxiing
	return true
}

func (r *aircraftRecord) reportFault(description string) bool {
	switch r.state {
	case models.StateReadyForCleanMaint:
		r.state = models.StateFaultyAwaitClean
	case models.StateCleanAwaitMaint:
		r.state = models.StateAwaitRepair
	default:
		return false
	}
	r.fault = description
	return true
}

func (r *aircraftRecord) board(p models.Passenger) bool {
	if r.state != models.StateReadyPassengers {
		return false
	}
	r.manifest.Add(p)
	return true
}

func (r *aircraftRecord) snapshot(id models.SlotID) models.AircraftSnapshot {
	return models.AircraftSnapshot{
		SlotID:     id,
		State:      r.state,
		FlightCode: r.flightCode,
		Itinerary:  r.itinerary,
		Passengers: r.manifest.Passengers(),
		Gate:       r.gate,
		Fault:      r.fault,
	}
}

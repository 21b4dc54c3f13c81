package models

import "fmt"

// SlotID identifies an aircraft registry slot (the "mCode" of the ground screens)
type SlotID int

// NoSlot marks the absence of an aircraft reference
const NoSlot SlotID = -1

// NoGate marks the absence of a gate assignment
const NoGate = -1

// AircraftState is the lifecycle state of an aircraft slot
type AircraftState int

const (
	StateFree AircraftState = iota
	StateInTransit
	StateWantingToLand
	StateGroundClearanceGranted
	StateLanding
	StateLanded
	StateTaxiing
	StateUnloading
	StateReadyForCleanMaint
	StateFaultyAwaitClean
	StateOKAwaitClean
	StateCleanAwaitMaint
	StateAwaitRepair
	StateReadyRefuel
	StateReadyPassengers
	StateReadyDepart
	StateAwaitingTaxi
	StateAwaitingTakeoff
	StateDepartingThroughLocalAirspace
)

var aircraftStateNames = map[AircraftState]string{
	StateFree:                          "FREE",
	StateInTransit:                     "IN_TRANSIT",
	StateWantingToLand:                 "WANTING_TO_LAND",
	StateGroundClearanceGranted:        "GROUND_CLEARANCE_GRANTED",
	StateLanding:                       "LANDING",
	StateLanded:                        "LANDED",
	StateTaxiing:                       "TAXIING",
	StateUnloading:                     "UNLOADING",
	StateReadyForCleanMaint:            "READY_FOR_CLEAN_MAINT",
	StateFaultyAwaitClean:              "FAULTY_AWAIT_CLEAN",
	StateOKAwaitClean:                  "OK_AWAIT_CLEAN",
	StateCleanAwaitMaint:               "CLEAN_AWAIT_MAINT",
	StateAwaitRepair:                   "AWAIT_REPAIR",
	StateReadyRefuel:                   "READY_REFUEL",
	StateReadyPassengers:               "READY_PASSENGERS",
	StateReadyDepart:                   "READY_DEPART",
	StateAwaitingTaxi:                  "AWAITING_TAXI",
	StateAwaitingTakeoff:               "AWAITING_TAKEOFF",
	StateDepartingThroughLocalAirspace: "DEPARTING_THROUGH_LOCAL_AIRSPACE",
}

func (s AircraftState) String() string {
	if name, ok := aircraftStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("AircraftState(%d)", int(s))
}

// Valid reports whether s is one of the defined aircraft states
func (s AircraftState) Valid() bool {
	_, ok := aircraftStateNames[s]
	return ok
}

// AtGate reports whether an aircraft in state s holds a gate assignment
func (s AircraftState) AtGate() bool {
	return s >= StateTaxiing && s <= StateReadyDepart
}

// FaultPending reports whether an aircraft in state s carries a fault description
func (s AircraftState) FaultPending() bool {
	return s == StateFaultyAwaitClean || s == StateAwaitRepair
}

// ParseAircraftState converts a state name such as "LANDED" back to its AircraftState
func ParseAircraftState(name string) (AircraftState, error) {
	for state, n := range aircraftStateNames {
		if n == name {
			return state, nil
		}
	}
	return StateFree, fmt.Errorf("unknown aircraft state: %q", name)
}

// AircraftStates returns every aircraft state in lifecycle order
func AircraftStates() []AircraftState {
	states := make([]AircraftState, 0, len(aircraftStateNames))
	for s := StateFree; s <= StateDepartingThroughLocalAirspace; s++ {
		states = append(states, s)
	}
	return states
}

// FlightDescriptor is what the radar hands over when an aircraft is first detected
type FlightDescriptor struct {
	FlightCode string
	Itinerary  Itinerary
	Manifest   PassengerManifest
}

// AircraftSnapshot is a read-only copy of one aircraft slot
type AircraftSnapshot struct {
	SlotID     SlotID
	State      AircraftState
	FlightCode string
	Itinerary  Itinerary
	Passengers []Passenger
	Gate       int    // NoGate unless State.AtGate()
	Fault      string // empty unless State.FaultPending()
}

// HasGate reports whether the snapshot carries a gate assignment
func (a AircraftSnapshot) HasGate() bool {
	return a.Gate != NoGate
}

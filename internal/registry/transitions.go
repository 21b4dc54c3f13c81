package registry

import "ground_ops/internal/models"

// plainTransitions lists the aircraft transitions that carry no payload and
// may be requested through RequestTransition. Detection, taxi-to-gate, fault
// reports and lost contact each have their own operation and are absent here.
var plainTransitions = map[models.AircraftState][]models.AircraftState{
	models.StateWantingToLand:          {models.StateGroundClearanceGranted},
	models.StateGroundClearanceGranted: {models.StateLanding},
	models.StateLanding:                {models.StateLanded},
	models.StateTaxiing:                {models.StateUnloading},
	models.StateUnloading:              {models.StateReadyForCleanMaint},
	models.StateReadyForCleanMaint:     {models.StateOKAwaitClean, models.StateCleanAwaitMaint},
	models.StateOKAwaitClean:           {models.StateReadyRefuel},
	models.StateCleanAwaitMaint:        {models.StateReadyRefuel},
	models.StateFaultyAwaitClean:       {models.StateAwaitRepair},
	models.StateAwaitRepair:            {models.StateReadyRefuel},
	models.StateReadyRefuel:            {models.StateReadyPassengers},
	models.StateReadyPassengers:        {models.StateReadyDepart},
	models.StateReadyDepart:            {models.StateAwaitingTaxi},
	models.StateAwaitingTaxi:           {models.StateAwaitingTakeoff},
	models.StateAwaitingTakeoff:        {models.StateDepartingThroughLocalAirspace},
}

// CanTransition reports whether RequestTransition would move an aircraft
// from one state to the other
func CanTransition(from, to models.AircraftState) bool {
	for _, next := range plainTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStates returns the states RequestTransition accepts from the given state.
// Screens use it to decide which actions to offer.
func NextStates(from models.AircraftState) []models.AircraftState {
	return append([]models.AircraftState(nil), plainTransitions[from]...)
}

// canLoseContact reports whether radar contact can be dropped in state s
func canLoseContact(s models.AircraftState) bool {
	return s == models.StateInTransit || s == models.StateDepartingThroughLocalAirspace
}

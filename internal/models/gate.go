package models

import "fmt"

// GateState is the occupancy state of a physical gate
type GateState int

const (
	GateFree GateState = iota
	GateReserved
	GateOccupied
)

var gateStateNames = map[GateState]string{
	GateFree:     "FREE",
	GateReserved: "RESERVED",
	GateOccupied: "OCCUPIED",
}

func (s GateState) String() string {
	if name, ok := gateStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("GateState(%d)", int(s))
}

// GateSnapshot is a read-only copy of one gate
type GateSnapshot struct {
	Number int
	State  GateState
	SlotID SlotID // NoSlot while the gate is free
}

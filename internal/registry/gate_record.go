package registry

import "ground_ops/internal/models"

type gateRecord struct {
	state models.GateState
	slot  models.SlotID
}

func newGateRecord() *gateRecord {
	return &gateRecord{state: models.GateFree, slot: models.NoSlot}
}

func (g *gateRecord) allocate(slot models.SlotID) bool {
	if g.state != models.GateFree || slot < 0 {
		return false
	}
	g.slot = slot
	g.state = models.GateReserved
	return true
}

func (g *gateRecord) dock() bool {
	if g.state != models.GateReserved {
		return false
	}
	g.state = models.GateOccupied
	return true
}

func (g *gateRecord) depart() bool {
	if g.state != models.GateOccupied {
		return false
	}
	g.slot = models.NoSlot
	g.state = models.GateFree
	return true
}

func (g *gateRecord) snapshot(number int) models.GateSnapshot {
	return models.GateSnapshot{Number: number, State: g.state, SlotID: g.slot}
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAircraftStateNames(t *testing.T) {
	states := AircraftStates()
	require.Len(t, states, 19)
	assert.Equal(t, StateFree, states[0])
	assert.Equal(t, StateDepartingThroughLocalAirspace, states[len(states)-1])

	for _, s := range states {
		assert.True(t, s.Valid())
		parsed, err := ParseAircraftState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	assert.Equal(t, "AircraftState(42)", AircraftState(42).String())
	assert.False(t, AircraftState(42).Valid())

	_, err := ParseAircraftState("HOVERING")
	assert.Error(t, err)
}

func TestAircraftStateGroups(t *testing.T) {
	tests := []struct {
		state        AircraftState
		atGate       bool
		faultPending bool
	}{
		{StateFree, false, false},
		{StateLanded, false, false},
		{StateTaxiing, true, false},
		{StateFaultyAwaitClean, true, true},
		{StateAwaitRepair, true, true},
		{StateCleanAwaitMaint, true, false},
		{StateReadyDepart, true, false},
		{StateAwaitingTaxi, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.atGate, tt.state.AtGate())
			assert.Equal(t, tt.faultPending, tt.state.FaultPending())
		})
	}
}

func TestGateStateString(t *testing.T) {
	assert.Equal(t, "FREE", GateFree.String())
	assert.Equal(t, "RESERVED", GateReserved.String())
	assert.Equal(t, "OCCUPIED", GateOccupied.String())
	assert.Equal(t, "GateState(7)", GateState(7).String())
}

func TestPassengerManifest(t *testing.T) {
	var m PassengerManifest
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Passengers())

	m = NewPassengerManifest(Passenger{Name: "Ada"}, Passenger{Name: "Grace"})
	m.Add(Passenger{Name: "Linus"})
	require.Equal(t, 3, m.Len())
	assert.Equal(t, []Passenger{{Name: "Ada"}, {Name: "Grace"}, {Name: "Linus"}}, m.Passengers())

	// Callers get a copy
	list := m.Passengers()
	list[0].Name = "Mallory"
	assert.Equal(t, "Ada", m.Passengers()[0].Name)

	m.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestAircraftSnapshotHasGate(t *testing.T) {
	assert.False(t, AircraftSnapshot{Gate: NoGate}.HasGate())
	assert.True(t, AircraftSnapshot{Gate: 0}.HasGate())
}

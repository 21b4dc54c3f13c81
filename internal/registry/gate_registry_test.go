package registry

import (
	"testing"

	"ground_ops/internal/metrics"
	"ground_ops/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGates(t *testing.T, n int) (*GateRegistry, *recorder) {
	reg, err := NewGateRegistry(n, nil)
	require.NoError(t, err)
	require.NotNil(t, reg)

	rec := &recorder{}
	reg.Subscribe(rec.observe)
	return reg, rec
}

func TestNewGateRegistry(t *testing.T) {
	reg, _ := setupGates(t, 4)

	assert.Equal(t, 4, reg.Len())
	assert.Equal(t, []models.GateState{models.GateFree, models.GateFree, models.GateFree, models.GateFree}, reg.AllStatuses())

	_, err := NewGateRegistry(0, nil)
	assert.Error(t, err)
}

func TestGateRegistry_InvalidGate(t *testing.T) {
	reg, rec := setupGates(t, 3)

	for _, gate := range []int{-1, 3, 42} {
		_, err := reg.Allocate(gate, 1)
		assert.ErrorIs(t, err, ErrInvalidGate)
		_, err = reg.Dock(gate)
		assert.ErrorIs(t, err, ErrInvalidGate)
		_, err = reg.Depart(gate)
		assert.ErrorIs(t, err, ErrInvalidGate)
		_, err = reg.StatusOf(gate)
		assert.ErrorIs(t, err, ErrInvalidGate)
		_, err = reg.Query(gate)
		assert.ErrorIs(t, err, ErrInvalidGate)
	}

	assert.Equal(t, 0, rec.count())
}

func TestGateRegistry_Transitions(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*GateRegistry)
		op       func(*GateRegistry) (Outcome, error)
		want     Outcome
		endState models.GateState
	}{
		{
			name:     "allocate free gate",
			op:       func(r *GateRegistry) (Outcome, error) { return r.Allocate(0, 4) },
			want:     Applied,
			endState: models.GateReserved,
		},
		{
			name:     "allocate with no aircraft reference",
			op:       func(r *GateRegistry) (Outcome, error) { return r.Allocate(0, models.NoSlot) },
			want:     Rejected,
			endState: models.GateFree,
		},
		{
			name:     "allocate reserved gate",
			setup:    func(r *GateRegistry) { r.Allocate(0, 1) },
			op:       func(r *GateRegistry) (Outcome, error) { return r.Allocate(0, 2) },
			want:     Rejected,
			endState: models.GateReserved,
		},
		{
			name:     "dock free gate",
			op:       func(r *GateRegistry) (Outcome, error) { return r.Dock(0) },
			want:     Rejected,
			endState: models.GateFree,
		},
		{
			name:     "dock reserved gate",
			setup:    func(r *GateRegistry) { r.Allocate(0, 1) },
			op:       func(r *GateRegistry) (Outcome, error) { return r.Dock(0) },
			want:     Applied,
			endState: models.GateOccupied,
		},
		{
			name:     "depart reserved gate",
			setup:    func(r *GateRegistry) { r.Allocate(0, 1) },
			op:       func(r *GateRegistry) (Outcome, error) { return r.Depart(0) },
			want:     Rejected,
			endState: models.GateReserved,
		},
		{
			name: "depart occupied gate",
			setup: func(r *GateRegistry) {
				r.Allocate(0, 1)
				r.Dock(0)
			},
			op:       func(r *GateRegistry) (Outcome, error) { return r.Depart(0) },
			want:     Applied,
			endState: models.GateFree,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, rec := setupGates(t, 1)
			if tt.setup != nil {
				tt.setup(reg)
			}
			before := rec.count()

			out, err := tt.op(reg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)

			state, err := reg.StatusOf(0)
			require.NoError(t, err)
			assert.Equal(t, tt.endState, state)

			if tt.want == Applied {
				assert.Equal(t, before+1, rec.count())
			} else {
				assert.Equal(t, before, rec.count())
			}
		})
	}
}

func TestGateRegistry_DockTwiceOnFreeGate(t *testing.T) {
	reg, rec := setupGates(t, 1)

	for i := 0; i < 2; i++ {
		out, err := reg.Dock(0)
		require.NoError(t, err)
		assert.Equal(t, Rejected, out)
	}

	state, err := reg.StatusOf(0)
	require.NoError(t, err)
	assert.Equal(t, models.GateFree, state)
	assert.Equal(t, 0, rec.count())
}

func TestGateRegistry_RoundTrip(t *testing.T) {
	reg, rec := setupGates(t, 2)
	before, err := reg.Query(1)
	require.NoError(t, err)

	out, err := reg.Allocate(1, 5)
	require.NoError(t, err)
	require.Equal(t, Applied, out)

	snap, err := reg.Query(1)
	require.NoError(t, err)
	assert.Equal(t, models.SlotID(5), snap.SlotID)
	gate, ok := reg.GateFor(5)
	assert.True(t, ok)
	assert.Equal(t, 1, gate)

	_, err = reg.Dock(1)
	require.NoError(t, err)
	_, err = reg.Depart(1)
	require.NoError(t, err)

	after, err := reg.Query(1)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, models.NoSlot, after.SlotID)
	assert.Equal(t, 3, rec.count())

	_, ok = reg.GateFor(5)
	assert.False(t, ok)

	kinds := []models.ChangeKind{}
	for _, c := range rec.changes {
		kinds = append(kinds, c.Kind)
		assert.Equal(t, models.RegistryGate, c.Registry)
		assert.Equal(t, 1, c.ID)
		assert.Equal(t, "slot 5", c.Detail)
	}
	assert.Equal(t, []models.ChangeKind{models.ChangeGateReserve, models.ChangeGateDock, models.ChangeGateDepart}, kinds)
}

func TestGateRegistry_ThreeGateScenario(t *testing.T) {
	reg, rec := setupGates(t, 3)

	reg.Allocate(0, 1)
	reg.Allocate(1, 2)
	reg.Dock(1)
	reg.Allocate(2, 3)
	reg.Dock(2)
	reg.Depart(2)

	assert.Equal(t, []models.GateState{models.GateReserved, models.GateOccupied, models.GateFree}, reg.AllStatuses())
	assert.Equal(t, 6, rec.count())

	snaps := reg.Snapshots()
	require.Len(t, snaps, 3)
	assert.Equal(t, models.SlotID(1), snaps[0].SlotID)
	assert.Equal(t, models.SlotID(2), snaps[1].SlotID)
	assert.Equal(t, models.NoSlot, snaps[2].SlotID)
}

func TestGateRegistry_Metrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	reg, err := NewGateRegistry(2, m)
	require.NoError(t, err)

	reg.Allocate(0, 1)
	reg.Allocate(1, 2)
	reg.Dock(0)
	reg.Dock(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OperationsApplied.WithLabelValues("gate", "gate_reserve")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsRejected.WithLabelValues("gate", "gate_dock")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OccupiedGates))

	reg.Depart(0)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OccupiedGates))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "applied", Applied.String())
	assert.Equal(t, "rejected", Rejected.String())
}

package tasks

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"ground_ops/internal/models"
	"ground_ops/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const localAirport = "Stormy Weather"

type stateLog struct {
	mu     sync.Mutex
	states map[int][]string
	gates  []models.ChangeKind
}

func newStateLog() *stateLog {
	return &stateLog{states: make(map[int][]string)}
}

func (l *stateLog) observe(c models.Change) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch c.Registry {
	case models.RegistryAircraft:
		l.states[c.ID] = append(l.states[c.ID], c.To)
	case models.RegistryGate:
		l.gates = append(l.gates, c.Kind)
	}
}

func setupDriver(t *testing.T, slots, gates int, faultRate float64) (*OperationsDriver, *registry.AircraftRegistry, *registry.GateRegistry, *stateLog) {
	t.Helper()

	aircraft, err := registry.NewAircraftRegistry(slots, localAirport, nil)
	require.NoError(t, err)
	gateReg, err := registry.NewGateRegistry(gates, nil)
	require.NoError(t, err)

	log := newStateLog()
	aircraft.Subscribe(log.observe)
	gateReg.Subscribe(log.observe)

	driver := NewOperationsDriver(aircraft, gateReg, time.Second, 1, faultRate, rand.New(rand.NewPCG(7, 11)))
	return driver, aircraft, gateReg, log
}

func arrivalDescriptor(code string) models.FlightDescriptor {
	return models.FlightDescriptor{
		FlightCode: code,
		Itinerary:  models.Itinerary{From: "Auckland", To: localAirport, Next: "Sydney"},
		Manifest:   models.NewPassengerManifest(models.Passenger{Name: "Aroha Ngata"}),
	}
}

func runUntilFree(t *testing.T, driver *OperationsDriver, aircraft *registry.AircraftRegistry, maxTicks int) {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		require.NoError(t, driver.Run(context.Background()))
		if len(aircraft.QueryAll(models.StateFree)) == aircraft.Capacity() {
			return
		}
	}
	t.Fatalf("aircraft still active after %d ticks", maxTicks)
}

func TestOperationsDriver_FullTurnaround(t *testing.T) {
	driver, aircraft, gates, log := setupDriver(t, 2, 1, 0)
	assert.Equal(t, "operations", driver.Name())
	assert.Equal(t, time.Second, driver.Interval())

	id, err := aircraft.Allocate(arrivalDescriptor("NZ101"))
	require.NoError(t, err)

	runUntilFree(t, driver, aircraft, 40)

	states := log.states[int(id)]
	require.NotEmpty(t, states)
	assert.Equal(t, "WANTING_TO_LAND", states[0])
	assert.Contains(t, states, "TAXIING")
	assert.Contains(t, states, "READY_REFUEL")
	assert.Contains(t, states, "READY_PASSENGERS")
	assert.Contains(t, states, "DEPARTING_THROUGH_LOCAL_AIRSPACE")
	assert.Equal(t, "FREE", states[len(states)-1])
	assert.NotContains(t, states, "FAULTY_AWAIT_CLEAN")

	assert.Equal(t, []models.ChangeKind{
		models.ChangeGateReserve,
		models.ChangeGateDock,
		models.ChangeGateDepart,
	}, log.gates)
	assert.Equal(t, []models.GateState{models.GateFree}, gates.AllStatuses())
}

func TestOperationsDriver_FaultPath(t *testing.T) {
	driver, aircraft, _, log := setupDriver(t, 1, 1, 1)

	id, err := aircraft.Allocate(arrivalDescriptor("QF22"))
	require.NoError(t, err)

	runUntilFree(t, driver, aircraft, 40)

	states := log.states[int(id)]
	assert.Contains(t, states, "FAULTY_AWAIT_CLEAN")
	assert.Contains(t, states, "AWAIT_REPAIR")
	assert.Equal(t, "FREE", states[len(states)-1])
}

func TestOperationsDriver_HoldsWhenNoGateFree(t *testing.T) {
	driver, aircraft, gates, _ := setupDriver(t, 2, 1, 0)

	first, err := aircraft.Allocate(arrivalDescriptor("NZ1"))
	require.NoError(t, err)
	second, err := aircraft.Allocate(arrivalDescriptor("NZ2"))
	require.NoError(t, err)

	// clearance, landing, landed, taxi
	for i := 0; i < 4; i++ {
		require.NoError(t, driver.Run(context.Background()))
	}

	firstSnap, err := aircraft.Query(first)
	require.NoError(t, err)
	secondSnap, err := aircraft.Query(second)
	require.NoError(t, err)

	assert.Equal(t, models.StateTaxiing, firstSnap.State)
	assert.Equal(t, 0, firstSnap.Gate)
	assert.Equal(t, models.StateLanded, secondSnap.State)
	assert.False(t, secondSnap.HasGate())

	gate, ok := gates.GateFor(first)
	assert.True(t, ok)
	assert.Equal(t, 0, gate)

	// both eventually get through the single gate
	runUntilFree(t, driver, aircraft, 80)
}

func TestOperationsDriver_TransitLosesContact(t *testing.T) {
	driver, aircraft, _, log := setupDriver(t, 1, 1, 0)

	id, err := aircraft.Allocate(models.FlightDescriptor{
		FlightCode: "EK450",
		Itinerary:  models.Itinerary{From: "Sydney", To: "Auckland"},
	})
	require.NoError(t, err)

	// lostContactTicks is 1: seen once, released on the second run
	require.NoError(t, driver.Run(context.Background()))
	snap, err := aircraft.Query(id)
	require.NoError(t, err)
	assert.Equal(t, models.StateInTransit, snap.State)

	require.NoError(t, driver.Run(context.Background()))
	snap, err = aircraft.Query(id)
	require.NoError(t, err)
	assert.Equal(t, models.StateFree, snap.State)
	assert.Equal(t, []string{"IN_TRANSIT", "FREE"}, log.states[int(id)])
	assert.Empty(t, driver.airborne)
}

func TestOperationsDriver_CancelledContext(t *testing.T) {
	driver, aircraft, _, _ := setupDriver(t, 1, 1, 0)
	id, err := aircraft.Allocate(arrivalDescriptor("JQ7"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, driver.Run(ctx))

	snap, err := aircraft.Query(id)
	require.NoError(t, err)
	assert.Equal(t, models.StateWantingToLand, snap.State)
}

func TestOperationsDriver_TaxiingWithoutReservedGate(t *testing.T) {
	driver, aircraft, gates, _ := setupDriver(t, 1, 1, 0)

	id, err := aircraft.Allocate(arrivalDescriptor("NZ5"))
	require.NoError(t, err)
	for _, st := range []models.AircraftState{
		models.StateGroundClearanceGranted,
		models.StateLanding,
		models.StateLanded,
	} {
		_, err := aircraft.RequestTransition(id, st)
		require.NoError(t, err)
	}
	// Sent to gate 0 without a reservation in the gate registry
	_, err = aircraft.TaxiToGate(id, 0)
	require.NoError(t, err)

	err = driver.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no gate reserved")

	snap, err := aircraft.Query(id)
	require.NoError(t, err)
	assert.Equal(t, models.StateTaxiing, snap.State)
	assert.Equal(t, []models.GateState{models.GateFree}, gates.AllStatuses())
}

package radar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ground_ops/internal/models"
	"ground_ops/internal/registry"
)

// Allocator accepts newly detected aircraft
type Allocator interface {
	Allocate(d models.FlightDescriptor) (models.SlotID, error)
}

// Detector is a scheduled task that reports one aircraft per run. Recorded
// traffic is replayed first; after that the generator takes over.
type Detector struct {
	registry  Allocator
	interval  time.Duration
	traffic   []models.FlightDescriptor
	generator *Generator
}

// NewDetector creates a detector. A nil generator stops detection once the
// recorded traffic is used up.
func NewDetector(allocator Allocator, interval time.Duration, traffic []models.FlightDescriptor, generator *Generator) *Detector {
	return &Detector{
		registry:  allocator,
		interval:  interval,
		traffic:   traffic,
		generator: generator,
	}
}

func (d *Detector) Name() string {
	return "radar"
}

func (d *Detector) Interval() time.Duration {
	return d.interval
}

// Run detects one aircraft. A full registry drops the detection.
func (d *Detector) Run(ctx context.Context) error {
	desc, ok := d.next()
	if !ok {
		return nil
	}

	id, err := d.registry.Allocate(desc)
	if errors.Is(err, registry.ErrRegistryFull) {
		slog.Warn("No free slot, dropping detection", "flight_code", desc.FlightCode, "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("allocate %s: %w", desc.FlightCode, err)
	}

	slog.Info("Aircraft detected",
		"slot", id,
		"flight_code", desc.FlightCode,
		"from", desc.Itinerary.From,
		"to", desc.Itinerary.To,
		"passengers", desc.Manifest.Len(),
	)
	return nil
}

func (d *Detector) next() (models.FlightDescriptor, bool) {
	if len(d.traffic) > 0 {
		desc := d.traffic[0]
		d.traffic = d.traffic[1:]
		return desc, true
	}
	if d.generator == nil {
		return models.FlightDescriptor{}, false
	}
	return d.generator.Next(), true
}

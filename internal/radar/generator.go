package radar

import (
	"fmt"
	"math/rand/v2"

	"ground_ops/internal/models"
)

var (
	airlinePrefixes = []string{"NZ", "QF", "VA", "JQ", "EK", "SQ", "UA", "CX"}
	airports        = []string{"Auckland", "Sydney", "Christchurch", "Melbourne", "Queenstown", "Brisbane", "Dunedin", "Nadi"}
	passengerNames  = []string{
		"Aroha Ngata", "Ben Carter", "Chloe Wong", "Dev Patel", "Emma Smith",
		"Finn Murphy", "Grace Liu", "Hemi Walker", "Isla Brown", "Jack Taylor",
		"Kiri Tane", "Liam Wilson", "Mia Chen", "Noah Singh", "Olivia Reid",
	}
)

// Generator produces synthetic flight descriptors. A share of them, set by
// localRatio, have the local airport as their destination.
type Generator struct {
	localAirport string
	localRatio   float64
	rng          *rand.Rand
}

// NewGenerator creates a generator. A nil rng uses a randomly seeded source.
func NewGenerator(localAirport string, localRatio float64, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{
		localAirport: localAirport,
		localRatio:   localRatio,
		rng:          rng,
	}
}

// Next returns a new descriptor
func (g *Generator) Next() models.FlightDescriptor {
	code := fmt.Sprintf("%s%d", g.pick(airlinePrefixes), 100+g.rng.IntN(900))

	from := g.otherAirport("")
	to := g.localAirport
	if g.rng.Float64() >= g.localRatio {
		to = g.otherAirport(from)
	}
	next := g.otherAirport(from)

	manifest := models.NewPassengerManifest()
	for range 1 + g.rng.IntN(6) {
		manifest.Add(models.Passenger{Name: g.pick(passengerNames)})
	}

	return models.FlightDescriptor{
		FlightCode: code,
		Itinerary:  models.Itinerary{From: from, To: to, Next: next},
		Manifest:   manifest,
	}
}

// otherAirport picks an airport that is neither local nor exclude
func (g *Generator) otherAirport(exclude string) string {
	for {
		a := g.pick(airports)
		if a != g.localAirport && a != exclude {
			return a
		}
	}
}

func (g *Generator) pick(from []string) string {
	return from[g.rng.IntN(len(from))]
}

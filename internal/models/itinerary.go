package models

// Itinerary is the flight plan triple held by an aircraft record
type Itinerary struct {
	From string // Departure airport
	To   string // Destination airport
	Next string // Onward destination after To, if any
}

// Passenger is a single entry on a passenger manifest
type Passenger struct {
	Name string
}

// PassengerManifest is the ordered list of passengers aboard an aircraft.
// The zero value is an empty manifest.
type PassengerManifest struct {
	passengers []Passenger
}

// NewPassengerManifest builds a manifest holding the given passengers in order
func NewPassengerManifest(passengers ...Passenger) PassengerManifest {
	m := PassengerManifest{}
	m.AddAll(passengers)
	return m
}

// Add appends a passenger
func (m *PassengerManifest) Add(p Passenger) {
	m.passengers = append(m.passengers, p)
}

// AddAll appends passengers in order
func (m *PassengerManifest) AddAll(passengers []Passenger) {
	m.passengers = append(m.passengers, passengers...)
}

// Clear empties the manifest
func (m *PassengerManifest) Clear() {
	m.passengers = nil
}

// Len returns the number of passengers
func (m PassengerManifest) Len() int {
	return len(m.passengers)
}

// Passengers returns a copy of the passenger list
func (m PassengerManifest) Passengers() []Passenger {
	return append([]Passenger(nil), m.passengers...)
}

package radar

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"ground_ops/internal/models"
)

// LoadTrafficFiles reads flight descriptors from CSV files with the header
// flight_code,from,to,next,passengers. Passenger names are separated by ';'.
// Rows without a flight code are skipped.
func LoadTrafficFiles(csvPaths []string) ([]models.FlightDescriptor, error) {
	var flights []models.FlightDescriptor
	for _, csvPath := range csvPaths {
		loaded, err := loadTrafficFile(csvPath)
		if err != nil {
			return nil, err
		}
		flights = append(flights, loaded...)
	}
	return flights, nil
}

func loadTrafficFile(csvPath string) ([]models.FlightDescriptor, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open traffic file %s: %w", csvPath, err)
	}
	defer file.Close()

	flights, err := ReadTraffic(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read traffic file %s: %w", csvPath, err)
	}
	return flights, nil
}

// ReadTraffic parses one traffic CSV stream
func ReadTraffic(r io.Reader) ([]models.FlightDescriptor, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	headerMap := make(map[string]int, len(header))
	for i, h := range header {
		headerMap[strings.ToLower(strings.Trim(strings.TrimSpace(h), "'\""))] = i
	}
	if _, ok := headerMap["flight_code"]; !ok {
		return nil, fmt.Errorf("missing flight_code column")
	}

	var flights []models.FlightDescriptor
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		d := models.FlightDescriptor{
			FlightCode: getField(record, headerMap, "flight_code"),
			Itinerary: models.Itinerary{
				From: getField(record, headerMap, "from"),
				To:   getField(record, headerMap, "to"),
				Next: getField(record, headerMap, "next"),
			},
			Manifest: models.NewPassengerManifest(parsePassengers(getField(record, headerMap, "passengers"))...),
		}

		if d.FlightCode == "" {
			continue
		}
		flights = append(flights, d)
	}

	return flights, nil
}

func parsePassengers(field string) []models.Passenger {
	var passengers []models.Passenger
	for _, name := range strings.Split(field, ";") {
		if name = strings.TrimSpace(name); name != "" {
			passengers = append(passengers, models.Passenger{Name: name})
		}
	}
	return passengers
}

// getField safely retrieves a field from a CSV record by header name
func getField(record []string, headerMap map[string]int, fieldName string) string {
	if idx, ok := headerMap[fieldName]; ok && idx < len(record) {
		return strings.Trim(strings.TrimSpace(record[idx]), "'\"")
	}
	return ""
}

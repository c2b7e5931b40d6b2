// Package domain defines the telemetry rows exchanged with the device and the store.
package domain

import (
	"math"
	"time"

	"github.com/jwulff/bioreactor-go/internal/derive"
)

// Reading kinds, used for labels and log fields.
const (
	KindCO2         = "co2"
	KindEnvironment = "environment"
)

// CO2Reading is one row of co2_data. Position 1 is the reactor inlet,
// position 3 the outlet.
type CO2Reading struct {
	ID                   int64      `json:"id,omitempty"`
	CreatedAt            *time.Time `json:"created_at,omitempty"`
	Position1PPM         float64    `json:"co2_position1_ppm"`
	Position2PPM         *float64   `json:"co2_position2_ppm"`
	Position3PPM         float64    `json:"co2_position3_ppm"`
	ReducedPPMInterval   float64    `json:"co2_reduced_ppm_interval"`
	EfficiencyPercentage float64    `json:"efficiency_percentage"`
	ReducedKg            float64    `json:"co2_reduced_kg"`
}

// EnvironmentReading is one row of environment_data.
type EnvironmentReading struct {
	ID               int64      `json:"id,omitempty"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
	PHWolffia        *float64   `json:"ph_wolffia"`
	PHShells         *float64   `json:"ph_shells"`
	TempSolarFront   *float64   `json:"temp_solar_front"`
	TempSolarRear    *float64   `json:"temp_solar_rear"`
	Voltage          float64    `json:"voltage"`
	CurrentMA        float64    `json:"current_ma"`
	Status           *string    `json:"status"`
	PowerW           float64    `json:"power_w"`
	EnergyWhInterval float64    `json:"energy_wh_interval"`
}

// CO2Submission is the body the device posts to the CO2 endpoint.
type CO2Submission struct {
	Position1PPM *float64 `json:"co2_position1_ppm"`
	Position2PPM *float64 `json:"co2_position2_ppm"`
	Position3PPM *float64 `json:"co2_position3_ppm"`
}

// Validate checks that the inlet and outlet readings are present.
func (s CO2Submission) Validate() error {
	var missing []string
	if s.Position1PPM == nil {
		missing = append(missing, "co2_position1_ppm")
	}
	if s.Position3PPM == nil {
		missing = append(missing, "co2_position3_ppm")
	}
	if len(missing) > 0 {
		return ValidationError{Message: "Missing required CO2 data", Fields: missing}
	}
	return nil
}

// Reading validates the submission and computes the derived fields.
func (s CO2Submission) Reading() (*CO2Reading, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	entry, exit := *s.Position1PPM, *s.Position3PPM
	reduced := derive.CO2ReducedPPM(entry, exit)

	r := &CO2Reading{
		Position1PPM:         entry,
		Position2PPM:         s.Position2PPM,
		Position3PPM:         exit,
		ReducedPPMInterval:   reduced,
		EfficiencyPercentage: derive.EfficiencyPercentage(entry, exit),
		ReducedKg:            derive.CO2ReducedKg(reduced),
	}
	if err := checkFinite(
		derived{"co2_reduced_ppm_interval", r.ReducedPPMInterval},
		derived{"efficiency_percentage", r.EfficiencyPercentage},
		derived{"co2_reduced_kg", r.ReducedKg},
	); err != nil {
		return nil, err
	}
	return r, nil
}

// EnvironmentSubmission is the body the device posts to the environment endpoint.
type EnvironmentSubmission struct {
	PHWolffia      *float64 `json:"ph_wolffia"`
	PHShells       *float64 `json:"ph_shells"`
	TempSolarFront *float64 `json:"temp_solar_front"`
	TempSolarRear  *float64 `json:"temp_solar_rear"`
	Voltage        *float64 `json:"voltage"`
	CurrentMA      *float64 `json:"current_ma"`
	Status         *string  `json:"status"`
}

// Validate checks that the electrical readings are present.
func (s EnvironmentSubmission) Validate() error {
	var missing []string
	if s.Voltage == nil {
		missing = append(missing, "voltage")
	}
	if s.CurrentMA == nil {
		missing = append(missing, "current_ma")
	}
	if len(missing) > 0 {
		return ValidationError{Message: "Missing required voltage or current data", Fields: missing}
	}
	return nil
}

// Reading validates the submission and computes power and interval energy
// for a sampling interval of intervalMinutes.
func (s EnvironmentSubmission) Reading(intervalMinutes float64) (*EnvironmentReading, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	power := derive.PowerW(*s.Voltage, *s.CurrentMA)

	r := &EnvironmentReading{
		PHWolffia:        s.PHWolffia,
		PHShells:         s.PHShells,
		TempSolarFront:   s.TempSolarFront,
		TempSolarRear:    s.TempSolarRear,
		Voltage:          *s.Voltage,
		CurrentMA:        *s.CurrentMA,
		Status:           s.Status,
		PowerW:           power,
		EnergyWhInterval: derive.EnergyWhInterval(power, intervalMinutes),
	}
	if err := checkFinite(
		derived{"power_w", r.PowerW},
		derived{"energy_wh_interval", r.EnergyWhInterval},
	); err != nil {
		return nil, err
	}
	return r, nil
}

type derived struct {
	field string
	value float64
}

// checkFinite rejects readings whose derived values overflow float64. Such
// rows cannot be encoded as JSON.
func checkFinite(values ...derived) error {
	var bad []string
	for _, v := range values {
		if math.IsInf(v.value, 0) || math.IsNaN(v.value) {
			bad = append(bad, v.field)
		}
	}
	if len(bad) > 0 {
		return ValidationError{Message: "Reading produces out-of-range derived values", Fields: bad}
	}
	return nil
}

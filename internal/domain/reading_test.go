package domain

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestCO2SubmissionReading(t *testing.T) {
	sub := CO2Submission{
		Position1PPM: ptr(800.0),
		Position3PPM: ptr(650.0),
	}

	reading, err := sub.Reading()
	require.NoError(t, err)

	assert.Equal(t, 800.0, reading.Position1PPM)
	assert.Nil(t, reading.Position2PPM)
	assert.Equal(t, 650.0, reading.Position3PPM)
	assert.Equal(t, 150.0, reading.ReducedPPMInterval)
	assert.Equal(t, 18.75, reading.EfficiencyPercentage)
	assert.InDelta(t, 3.051e-7, reading.ReducedKg, 1e-9)
}

func TestCO2SubmissionReadingZeroInlet(t *testing.T) {
	sub := CO2Submission{
		Position1PPM: ptr(0.0),
		Position2PPM: ptr(10.0),
		Position3PPM: ptr(20.0),
	}

	reading, err := sub.Reading()
	require.NoError(t, err)

	assert.Equal(t, 0.0, reading.EfficiencyPercentage)
	assert.Equal(t, -20.0, reading.ReducedPPMInterval)
	assert.Equal(t, 10.0, *reading.Position2PPM)
}

func TestCO2SubmissionMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		sub     CO2Submission
		missing []string
	}{
		{"empty", CO2Submission{}, []string{"co2_position1_ppm", "co2_position3_ppm"}},
		{"no outlet", CO2Submission{Position1PPM: ptr(800.0), Position2PPM: ptr(700.0)}, []string{"co2_position3_ppm"}},
		{"no inlet", CO2Submission{Position3PPM: ptr(650.0)}, []string{"co2_position1_ppm"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.sub.Reading()
			require.Error(t, err)
			assert.True(t, IsValidationError(err))

			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.missing, ve.Fields)
		})
	}
}

func TestCO2SubmissionNullIsMissing(t *testing.T) {
	var sub CO2Submission
	err := json.Unmarshal([]byte(`{"co2_position1_ppm": 800, "co2_position3_ppm": null}`), &sub)
	require.NoError(t, err)

	assert.True(t, IsValidationError(sub.Validate()))
}

func TestEnvironmentSubmissionReading(t *testing.T) {
	sub := EnvironmentSubmission{
		PHWolffia:      ptr(6.8),
		TempSolarFront: ptr(41.2),
		Voltage:        ptr(12.0),
		CurrentMA:      ptr(500.0),
		Status:         ptr("OK"),
	}

	reading, err := sub.Reading(10)
	require.NoError(t, err)

	assert.Equal(t, 6.0, reading.PowerW)
	assert.Equal(t, 6.0*(10.0/60), reading.EnergyWhInterval)
	assert.Equal(t, 6.8, *reading.PHWolffia)
	assert.Nil(t, reading.PHShells)
	assert.Nil(t, reading.TempSolarRear)
	assert.Equal(t, "OK", *reading.Status)
}

func TestEnvironmentSubmissionMissingFields(t *testing.T) {
	_, err := EnvironmentSubmission{Voltage: ptr(12.0)}.Reading(10)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"current_ma"}, ve.Fields)
	assert.Equal(t, "Missing required voltage or current data: current_ma", ve.Error())
}

func TestCO2ReadingJSONOmitsServerFields(t *testing.T) {
	reading, err := CO2Submission{Position1PPM: ptr(800.0), Position3PPM: ptr(650.0)}.Reading()
	require.NoError(t, err)

	data, err := json.Marshal(reading)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))

	assert.NotContains(t, fields, "id")
	assert.NotContains(t, fields, "created_at")
	assert.Contains(t, fields, "co2_position2_ppm")
	assert.Nil(t, fields["co2_position2_ppm"])
}

func TestIsValidationError(t *testing.T) {
	err := ValidationError{Message: "Missing required CO2 data", Fields: []string{"co2_position1_ppm"}}

	assert.True(t, IsValidationError(err))
	assert.True(t, IsValidationError(fmt.Errorf("decode: %w", err)))
	assert.False(t, IsValidationError(nil))
	assert.False(t, IsValidationError(assert.AnError))
}

func TestCO2SubmissionOverflowIsRejected(t *testing.T) {
	sub := CO2Submission{Position1PPM: ptr(1e308), Position3PPM: ptr(-1e308)}

	r, err := sub.Reading()
	require.Error(t, err)
	assert.Nil(t, r)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"co2_reduced_ppm_interval", "efficiency_percentage", "co2_reduced_kg"}, ve.Fields)
}

func TestEnvironmentSubmissionOverflowIsRejected(t *testing.T) {
	sub := EnvironmentSubmission{Voltage: ptr(1e300), CurrentMA: ptr(1e300)}

	_, err := sub.Reading(10)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"power_w", "energy_wh_interval"}, ve.Fields)
}

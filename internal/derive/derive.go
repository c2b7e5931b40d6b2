// Package derive converts raw bioreactor sensor fields into derived metrics.
//
// Every function here is plain float64 arithmetic with no rounding. Rows
// already stored upstream were produced with exactly these expressions, so
// the operation order must not change.
package derive

// CO2 mass conversion inputs.
const (
	MolarMassCO2  = 44.0    // g/mol
	MolarVolume   = 24.45   // L/mol at 25 °C, 1 atm
	AirVolumeM3   = 0.00113 // m³ of air sampled per interval
	PPMScale      = 1e-6
	MilliPerUnit  = 1000.0
	MinutesInHour = 60.0
)

// DefaultSamplingIntervalMinutes is how often the device reports.
const DefaultSamplingIntervalMinutes = 10.0

// Package-level variables keep the divisions below as runtime float64
// operations instead of exact constant folding.
var (
	molarMass   = MolarMassCO2
	molarVolume = MolarVolume
	airVolume   = AirVolumeM3
	ppmScale    = PPMScale
)

// CO2ReducedPPM returns the ppm removed between the entry and exit sensors.
func CO2ReducedPPM(entryPPM, exitPPM float64) float64 {
	return entryPPM - exitPPM
}

// CO2ReducedKg converts a ppm difference into kilograms of CO2.
func CO2ReducedKg(reducedPPM float64) float64 {
	return reducedPPM * (molarMass / molarVolume) * airVolume * ppmScale
}

// EfficiencyPercentage is the share of the entry CO2 removed by the reactor.
// It is 0 when the entry reading is not positive.
func EfficiencyPercentage(entryPPM, exitPPM float64) float64 {
	if entryPPM > 0 {
		return ((entryPPM - exitPPM) / entryPPM) * 100
	}
	return 0
}

// PowerW returns watts from volts and milliamps.
func PowerW(voltage, currentMA float64) float64 {
	return voltage * (currentMA / MilliPerUnit)
}

// EnergyWhInterval returns the watt-hours produced over one sampling interval.
func EnergyWhInterval(powerW, intervalMinutes float64) float64 {
	return powerW * (intervalMinutes / MinutesInHour)
}

// WhToKWh converts watt-hours to kilowatt-hours.
func WhToKWh(wh float64) float64 {
	return wh / MilliPerUnit
}

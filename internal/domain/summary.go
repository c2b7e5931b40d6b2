package domain

import "time"

// DailySummary is one row of daily_summary, unique per SummaryDate.
type DailySummary struct {
	ID                      int64      `json:"id,omitempty"`
	CreatedAt               *time.Time `json:"created_at,omitempty"`
	SummaryDate             string     `json:"summary_date"`
	TotalEnergyKWh          float64    `json:"total_energy_kwh"`
	AvgCO2ReducedPPM        *float64   `json:"avg_co2_reduced_ppm"`
	AvgEfficiencyPercentage *float64   `json:"avg_efficiency_percentage"`
	AvgPHWolffia            *float64   `json:"avg_ph_wolffia"`
	AvgPHShells             *float64   `json:"avg_ph_shells"`
	AvgTempSolarFront       *float64   `json:"avg_temp_solar_front"`
	WarningsCount           *int64     `json:"warnings_count"`
}

// DailyAggregate is the row returned by the get_daily_summary procedure.
type DailyAggregate struct {
	TotalEnergyKWh          *float64 `json:"final_total_energy_kwh"`
	AvgCO2ReducedPPM        *float64 `json:"final_avg_co2_reduced_ppm"`
	AvgEfficiencyPercentage *float64 `json:"final_avg_efficiency_percentage"`
	AvgPHWolffia            *float64 `json:"final_avg_ph_wolffia"`
	AvgPHShells             *float64 `json:"final_avg_ph_shells"`
	AvgTempSolarFront       *float64 `json:"final_avg_temp_solar_front"`
	WarningsCount           *int64   `json:"final_warnings_count"`
}

// IsEmpty reports whether the aggregate has nothing to summarize.
func (a DailyAggregate) IsEmpty() bool {
	return a.TotalEnergyKWh == nil
}

// Summary builds the daily_summary row for date. Callers check IsEmpty first.
func (a DailyAggregate) Summary(date string) *DailySummary {
	s := &DailySummary{
		SummaryDate:             date,
		AvgCO2ReducedPPM:        a.AvgCO2ReducedPPM,
		AvgEfficiencyPercentage: a.AvgEfficiencyPercentage,
		AvgPHWolffia:            a.AvgPHWolffia,
		AvgPHShells:             a.AvgPHShells,
		AvgTempSolarFront:       a.AvgTempSolarFront,
		WarningsCount:           a.WarningsCount,
	}
	if a.TotalEnergyKWh != nil {
		s.TotalEnergyKWh = *a.TotalEnergyKWh
	}
	return s
}

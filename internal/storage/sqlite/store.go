// Package sqlite provides a SQLite implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jwulff/bioreactor-go/internal/derive"
	"github.com/jwulff/bioreactor-go/internal/domain"
	"github.com/jwulff/bioreactor-go/internal/reportdate"
	"github.com/jwulff/bioreactor-go/internal/storage"

	_ "modernc.org/sqlite"
)

// Store is a SQLite implementation of storage.Store.
type Store struct {
	db  *sql.DB
	loc *time.Location
	now func() time.Time
}

// NewMemoryStore creates an in-memory SQLite store whose report days are
// civil days in loc.
func NewMemoryStore(loc *time.Location) (*Store, error) {
	return newStore(":memory:", loc)
}

// NewFileStore creates a file-based SQLite store.
func NewFileStore(path string, loc *time.Location) (*Store, error) {
	return newStore(path, loc)
}

func newStore(dsn string, loc *time.Location) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A second connection to :memory: would see an empty database.
	db.SetMaxOpenConns(1)

	if loc == nil {
		loc = reportdate.Zone(reportdate.DefaultOffset)
	}
	store := &Store{db: db, loc: loc, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reading methods

func (s *Store) InsertCO2Reading(ctx context.Context, reading *domain.CO2Reading) ([]domain.CO2Reading, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO co2_data (created_at, co2_position1_ppm, co2_position2_ppm, co2_position3_ppm,
			co2_reduced_ppm_interval, efficiency_percentage, co2_reduced_kg)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.now().UnixMilli(), reading.Position1PPM, reading.Position2PPM, reading.Position3PPM,
		reading.ReducedPPMInterval, reading.EfficiencyPercentage, reading.ReducedKg)
	if err != nil {
		return nil, storage.Upstream("insert "+storage.TableCO2, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storage.Upstream("insert "+storage.TableCO2, err)
	}

	saved, err := s.getCO2Reading(ctx, id)
	if err != nil {
		return nil, storage.Upstream("insert "+storage.TableCO2, err)
	}
	return []domain.CO2Reading{*saved}, nil
}

func (s *Store) getCO2Reading(ctx context.Context, id int64) (*domain.CO2Reading, error) {
	var r domain.CO2Reading
	var createdAt int64
	var position2 sql.NullFloat64

	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, co2_position1_ppm, co2_position2_ppm, co2_position3_ppm,
			co2_reduced_ppm_interval, efficiency_percentage, co2_reduced_kg
		FROM co2_data WHERE id = ?
	`, id).Scan(&r.ID, &createdAt, &r.Position1PPM, &position2, &r.Position3PPM,
		&r.ReducedPPMInterval, &r.EfficiencyPercentage, &r.ReducedKg)
	if err != nil {
		return nil, err
	}

	r.CreatedAt = fromMillis(createdAt)
	r.Position2PPM = nullFloat(position2)
	return &r, nil
}

func (s *Store) InsertEnvironmentReading(ctx context.Context, reading *domain.EnvironmentReading) ([]domain.EnvironmentReading, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO environment_data (created_at, ph_wolffia, ph_shells, temp_solar_front, temp_solar_rear,
			voltage, current_ma, status, power_w, energy_wh_interval)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.now().UnixMilli(), reading.PHWolffia, reading.PHShells, reading.TempSolarFront, reading.TempSolarRear,
		reading.Voltage, reading.CurrentMA, reading.Status, reading.PowerW, reading.EnergyWhInterval)
	if err != nil {
		return nil, storage.Upstream("insert "+storage.TableEnvironment, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storage.Upstream("insert "+storage.TableEnvironment, err)
	}

	saved, err := s.getEnvironmentReading(ctx, id)
	if err != nil {
		return nil, storage.Upstream("insert "+storage.TableEnvironment, err)
	}
	return []domain.EnvironmentReading{*saved}, nil
}

func (s *Store) getEnvironmentReading(ctx context.Context, id int64) (*domain.EnvironmentReading, error) {
	var r domain.EnvironmentReading
	var createdAt int64
	var phWolffia, phShells, tempFront, tempRear sql.NullFloat64
	var status sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, ph_wolffia, ph_shells, temp_solar_front, temp_solar_rear,
			voltage, current_ma, status, power_w, energy_wh_interval
		FROM environment_data WHERE id = ?
	`, id).Scan(&r.ID, &createdAt, &phWolffia, &phShells, &tempFront, &tempRear,
		&r.Voltage, &r.CurrentMA, &status, &r.PowerW, &r.EnergyWhInterval)
	if err != nil {
		return nil, err
	}

	r.CreatedAt = fromMillis(createdAt)
	r.PHWolffia = nullFloat(phWolffia)
	r.PHShells = nullFloat(phShells)
	r.TempSolarFront = nullFloat(tempFront)
	r.TempSolarRear = nullFloat(tempRear)
	if status.Valid {
		r.Status = &status.String
	}
	return &r, nil
}

// Daily summary methods

// DailyAggregate always yields one row; an empty day has a NULL total.
func (s *Store) DailyAggregate(ctx context.Context, date string) ([]domain.DailyAggregate, error) {
	start, end, err := reportdate.DayBounds(date, s.loc)
	if err != nil {
		return nil, err
	}

	var totalWh, co2, efficiency, phWolffia, phShells, tempFront sql.NullFloat64
	var warnings int64
	err = s.db.QueryRowContext(ctx, dailyAggregateQuery, start.UnixMilli(), end.UnixMilli()).
		Scan(&totalWh, &co2, &efficiency, &phWolffia, &phShells, &tempFront, &warnings)
	if err != nil {
		return nil, storage.Upstream("rpc "+storage.ProcedureDailySummary, err)
	}

	return []domain.DailyAggregate{{
		TotalEnergyKWh:          totalKWh(totalWh),
		AvgCO2ReducedPPM:        nullFloat(co2),
		AvgEfficiencyPercentage: nullFloat(efficiency),
		AvgPHWolffia:            nullFloat(phWolffia),
		AvgPHShells:             nullFloat(phShells),
		AvgTempSolarFront:       nullFloat(tempFront),
		WarningsCount:           &warnings,
	}}, nil
}

func (s *Store) UpsertDailySummary(ctx context.Context, summary *domain.DailySummary) ([]domain.DailySummary, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_summary (created_at, summary_date, total_energy_kwh, avg_co2_reduced_ppm,
			avg_efficiency_percentage, avg_ph_wolffia, avg_ph_shells, avg_temp_solar_front, warnings_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(summary_date) DO UPDATE SET
			total_energy_kwh = excluded.total_energy_kwh,
			avg_co2_reduced_ppm = excluded.avg_co2_reduced_ppm,
			avg_efficiency_percentage = excluded.avg_efficiency_percentage,
			avg_ph_wolffia = excluded.avg_ph_wolffia,
			avg_ph_shells = excluded.avg_ph_shells,
			avg_temp_solar_front = excluded.avg_temp_solar_front,
			warnings_count = excluded.warnings_count
	`, s.now().UnixMilli(), summary.SummaryDate, summary.TotalEnergyKWh, summary.AvgCO2ReducedPPM,
		summary.AvgEfficiencyPercentage, summary.AvgPHWolffia, summary.AvgPHShells,
		summary.AvgTempSolarFront, summary.WarningsCount)
	if err != nil {
		return nil, storage.Upstream("upsert "+storage.TableDailySummary, err)
	}

	saved, err := s.GetDailySummary(ctx, summary.SummaryDate)
	if err != nil {
		return nil, storage.Upstream("upsert "+storage.TableDailySummary, err)
	}
	return []domain.DailySummary{*saved}, nil
}

func (s *Store) GetDailySummary(ctx context.Context, date string) (*domain.DailySummary, error) {
	var d domain.DailySummary
	var createdAt int64
	var co2, efficiency, phWolffia, phShells, tempFront sql.NullFloat64
	var warnings sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, summary_date, total_energy_kwh, avg_co2_reduced_ppm,
			avg_efficiency_percentage, avg_ph_wolffia, avg_ph_shells, avg_temp_solar_front, warnings_count
		FROM daily_summary WHERE summary_date = ?
	`, date).Scan(&d.ID, &createdAt, &d.SummaryDate, &d.TotalEnergyKWh, &co2,
		&efficiency, &phWolffia, &phShells, &tempFront, &warnings)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound{Resource: storage.TableDailySummary, ID: date}
	}
	if err != nil {
		return nil, storage.Upstream("select "+storage.TableDailySummary, err)
	}

	d.CreatedAt = fromMillis(createdAt)
	d.AvgCO2ReducedPPM = nullFloat(co2)
	d.AvgEfficiencyPercentage = nullFloat(efficiency)
	d.AvgPHWolffia = nullFloat(phWolffia)
	d.AvgPHShells = nullFloat(phShells)
	d.AvgTempSolarFront = nullFloat(tempFront)
	if warnings.Valid {
		d.WarningsCount = &warnings.Int64
	}
	return &d, nil
}

func totalKWh(wh sql.NullFloat64) *float64 {
	if !wh.Valid {
		return nil
	}
	kwh := derive.WhToKWh(wh.Float64)
	return &kwh
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func fromMillis(ms int64) *time.Time {
	t := time.UnixMilli(ms).UTC()
	return &t
}

// Verify interface compliance
var _ storage.Store = (*Store)(nil)

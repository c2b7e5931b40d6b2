package sqlite

// schema contains the database schema DDL. Timestamps are unix milliseconds.
const schema = `
-- CO2 readings
CREATE TABLE IF NOT EXISTS co2_data (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at INTEGER NOT NULL,
    co2_position1_ppm REAL NOT NULL,
    co2_position2_ppm REAL,
    co2_position3_ppm REAL NOT NULL,
    co2_reduced_ppm_interval REAL NOT NULL,
    efficiency_percentage REAL NOT NULL,
    co2_reduced_kg REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_co2_data_created_at ON co2_data(created_at);

-- Environment readings
CREATE TABLE IF NOT EXISTS environment_data (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at INTEGER NOT NULL,
    ph_wolffia REAL,
    ph_shells REAL,
    temp_solar_front REAL,
    temp_solar_rear REAL,
    voltage REAL NOT NULL,
    current_ma REAL NOT NULL,
    status TEXT,
    power_w REAL NOT NULL,
    energy_wh_interval REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_environment_data_created_at ON environment_data(created_at);

-- Daily summaries
CREATE TABLE IF NOT EXISTS daily_summary (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at INTEGER NOT NULL,
    summary_date TEXT NOT NULL UNIQUE,
    total_energy_kwh REAL NOT NULL,
    avg_co2_reduced_ppm REAL,
    avg_efficiency_percentage REAL,
    avg_ph_wolffia REAL,
    avg_ph_shells REAL,
    avg_temp_solar_front REAL,
    warnings_count INTEGER
);
`

// dailyAggregateQuery is the local equivalent of get_daily_summary. Every
// subquery is bounded by [start, end) in unix milliseconds. Energy is
// summed in Wh; the store converts it to kWh.
const dailyAggregateQuery = `
SELECT
    (SELECT SUM(energy_wh_interval) FROM environment_data
        WHERE created_at >= ?1 AND created_at < ?2),
    (SELECT AVG(co2_reduced_ppm_interval) FROM co2_data
        WHERE created_at >= ?1 AND created_at < ?2),
    (SELECT AVG(efficiency_percentage) FROM co2_data
        WHERE created_at >= ?1 AND created_at < ?2),
    (SELECT AVG(ph_wolffia) FROM environment_data
        WHERE created_at >= ?1 AND created_at < ?2),
    (SELECT AVG(ph_shells) FROM environment_data
        WHERE created_at >= ?1 AND created_at < ?2),
    (SELECT AVG(temp_solar_front) FROM environment_data
        WHERE created_at >= ?1 AND created_at < ?2),
    (SELECT COUNT(*) FROM environment_data
        WHERE created_at >= ?1 AND created_at < ?2
        AND status IS NOT NULL AND status <> '' AND UPPER(status) <> 'OK')
`

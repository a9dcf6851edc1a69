// Package store persists metrics, collector state, settings and
// threshold rules in a local SQLite database.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/playok/metricd/internal/metric"
	"github.com/playok/metricd/internal/threshold"
)

// Store provides database operations.
type Store struct {
	db     *sql.DB
	dbPath string
}

// New opens (or creates) the SQLite database and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite single-writer
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return &Store{db: db, dbPath: dbPath}, nil
}

// DBPath returns the database file path.
func (s *Store) DBPath() string { return s.dbPath }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// MetricRow is one persisted metric as returned by queries.
type MetricRow struct {
	ID       int64             `json:"id,omitempty"`
	Time     int64             `json:"time"`
	Interval int64             `json:"interval,omitempty"`
	Name     string            `json:"name"`
	Plugin   string            `json:"plugin"`
	Type     string            `json:"type"`
	DSName   string            `json:"ds_name"`
	Kind     string            `json:"kind"`
	Value    float64           `json:"value"`
	Labels   map[string]string `json:"labels,omitempty"`
}

// InsertMetric persists one metric. The identity labels are flattened
// to a JSON object.
func (s *Store) InsertMetric(m *metric.Metric) error {
	labels, err := labelsJSON(m)
	if err != nil {
		return err
	}
	name := ""
	if m.Identity != nil {
		name = m.Identity.Name
	}
	_, err = s.db.Exec(
		"INSERT INTO metrics (time, interval, name, plugin, type, ds_name, kind, value, labels) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		int64(m.Time), int64(m.Interval), name, m.Plugin, m.Type, m.DSName,
		m.Kind.String(), m.Value.Float(m.Kind), labels)
	return err
}

// InsertMetrics batch-inserts metrics in one transaction.
func (s *Store) InsertMetrics(metrics []*metric.Metric) error {
	if len(metrics) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT INTO metrics (time, interval, name, plugin, type, ds_name, kind, value, labels) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, m := range metrics {
		labels, err := labelsJSON(m)
		if err != nil {
			tx.Rollback()
			return err
		}
		name := ""
		if m.Identity != nil {
			name = m.Identity.Name
		}
		if _, err := stmt.Exec(int64(m.Time), int64(m.Interval), name, m.Plugin,
			m.Type, m.DSName, m.Kind.String(), m.Value.Float(m.Kind), labels); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func labelsJSON(m *metric.Metric) (string, error) {
	labels := map[string]string{}
	if m.Identity != nil && m.Identity.Labels != nil {
		m.Identity.Labels.Each(func(key, value string, ok bool) bool {
			if ok {
				labels[key] = value
			}
			return true
		})
	}
	for k, v := range m.Meta {
		labels[k] = v
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return "", fmt.Errorf("marshal labels: %w", err)
	}
	return string(data), nil
}

// QueryMetrics retrieves metrics by identity name with optional
// downsampling. step is in seconds; if step > 0, values are averaged
// per step.
func (s *Store) QueryMetrics(name string, from, to int64, step int) ([]MetricRow, error) {
	var rows *sql.Rows
	var err error

	if step > 0 {
		stepNs := int64(step) * int64(time.Second)
		rows, err = s.db.Query(`
			SELECT 0, (time / ? * ?) as ts, 0, name, plugin, type, ds_name, kind, AVG(value), labels
			FROM metrics
			WHERE name = ? AND time >= ? AND time <= ?
			GROUP BY ts
			ORDER BY ts`,
			stepNs, stepNs, name, from, to)
	} else {
		rows, err = s.db.Query(`
			SELECT id, time, interval, name, plugin, type, ds_name, kind, value, labels
			FROM metrics
			WHERE name = ? AND time >= ? AND time <= ?
			ORDER BY time`,
			name, from, to)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MetricRow
	for rows.Next() {
		var r MetricRow
		var labels string
		if err := rows.Scan(&r.ID, &r.Time, &r.Interval, &r.Name, &r.Plugin,
			&r.Type, &r.DSName, &r.Kind, &r.Value, &labels); err != nil {
			return nil, err
		}
		if labels != "" {
			json.Unmarshal([]byte(labels), &r.Labels)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// DistinctMetrics returns all distinct (plugin, name) pairs seen so far.
func (s *Store) DistinctMetrics() ([][2]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT plugin, name FROM metrics ORDER BY plugin, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result [][2]string
	for rows.Next() {
		var pair [2]string
		if err := rows.Scan(&pair[0], &pair[1]); err != nil {
			return nil, err
		}
		result = append(result, pair)
	}
	return result, rows.Err()
}

// PurgeOlderThan removes metrics older than the given number of hours.
func (s *Store) PurgeOlderThan(hours int) (int64, error) {
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour).UnixNano()
	res, err := s.db.Exec("DELETE FROM metrics WHERE time < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// --- Collector State ---

// SetCollectorEnabled sets the enabled state of a collector.
func (s *Store) SetCollectorEnabled(id string, enabled bool) error {
	enabledInt := 0
	if enabled {
		enabledInt = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO collector_state (collector_id, enabled) VALUES (?, ?)
		ON CONFLICT(collector_id) DO UPDATE SET enabled = excluded.enabled`,
		id, enabledInt)
	return err
}

// CollectorStates returns the saved enabled state per collector.
func (s *Store) CollectorStates() (map[string]bool, error) {
	rows, err := s.db.Query("SELECT collector_id, enabled FROM collector_state")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make(map[string]bool)
	for rows.Next() {
		var id string
		var enabled int
		if err := rows.Scan(&id, &enabled); err != nil {
			return nil, err
		}
		result[id] = enabled != 0
	}
	return result, rows.Err()
}

// --- Settings ---

// GetSetting returns a setting value, or "" if unset.
func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return val, err
}

// AllSettings returns every stored setting.
func (s *Store) AllSettings() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		result[k] = v
	}
	return result, rows.Err()
}

// SetSetting upserts a setting.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// --- Threshold Rules ---

// ThresholdRule is one persisted threshold record plus its row identity.
type ThresholdRule struct {
	ID      int64 `json:"id"`
	Enabled bool  `json:"enabled"`
	threshold.Threshold
}

// ListThresholdRules returns all rules ordered by ID.
func (s *Store) ListThresholdRules() ([]ThresholdRule, error) {
	rows, err := s.db.Query(`
		SELECT id, host, plugin, type, data_source,
		       warning_min, warning_max, failure_min, failure_max,
		       hysteresis, hits, invert, persist, enabled
		FROM threshold_rules ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ThresholdRule
	for rows.Next() {
		var r ThresholdRule
		var wmin, wmax, fmin, fmax sql.NullFloat64
		var invert, persist, enabled int
		if err := rows.Scan(&r.ID, &r.Host, &r.Plugin, &r.Type, &r.DataSource,
			&wmin, &wmax, &fmin, &fmax, &r.Hysteresis, &r.Hits,
			&invert, &persist, &enabled); err != nil {
			return nil, err
		}
		r.WarningMin = nullToNaN(wmin)
		r.WarningMax = nullToNaN(wmax)
		r.FailureMin = nullToNaN(fmin)
		r.FailureMax = nullToNaN(fmax)
		r.Invert = invert != 0
		r.Persist = persist != 0
		r.Enabled = enabled != 0
		result = append(result, r)
	}
	return result, rows.Err()
}

// CreateThresholdRule inserts a rule and returns its ID.
func (s *Store) CreateThresholdRule(r *ThresholdRule) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO threshold_rules
		(host, plugin, type, data_source, warning_min, warning_max, failure_min, failure_max, hysteresis, hits, invert, persist, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Host, r.Plugin, r.Type, r.DataSource,
		naNToNull(r.WarningMin), naNToNull(r.WarningMax),
		naNToNull(r.FailureMin), naNToNull(r.FailureMax),
		r.Hysteresis, r.Hits, boolInt(r.Invert), boolInt(r.Persist), boolInt(r.Enabled))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateThresholdRule updates an existing rule.
func (s *Store) UpdateThresholdRule(r *ThresholdRule) error {
	_, err := s.db.Exec(`
		UPDATE threshold_rules SET
		host=?, plugin=?, type=?, data_source=?,
		warning_min=?, warning_max=?, failure_min=?, failure_max=?,
		hysteresis=?, hits=?, invert=?, persist=?, enabled=?
		WHERE id=?`,
		r.Host, r.Plugin, r.Type, r.DataSource,
		naNToNull(r.WarningMin), naNToNull(r.WarningMax),
		naNToNull(r.FailureMin), naNToNull(r.FailureMax),
		r.Hysteresis, r.Hits, boolInt(r.Invert), boolInt(r.Persist), boolInt(r.Enabled),
		r.ID)
	return err
}

// DeleteThresholdRule deletes a rule by ID.
func (s *Store) DeleteThresholdRule(id int64) error {
	_, err := s.db.Exec("DELETE FROM threshold_rules WHERE id = ?", id)
	return err
}

// LoadThresholds inserts every enabled rule into the registry.
func (s *Store) LoadThresholds(reg *threshold.Registry) (int, error) {
	rules, err := s.ListThresholdRules()
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range rules {
		if !rules[i].Enabled {
			continue
		}
		th := rules[i].Threshold
		reg.Insert(&th)
		n++
	}
	return n, nil
}

func nullToNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func naNToNull(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

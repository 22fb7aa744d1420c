// Package sqlstore holds the queries shared by the sqlite and postgres
// stores. Queries are written with ? placeholders and rebound per dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/trainplan/internal/migration"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/planner"
)

// Queries implements the data methods of storage.Provider over a *sql.DB
type Queries struct {
	db       *sql.DB
	dialect  migration.Dialect
	isUnique func(error) bool
}

// New wraps db. isUnique reports whether a driver error is a unique
// constraint violation.
func New(db *sql.DB, dialect migration.Dialect, isUnique func(error) bool) *Queries {
	return &Queries{db: db, dialect: dialect, isUnique: isUnique}
}

// DB returns the underlying connection
func (q *Queries) DB() *sql.DB {
	return q.db
}

// rebind rewrites ? placeholders as $1..$n for postgres
func (q *Queries) rebind(query string) string {
	if q.dialect != migration.Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (q *Queries) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.rebind(query), args...)
}

func (q *Queries) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.rebind(query), args...)
}

func (q *Queries) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return q.db.QueryRowContext(ctx, q.rebind(query), args...)
}

func encodeZones(z []float64) (sql.NullString, error) {
	if len(z) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(z)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeZones(raw sql.NullString) ([]float64, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var z []float64
	if err := json.Unmarshal([]byte(raw.String), &z); err != nil {
		return nil, err
	}
	return z, nil
}

const upsertActivity = `
	INSERT INTO activities (id, date, activity_category, duration_seconds, training_stress_score, hr_zone_seconds, power_zone_seconds)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		date = excluded.date,
		activity_category = excluded.activity_category,
		duration_seconds = excluded.duration_seconds,
		training_stress_score = excluded.training_stress_score,
		hr_zone_seconds = excluded.hr_zone_seconds,
		power_zone_seconds = excluded.power_zone_seconds`

// AddActivities upserts records by id in one transaction and returns how
// many were written.
func (q *Queries) AddActivities(ctx context.Context, records []models.ActivityRecord) (int, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, q.rebind(upsertActivity))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare activity insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		hr, err := encodeZones(r.HRZoneSeconds)
		if err != nil {
			return 0, fmt.Errorf("activity %d: %w", i, err)
		}
		power, err := encodeZones(r.PowerZoneSeconds)
		if err != nil {
			return 0, fmt.Errorf("activity %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Date, r.ActivityCategory, r.DurationSeconds, r.TrainingStressScore, hr, power); err != nil {
			return 0, fmt.Errorf("failed to save activity %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (q *Queries) GetActivities(ctx context.Context, startDay, endDay string) ([]models.ActivityRecord, error) {
	rows, err := q.query(ctx, `
		SELECT id, date, activity_category, duration_seconds, training_stress_score, hr_zone_seconds, power_zone_seconds
		FROM activities WHERE date >= ? AND date <= ? ORDER BY date, id`, startDay, endDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ActivityRecord
	for rows.Next() {
		var r models.ActivityRecord
		var hr, power sql.NullString
		if err := rows.Scan(&r.ID, &r.Date, &r.ActivityCategory, &r.DurationSeconds, &r.TrainingStressScore, &hr, &power); err != nil {
			return nil, err
		}
		if r.HRZoneSeconds, err = decodeZones(hr); err != nil {
			return nil, fmt.Errorf("activity %s hr zones: %w", r.ID, err)
		}
		if r.PowerZoneSeconds, err = decodeZones(power); err != nil {
			return nil, fmt.Errorf("activity %s power zones: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *Queries) AddEffortBest(ctx context.Context, best models.EffortBest) error {
	_, err := q.exec(ctx, `
		INSERT INTO effort_bests (id, date, activity_category, distance_m, duration_s)
		VALUES (?, ?, ?, ?, ?)`,
		best.ID, best.Date, best.ActivityCategory, best.DistanceM, best.DurationS)
	return err
}

func (q *Queries) GetEffortBests(ctx context.Context) ([]models.EffortBest, error) {
	rows, err := q.query(ctx, "SELECT id, date, activity_category, distance_m, duration_s FROM effort_bests ORDER BY date, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EffortBest
	for rows.Next() {
		var b models.EffortBest
		if err := rows.Scan(&b.ID, &b.Date, &b.ActivityCategory, &b.DistanceM, &b.DurationS); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetProfile returns an empty profile when none was saved
func (q *Queries) GetProfile(ctx context.Context) (models.Profile, error) {
	var p models.Profile
	err := q.queryRow(ctx, "SELECT dob, gender FROM profile WHERE id = 1").Scan(&p.DOB, &p.Gender)
	if stderrors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, nil
	}
	return p, err
}

func (q *Queries) SaveProfile(ctx context.Context, profile models.Profile) error {
	_, err := q.exec(ctx, `
		INSERT INTO profile (id, dob, gender) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET dob = excluded.dob, gender = excluded.gender`,
		profile.DOB, profile.Gender)
	return err
}

func (q *Queries) AddActivityPlan(ctx context.Context, ap models.ActivityPlan) error {
	_, err := q.exec(ctx, `
		INSERT INTO activity_plans (id, name, activity_category, estimated_tss, intensity)
		VALUES (?, ?, ?, ?, ?)`,
		ap.ID, ap.Name, ap.ActivityCategory, ap.EstimatedTSS, ap.Intensity)
	return err
}

func (q *Queries) GetActivityPlan(ctx context.Context, id string) (models.ActivityPlan, error) {
	var ap models.ActivityPlan
	err := q.queryRow(ctx, "SELECT id, name, activity_category, estimated_tss, intensity FROM activity_plans WHERE id = ?", id).
		Scan(&ap.ID, &ap.Name, &ap.ActivityCategory, &ap.EstimatedTSS, &ap.Intensity)
	if stderrors.Is(err, sql.ErrNoRows) {
		return models.ActivityPlan{}, planner.ErrNotFound
	}
	return ap, err
}

func (q *Queries) ListActivityPlans(ctx context.Context) ([]models.ActivityPlan, error) {
	rows, err := q.query(ctx, "SELECT id, name, activity_category, estimated_tss, intensity FROM activity_plans ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ActivityPlan
	for rows.Next() {
		var ap models.ActivityPlan
		if err := rows.Scan(&ap.ID, &ap.Name, &ap.ActivityCategory, &ap.EstimatedTSS, &ap.Intensity); err != nil {
			return nil, err
		}
		out = append(out, ap)
	}
	return out, rows.Err()
}

// SavePlan stores the document as JSON. An empty token is stored as NULL so
// direct creates never collide.
func (q *Queries) SavePlan(ctx context.Context, doc models.PlanDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	token := sql.NullString{String: doc.SnapshotToken, Valid: doc.SnapshotToken != ""}

	_, err = q.exec(ctx, `
		INSERT INTO plans (id, created_at, snapshot_token, plan_start_date, end_date, feasibility_state, doc)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.CreatedAt, token, doc.MinimalPlan.PlanStartDate, doc.ProjectionChart.EndDate,
		string(doc.ProjectionFeasibility.State), string(body))
	if err != nil {
		if token.Valid && q.isUnique != nil && q.isUnique(err) {
			return fmt.Errorf("%w: %v", planner.ErrSnapshotConsumed, err)
		}
		return err
	}
	return nil
}

func (q *Queries) GetPlan(ctx context.Context, id string) (models.PlanDocument, error) {
	var body []byte
	err := q.queryRow(ctx, "SELECT doc FROM plans WHERE id = ?", id).Scan(&body)
	if stderrors.Is(err, sql.ErrNoRows) {
		return models.PlanDocument{}, planner.ErrNotFound
	}
	if err != nil {
		return models.PlanDocument{}, err
	}
	var doc models.PlanDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return models.PlanDocument{}, fmt.Errorf("failed to decode plan %s: %w", id, err)
	}
	return doc, nil
}

// ListPlans returns plans newest first
func (q *Queries) ListPlans(ctx context.Context) ([]models.PlanSummary, error) {
	rows, err := q.query(ctx, "SELECT id, created_at, plan_start_date, end_date, feasibility_state FROM plans ORDER BY created_at DESC, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PlanSummary
	for rows.Next() {
		var p models.PlanSummary
		var state string
		if err := rows.Scan(&p.ID, &p.CreatedAt, &p.PlanStartDate, &p.EndDate, &state); err != nil {
			return nil, err
		}
		p.FeasibilityState = models.FeasibilityState(state)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q *Queries) GetScheduledActivities(ctx context.Context, planID string) ([]models.ScheduledActivity, error) {
	rows, err := q.query(ctx, `
		SELECT id, plan_id, activity_plan_id, date, estimated_tss, intensity
		FROM scheduled_activities WHERE plan_id = ? ORDER BY date, id`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScheduledActivity
	for rows.Next() {
		var a models.ScheduledActivity
		if err := rows.Scan(&a.ID, &a.PlanID, &a.ActivityPlanID, &a.Date, &a.EstimatedTSS, &a.Intensity); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (q *Queries) AddScheduledActivity(ctx context.Context, a models.ScheduledActivity) error {
	_, err := q.exec(ctx, `
		INSERT INTO scheduled_activities (id, plan_id, activity_plan_id, date, estimated_tss, intensity)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.PlanID, a.ActivityPlanID, a.Date, a.EstimatedTSS, a.Intensity)
	return err
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Alert is a saved search re-run by the background job on a fixed
// interval. Criteria is the serialized search request, replayed verbatim.
type Alert struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Criteria  string `json:"criteria"`
	Active    bool   `json:"active"`
	LastRunAt string `json:"last_run_at"`
	CreatedAt string `json:"created_at"`
}

func InsertAlert(ctx context.Context, db *sql.DB, email, name, criteriaJSON string) (int64, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO alerts (email, name, criteria) VALUES (?,?,?);`,
		email, name, criteriaJSON,
	)
	if err != nil {
		return 0, fmt.Errorf("insert alert: %w", err)
	}
	return res.LastInsertId()
}

func ListAlerts(ctx context.Context, db *sql.DB) ([]Alert, error) {
	return queryAlerts(ctx, db, `
SELECT id, email, name, criteria, active, last_run_at, created_at
FROM alerts ORDER BY created_at DESC;`)
}

func ListActiveAlerts(ctx context.Context, db *sql.DB) ([]Alert, error) {
	return queryAlerts(ctx, db, `
SELECT id, email, name, criteria, active, last_run_at, created_at
FROM alerts WHERE active = 1 ORDER BY id;`)
}

func queryAlerts(ctx context.Context, db *sql.DB, query string) ([]Alert, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var out []Alert
	for rows.Next() {
		var a Alert
		var active int
		if err := rows.Scan(&a.ID, &a.Email, &a.Name, &a.Criteria, &active, &a.LastRunAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Active = active != 0
		out = append(out, a)
	}
	return out, rows.Err()
}

func DeleteAlert(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM alerts WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// TouchAlertRun records when an alert last executed; its own short-lived
// statement so the background job never holds the interactive path up.
func TouchAlertRun(ctx context.Context, db *sql.DB, id int64, at time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE alerts SET last_run_at = ? WHERE id = ?;`,
		at.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("touch alert run: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"habita-engine/internal/domain"
)

// Favorite is a Listing pinned by the user, plus storage bookkeeping.
// The mixed-type listing fields are stringified at the boundary; filters
// never run on favorites, so nothing downstream needs the raw values.
type Favorite struct {
	ID             int64    `json:"id"`
	Source         string   `json:"source"`
	Title          string   `json:"title"`
	Neighborhood   string   `json:"neighborhood"`
	City           string   `json:"city"`
	Price          *int64   `json:"price,omitempty"`
	PriceFormatted string   `json:"price_formatted"`
	Area           *float64 `json:"area,omitempty"`
	PricePerArea   *int64   `json:"price_per_area,omitempty"`
	Bedrooms       string   `json:"bedrooms"`
	Bathrooms      string   `json:"bathrooms"`
	Parking        string   `json:"parking"`
	Stratum        string   `json:"stratum"`
	Description    string   `json:"description"`
	URL            string   `json:"url"`
	Image          string   `json:"image"`
	AIScore        *float64 `json:"ai_score,omitempty"`
	AISummary      string   `json:"ai_summary"`
	InTopN         bool     `json:"in_top_n"`
	TopNReason     string   `json:"top_n_reason"`
	SavedAt        string   `json:"saved_at"`
}

func InsertFavorite(ctx context.Context, db *sql.DB, l domain.Listing) (int64, error) {
	res, err := db.ExecContext(ctx, `
INSERT INTO favorites (source, title, neighborhood, city, price, price_formatted, area, price_per_area,
                       bedrooms, bathrooms, parking, stratum, description, url, image,
                       ai_score, ai_summary, in_top_n, top_n_reason)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?);`,
		l.Source, l.Title, l.Neighborhood, l.City, l.Price, l.PriceFormatted, l.Area, l.PricePerArea,
		rawString(l.Bedrooms), rawString(l.Bathrooms), rawString(l.Parking), rawString(l.Stratum),
		l.Description, l.URL, l.Image,
		l.AIScore, l.AISummary, boolToInt(l.InTopN), l.TopNReason,
	)
	if err != nil {
		return 0, fmt.Errorf("insert favorite: %w", err)
	}
	return res.LastInsertId()
}

func ListFavorites(ctx context.Context, db *sql.DB) ([]Favorite, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, source, title, neighborhood, city, price, price_formatted, area, price_per_area,
       bedrooms, bathrooms, parking, stratum, description, url, image,
       ai_score, ai_summary, in_top_n, top_n_reason, saved_at
FROM favorites
ORDER BY saved_at DESC;`)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var out []Favorite
	for rows.Next() {
		var f Favorite
		var inTopN int
		if err := rows.Scan(
			&f.ID, &f.Source, &f.Title, &f.Neighborhood, &f.City, &f.Price, &f.PriceFormatted,
			&f.Area, &f.PricePerArea, &f.Bedrooms, &f.Bathrooms, &f.Parking, &f.Stratum,
			&f.Description, &f.URL, &f.Image, &f.AIScore, &f.AISummary, &inTopN, &f.TopNReason, &f.SavedAt,
		); err != nil {
			return nil, err
		}
		f.InTopN = inTopN != 0
		out = append(out, f)
	}
	return out, rows.Err()
}

func DeleteFavorite(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM favorites WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func rawString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

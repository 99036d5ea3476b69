package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yourorg/domus-api/internal/listing"
)

// SavedItem is one saved id. Property is nil when the listing was never
// stored, e.g. an id saved from a client-side result set.
type SavedItem struct {
	ID       string            `json:"id"`
	SavedAt  time.Time         `json:"savedAt"`
	Property *listing.Property `json:"property,omitempty"`
}

// SaveProperty is idempotent.
func (s *Store) SaveProperty(ctx context.Context, email, propertyID string) error {
	_, err := s.DB.ExecContext(ctx, `
        INSERT INTO saved_properties (user_email, property_id)
        VALUES ($1,$2)
        ON CONFLICT (user_email, property_id) DO NOTHING`, email, propertyID)
	return err
}

// UnsaveProperty is idempotent.
func (s *Store) UnsaveProperty(ctx context.Context, email, propertyID string) error {
	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM saved_properties WHERE user_email=$1 AND property_id=$2`, email, propertyID)
	return err
}

// ToggleSaved flips the saved state of propertyID and returns the new state.
func (s *Store) ToggleSaved(ctx context.Context, email, propertyID string) (bool, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM saved_properties WHERE user_email=$1 AND property_id=$2`, email, propertyID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	saved := n == 0
	if saved {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO saved_properties (user_email, property_id) VALUES ($1,$2)`, email, propertyID); err != nil {
			return false, err
		}
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	return saved, nil
}

func (s *Store) IsSaved(ctx context.Context, email, propertyID string) (bool, error) {
	var ok bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM saved_properties WHERE user_email=$1 AND property_id=$2)`,
		email, propertyID).Scan(&ok)
	return ok, err
}

// SavedPropertyIDs lists the saved ids, most recently saved first.
func (s *Store) SavedPropertyIDs(ctx context.Context, email string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT property_id FROM saved_properties WHERE user_email=$1 ORDER BY saved_at DESC, property_id`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SavedProperties lists the saved ids with their stored listings.
func (s *Store) SavedProperties(ctx context.Context, email string) ([]SavedItem, error) {
	rows, err := s.DB.QueryContext(ctx, `
        SELECT sp.property_id, sp.saved_at, p.payload
        FROM saved_properties sp
        LEFT JOIN LATERAL (
            SELECT payload FROM properties
            WHERE id = sp.property_id
            ORDER BY updated_at DESC LIMIT 1
        ) p ON true
        WHERE sp.user_email=$1
        ORDER BY sp.saved_at DESC, sp.property_id`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []SavedItem{}
	for rows.Next() {
		var it SavedItem
		var payload []byte
		if err := rows.Scan(&it.ID, &it.SavedAt, &payload); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			var p listing.Property
			if err := json.Unmarshal(payload, &p); err != nil {
				return nil, err
			}
			it.Property = &p
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// README: Pricing store backed by PostgreSQL.
package pricing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"navette/internal/modules/directory"
)

var ErrNoRate = errors.New("pricing: no rate configured")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetRate(ctx context.Context, vehicleType directory.VehicleType) (Rate, error) {
	var r Rate
	err := s.db.QueryRow(ctx, `
		SELECT vehicle_type, base_cents, per_km_cents, currency
		FROM pricing_rates
		WHERE vehicle_type = $1`, string(vehicleType),
	).Scan(&r.VehicleType, &r.BaseCents, &r.PerKmCents, &r.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rate{}, ErrNoRate
	}
	if err != nil {
		return Rate{}, err
	}
	return r, nil
}

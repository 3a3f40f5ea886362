// README: Directory store backed by PostgreSQL.
package directory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"navette/internal/types"
)

var ErrNotFound = errors.New("directory: not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) FilterVehicles(ctx context.Context, q VehicleQuery) ([]Vehicle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, company_id, brand, model, capacity, vehicle_type, location, status, photo_url
		FROM vehicles
		WHERE status = 'available'
		  AND lower(location) = lower($1)
		  AND capacity >= $2
		  AND ($3::text IS NULL OR company_id = $3)
		  AND ($4::text IS NULL OR vehicle_type = $4)
		ORDER BY id`,
		types.NormalizePlace(q.Location),
		q.MinCapacity,
		idParam(q.CompanyID),
		typeParam(q.Type),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) FilterDrivers(ctx context.Context, q DriverQuery) ([]Driver, error) {
	rows, err := s.db.Query(ctx, `
		SELECT d.id, d.company_id, d.name, d.city, d.available, d.rating,
		       COALESCE(array_agg(dq.vehicle_type) FILTER (WHERE dq.vehicle_type IS NOT NULL), '{}')
		FROM drivers d
		LEFT JOIN driver_qualifications dq ON dq.driver_id = d.id
		WHERE d.available
		  AND lower(d.city) = lower($1)
		  AND ($2::text IS NULL OR d.company_id = $2)
		GROUP BY d.id, d.company_id, d.name, d.city, d.available, d.rating
		ORDER BY d.id`,
		types.NormalizePlace(q.City),
		idParam(q.CompanyID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Driver
	for rows.Next() {
		var d Driver
		var rating sql.NullFloat64
		var quals []string
		if err := rows.Scan(&d.ID, &d.CompanyID, &d.Name, &d.City, &d.Available, &rating, &quals); err != nil {
			return nil, err
		}
		if rating.Valid {
			r := rating.Float64
			d.Rating = &r
		}
		for _, q := range quals {
			d.Qualifications = append(d.Qualifications, VehicleType(q))
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Type filtering honors the empty-set-means-type-agnostic rule, which is
	// simpler to keep in one place than to express in SQL.
	if q.Type != nil {
		filtered := out[:0]
		for _, d := range out {
			if d.QualifiedFor(*q.Type) {
				filtered = append(filtered, d)
			}
		}
		out = filtered
	}
	return out, nil
}

func (s *Store) GetCompany(ctx context.Context, id types.ID) (Company, error) {
	var c Company
	err := s.db.QueryRow(ctx,
		`SELECT id, name FROM companies WHERE id = $1`, string(id),
	).Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, ErrNotFound
	}
	return c, err
}

func (s *Store) ListFleets(ctx context.Context, companyID types.ID) ([]Fleet, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, company_id, name, COALESCE(description, '')
		FROM fleets
		WHERE company_id = $1
		ORDER BY name, id`, string(companyID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Fleet
	for rows.Next() {
		var f Fleet
		if err := rows.Scan(&f.ID, &f.CompanyID, &f.Name, &f.Description); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// FleetMembers returns the vehicle and driver IDs explicitly linked to a
// fleet. Both lists may be empty; an empty driver list means the fleet has no
// driver membership data, not that it has no drivers.
func (s *Store) FleetMembers(ctx context.Context, fleetID types.ID) ([]types.ID, []types.ID, error) {
	vehicleIDs, err := s.memberIDs(ctx,
		`SELECT vehicle_id FROM fleet_vehicles WHERE fleet_id = $1 ORDER BY vehicle_id`, fleetID)
	if err != nil {
		return nil, nil, err
	}
	driverIDs, err := s.memberIDs(ctx,
		`SELECT driver_id FROM fleet_drivers WHERE fleet_id = $1 ORDER BY driver_id`, fleetID)
	if err != nil {
		return nil, nil, err
	}
	return vehicleIDs, driverIDs, nil
}

func (s *Store) memberIDs(ctx context.Context, query string, fleetID types.ID) ([]types.ID, error) {
	rows, err := s.db.Query(ctx, query, string(fleetID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, types.ID(id))
	}
	return out, rows.Err()
}

func scanVehicle(rows pgx.Rows) (Vehicle, error) {
	var v Vehicle
	var photo sql.NullString
	err := rows.Scan(&v.ID, &v.CompanyID, &v.Brand, &v.Model, &v.Capacity, &v.Type, &v.Location, &v.Status, &photo)
	if err != nil {
		return Vehicle{}, err
	}
	if photo.Valid {
		v.PhotoURL = &photo.String
	}
	return v, nil
}

func idParam(id *types.ID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}

func typeParam(t *VehicleType) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

// README: Pricing service computes trip price quotes.
package pricing

import (
	"context"
	"errors"
	"math"

	"navette/internal/modules/directory"
	"navette/internal/types"
)

// RateSource is the read surface the service needs from its store.
type RateSource interface {
	GetRate(ctx context.Context, vehicleType directory.VehicleType) (Rate, error)
}

type Service struct {
	rates RateSource
}

func NewService(rates RateSource) *Service {
	return &Service{rates: rates}
}

// Estimate quotes a price for the given distance. When a vehicle type is
// supplied its configured rate applies; otherwise, or when no rate is
// configured, the default rate does. Equal distances always quote equal
// prices.
func (s *Service) Estimate(ctx context.Context, distanceKm float64, vehicleType *directory.VehicleType) (types.Money, error) {
	rate := DefaultRate
	if vehicleType != nil && s.rates != nil {
		r, err := s.rates.GetRate(ctx, *vehicleType)
		switch {
		case err == nil:
			rate = r
		case errors.Is(err, ErrNoRate):
			// fall through to the default rate
		default:
			return types.Money{}, err
		}
	}
	return PriceFor(rate, distanceKm), nil
}

// PriceFor applies the base + per-km formula. Negative distances price as
// zero distance; the result is never negative.
func PriceFor(rate Rate, distanceKm float64) types.Money {
	if distanceKm < 0 {
		distanceKm = 0
	}
	amount := rate.BaseCents + int64(math.Round(distanceKm*float64(rate.PerKmCents)))
	if amount < 0 {
		amount = 0
	}
	return types.Money{Amount: amount, Currency: rate.Currency}
}

// README: Pricing rate definition per vehicle type.
package pricing

import "navette/internal/modules/directory"

// Rate is a base-fee plus per-km price model. Amounts are in minor units
// (cents).
type Rate struct {
	VehicleType directory.VehicleType
	BaseCents   int64
	PerKmCents  int64
	Currency    string
}

// DefaultRate applies when a vehicle type has no configured rate or the
// request carries no type: 25.00 base + 1.50 per km.
var DefaultRate = Rate{
	BaseCents:  2500,
	PerKmCents: 150,
	Currency:   "EUR",
}

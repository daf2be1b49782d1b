package domain

import "math"

type PaymentIntentRequest struct {
	Price *float64 `json:"price"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// MinorUnits converts a decimal price into integer cents, rounding to the
// nearest unit so 10.5 becomes 1050 rather than drifting to 1049.
func MinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// ChargeAmount validates a requested price and returns it in minor units.
func ChargeAmount(price *float64) (int64, error) {
	if price == nil {
		return 0, Invalid("price is required")
	}
	if math.IsNaN(*price) || math.IsInf(*price, 0) {
		return 0, Invalid("price must be a finite number")
	}
	amount := MinorUnits(*price)
	if amount < 1 {
		return 0, Invalid("price must be at least one minor unit")
	}
	return amount, nil
}

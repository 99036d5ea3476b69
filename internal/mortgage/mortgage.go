// Package mortgage estimates monthly repayments for a listing.
package mortgage

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultDownPaymentRatio = 0.2
	DefaultRatePercent      = 6.5
	DefaultYears            = 30
)

var ErrInvalidInput = errors.New("mortgage: invalid input")

// Input amounts are in major currency units.
type Input struct {
	Price       float64 `json:"price"`
	DownPayment float64 `json:"downPayment"`
	RatePercent float64 `json:"rate"`
	Years       int     `json:"years"`
}

type Quote struct {
	Input
	DownPaymentPercent float64 `json:"downPaymentPercent"`
	Principal          float64 `json:"principal"`
	Payments           int     `json:"payments"`
	MonthlyPayment     float64 `json:"monthlyPayment"`
	TotalPaid          float64 `json:"totalPaid"`
	TotalInterest      float64 `json:"totalInterest"`
}

// Defaults returns the starting input for a listing priced in minor units.
func Defaults(priceMinorUnits int64) Input {
	price := float64(priceMinorUnits) / 100
	return Input{
		Price:       price,
		DownPayment: price * DefaultDownPaymentRatio,
		RatePercent: DefaultRatePercent,
		Years:       DefaultYears,
	}
}

func (in Input) Validate() error {
	var errs []error
	if in.Price < 0 || math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		errs = append(errs, fmt.Errorf("%w: price must be a non-negative number", ErrInvalidInput))
	}
	if in.DownPayment < 0 || in.DownPayment > in.Price || math.IsNaN(in.DownPayment) {
		errs = append(errs, fmt.Errorf("%w: downPayment must be between 0 and the price", ErrInvalidInput))
	}
	if in.RatePercent < 0 || in.RatePercent > 100 || math.IsNaN(in.RatePercent) {
		errs = append(errs, fmt.Errorf("%w: rate must be between 0 and 100", ErrInvalidInput))
	}
	if in.Years < 1 || in.Years > 50 {
		errs = append(errs, fmt.Errorf("%w: years must be between 1 and 50", ErrInvalidInput))
	}
	return errors.Join(errs...)
}

// Calculate amortizes price minus down payment over Years of monthly
// payments. A zero rate splits the principal evenly.
func Calculate(in Input) (Quote, error) {
	if err := in.Validate(); err != nil {
		return Quote{}, err
	}
	q := Quote{Input: in, Payments: in.Years * 12}
	if in.Price > 0 {
		q.DownPaymentPercent = in.DownPayment / in.Price * 100
	}
	q.Principal = in.Price - in.DownPayment
	if q.Principal <= 0 {
		q.Principal = 0
		return q, nil
	}
	r := in.RatePercent / 100 / 12
	n := float64(q.Payments)
	if r == 0 {
		q.MonthlyPayment = q.Principal / n
	} else {
		f := math.Pow(1+r, n)
		q.MonthlyPayment = q.Principal * r * f / (f - 1)
	}
	q.TotalPaid = q.MonthlyPayment * n
	q.TotalInterest = q.TotalPaid - q.Principal
	return q, nil
}

package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Params are the model parameters of a valuation run.
type Params struct {
	GrowthRate        float64 `json:"growth_rate" validate:"gte=0,lt=1"`
	AveragingYears    int     `json:"averaging_years" validate:"gte=1,ltefield=HistoryYears"`
	BetaLookbackYears int     `json:"beta_lookback_years" validate:"oneof=1 2 5 10"`
	HistoryYears      int     `json:"history_years" validate:"gte=1"`
}

// DefaultParams returns g = 4%, a 3-year average, 5-year beta lookback and a
// 5-year filing window.
func DefaultParams() Params {
	return Params{
		GrowthRate:        0.04,
		AveragingYears:    3,
		BetaLookbackYears: 5,
		HistoryYears:      5,
	}
}

// Validate reports the first invalid field.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("types: invalid params: %s failed %q (%v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("types: invalid params: %w", err)
	}
	return nil
}

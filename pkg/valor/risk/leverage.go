package risk

import (
	"fmt"
	"strings"
)

// LeverageAdjuster turns a regression beta into the beta used for Ke.
type LeverageAdjuster interface {
	Adjust(beta, taxRate, debt, marketCap float64) float64
	Name() string
}

// DebtToEquity is debt / market cap, zero when market cap is not positive.
func DebtToEquity(debt, marketCap float64) float64 {
	if marketCap > 0 {
		return debt / marketCap
	}
	return 0
}

func unlever(beta, taxRate, de float64) float64 { return beta / (1 + (1-taxRate)*de) }
func relever(beta, taxRate, de float64) float64 { return beta * (1 + (1-taxRate)*de) }

// SelfRelever applies Hamada with the company's own D/E on both legs, which
// returns the regression beta.
type SelfRelever struct{}

func (SelfRelever) Name() string { return "self" }

func (SelfRelever) Adjust(beta, taxRate, debt, marketCap float64) float64 {
	if marketCap+debt == 0 {
		return beta
	}
	de := DebtToEquity(debt, marketCap)
	return relever(unlever(beta, taxRate, de), taxRate, de)
}

// PeerRelever unlevers with a peer-group D/E and relevers with the
// company's own.
type PeerRelever struct {
	PeerDebtToEquity float64
}

func (PeerRelever) Name() string { return "peer" }

func (p PeerRelever) Adjust(beta, taxRate, debt, marketCap float64) float64 {
	if marketCap+debt == 0 {
		return beta
	}
	bu := unlever(beta, taxRate, p.PeerDebtToEquity)
	return relever(bu, taxRate, DebtToEquity(debt, marketCap))
}

// NoAdjustment uses the regression beta as is.
type NoAdjustment struct{}

func (NoAdjustment) Name() string { return "none" }

func (NoAdjustment) Adjust(beta, _, _, _ float64) float64 { return beta }

// ParseLeverage maps a config name to a strategy.
func ParseLeverage(name string, peerDE float64) (LeverageAdjuster, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "self":
		return SelfRelever{}, nil
	case "peer":
		if peerDE < 0 {
			return nil, fmt.Errorf("risk: peer debt-to-equity must be >= 0, got %v", peerDE)
		}
		return PeerRelever{PeerDebtToEquity: peerDE}, nil
	case "none":
		return NoAdjustment{}, nil
	}
	return nil, fmt.Errorf("risk: unknown leverage strategy %q", name)
}

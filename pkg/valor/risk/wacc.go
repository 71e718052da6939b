package risk

// WACC weights Ke and after-tax Kd by market values. With no enterprise
// value it is Ke.
func WACC(marketCap, debt, ke, kd float64) float64 {
	ev := marketCap + debt
	if ev <= 0 {
		return ke
	}
	return marketCap/ev*ke + debt/ev*kd
}

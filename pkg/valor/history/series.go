package history

import (
	"math"
	"sort"

	"github.com/komsit37/valor/pkg/valor/types"
)

// Series is a yearly series sorted ascending by year with at most one value
// per year. Operations never modify the receiver.
type Series []types.YearValue

// FromMap builds a series from year→value pairs.
func FromMap(m map[int]float64) Series {
	out := make(Series, 0, len(m))
	for y, v := range m {
		out = append(out, types.YearValue{Year: y, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// Of builds a series of consecutive years starting at first.
func Of(first int, values ...float64) Series {
	out := make(Series, len(values))
	for i, v := range values {
		out[i] = types.YearValue{Year: first + i, Value: v}
	}
	return out
}

func (s Series) Len() int    { return len(s) }
func (s Series) Empty() bool { return len(s) == 0 }
func (s Series) Points() []types.YearValue {
	return append([]types.YearValue(nil), s...)
}

func (s Series) Years() []int {
	out := make([]int, len(s))
	for i, p := range s {
		out[i] = p.Year
	}
	return out
}

func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Last returns the value of the most recent year.
func (s Series) Last() (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1].Value, true
}

// LastYear returns the most recent year.
func (s Series) LastYear() (int, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1].Year, true
}

// First returns the value of the earliest year.
func (s Series) First() (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[0].Value, true
}

// Value looks up one year.
func (s Series) Value(year int) (float64, bool) {
	i := sort.Search(len(s), func(i int) bool { return s[i].Year >= year })
	if i < len(s) && s[i].Year == year {
		return s[i].Value, true
	}
	return 0, false
}

// Tail returns the last k entries, or all of them when fewer exist.
func (s Series) Tail(k int) Series {
	if k <= 0 {
		return Series{}
	}
	if k >= len(s) {
		return append(Series(nil), s...)
	}
	return append(Series(nil), s[len(s)-k:]...)
}

// Sum is zero for an empty series.
func (s Series) Sum() float64 {
	var total float64
	for _, p := range s {
		total += p.Value
	}
	return total
}

// Mean is NaN for an empty series.
func (s Series) Mean() float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	return s.Sum() / float64(len(s))
}

// Add aligns by year; a year missing on one side counts as zero.
func (s Series) Add(o Series) Series {
	return s.combine(o, func(a, b float64) float64 { return a + b })
}

// Sub aligns by year; a year missing on one side counts as zero.
func (s Series) Sub(o Series) Series {
	return s.combine(o, func(a, b float64) float64 { return a - b })
}

func (s Series) combine(o Series, op func(a, b float64) float64) Series {
	out := make(Series, 0, len(s)+len(o))
	i, j := 0, 0
	for i < len(s) || j < len(o) {
		switch {
		case j >= len(o) || (i < len(s) && s[i].Year < o[j].Year):
			out = append(out, types.YearValue{Year: s[i].Year, Value: op(s[i].Value, 0)})
			i++
		case i >= len(s) || o[j].Year < s[i].Year:
			out = append(out, types.YearValue{Year: o[j].Year, Value: op(0, o[j].Value)})
			j++
		default:
			out = append(out, types.YearValue{Year: s[i].Year, Value: op(s[i].Value, o[j].Value)})
			i++
			j++
		}
	}
	return out
}

// Scale multiplies every value by f.
func (s Series) Scale(f float64) Series {
	out := make(Series, len(s))
	for i, p := range s {
		out[i] = types.YearValue{Year: p.Year, Value: p.Value * f}
	}
	return out
}

// Div divides every value by d.
func (s Series) Div(d float64) Series {
	out := make(Series, len(s))
	for i, p := range s {
		out[i] = types.YearValue{Year: p.Year, Value: p.Value / d}
	}
	return out
}

// Fill returns a series with value v for every year of s.
func (s Series) Fill(v float64) Series {
	out := make(Series, len(s))
	for i, p := range s {
		out[i] = types.YearValue{Year: p.Year, Value: v}
	}
	return out
}

// PctChangeLast is the relative change between the last two entries. It is
// NaN with fewer than two entries, and follows IEEE division when the
// previous value is zero.
func (s Series) PctChangeLast() float64 {
	if len(s) < 2 {
		return math.NaN()
	}
	prev, cur := s[len(s)-2].Value, s[len(s)-1].Value
	return (cur - prev) / prev
}

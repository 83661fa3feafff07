// Package iir holds the biquad filters used as an alternative to PID, and
// the 8-slot matrix that wires filters between channels.
package iir

// BA holds biquad coefficients [b0, b1, b2, a1, a2]. The feedback terms use
// the sign convention y = b·x + a·y, so a1 and a2 are the negated textbook
// denominators.
type BA [5]float64

// XY is the filter state, newest input first. Tick shifts it by one and
// stores the new output in XY[2].
type XY [5]float64

// DefaultBA is a pure proportional filter with gain 0.1
var DefaultBA = BA{0.1, 0, 0, 0, 0}

// DefaultYLim bounds the output of a LimitedFilter
var DefaultYLim = [2]float64{-0.7, 0.7}

// Filter is a biquad acting on the error target - x
type Filter struct {
	BA     BA
	XY     XY
	Target float64
}

// NewFilter returns a filter with DefaultBA and zeroed state
func NewFilter() *Filter {
	return &Filter{BA: DefaultBA}
}

// Tick feeds one sample and returns the new output. The output is not
// clamped.
func (f *Filter) Tick(x0 float64) float64 {
	copy(f.XY[1:], f.XY[:4])
	f.XY[0] = f.Target - x0
	y := dot(f.XY, f.BA)
	f.XY[2] = y
	return y
}

// Reset zeroes the state
func (f *Filter) Reset() {
	f.XY = XY{}
}

// LimitedFilter is a biquad on -x whose output is offset by Target and
// clamped to YLim.
type LimitedFilter struct {
	BA     BA
	XY     XY
	Target float64
	YLim   [2]float64
}

// NewLimitedFilter returns a filter with DefaultBA and DefaultYLim
func NewLimitedFilter() *LimitedFilter {
	return &LimitedFilter{BA: DefaultBA, YLim: DefaultYLim}
}

// Tick feeds one sample and returns the clamped output
func (f *LimitedFilter) Tick(x0 float64) float64 {
	copy(f.XY[1:], f.XY[:4])
	f.XY[0] = -x0
	y := dot(f.XY, f.BA) + f.Target
	if y < f.YLim[0] {
		y = f.YLim[0]
	}
	if y > f.YLim[1] {
		y = f.YLim[1]
	}
	f.XY[2] = y
	return y
}

func dot(xy XY, ba BA) float64 {
	var y float64
	for i := range xy {
		y += xy[i] * ba[i]
	}
	return y
}

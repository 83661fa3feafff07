// Package pid is the per-channel temperature controller.
//
// The integral term is frozen while the output sits on a limit (anti-windup)
// and kept within its own bounds. Changing Ki rescales the accumulated
// integral so the integral term, and therefore the output, does not jump.
package pid

// Parameters of a Controller
type Parameters struct {
	Kp          float64 `json:"kp" yaml:"kp" mapstructure:"kp"`
	Ki          float64 `json:"ki" yaml:"ki" mapstructure:"ki"`
	Kd          float64 `json:"kd" yaml:"kd" mapstructure:"kd"`
	OutputMin   float64 `json:"output_min" yaml:"output_min" mapstructure:"output_min"`
	OutputMax   float64 `json:"output_max" yaml:"output_max" mapstructure:"output_max"`
	IntegralMin float64 `json:"integral_min" yaml:"integral_min" mapstructure:"integral_min"`
	IntegralMax float64 `json:"integral_max" yaml:"integral_max" mapstructure:"integral_max"`
}

// DefaultParameters are the power-on gains and limits
var DefaultParameters = Parameters{
	Kp:          1.5,
	Ki:          0.1,
	Kd:          150.0,
	OutputMin:   -2.0,
	OutputMax:   2.0,
	IntegralMin: -100.0,
	IntegralMax: 100.0,
}

// Controller is a PID controller with anti-windup
type Controller struct {
	Parameters Parameters
	Target     float64
	// LastOutput is the most recent Update result, nil before the first
	LastOutput *float64

	integral  float64
	lastInput *float64
}

// New returns a controller with a zero target
func New(p Parameters) *Controller {
	return &Controller{Parameters: p}
}

// Update runs one step on a new measurement taken dt seconds after the
// previous one and returns the clamped output.
func (c *Controller) Update(input, dt float64) float64 {
	p := &c.Parameters
	err := c.Target - input

	// anti-windup
	if c.LastOutput == nil || (*c.LastOutput > p.OutputMin && *c.LastOutput < p.OutputMax) {
		c.integral += err * dt
	}
	c.integral = clamp(c.integral, p.IntegralMin, p.IntegralMax)

	d := 0.0
	// derivative on measurement: (last - input) is the error slope while the target holds
	if c.lastInput != nil && dt > 0 {
		d = p.Kd * (*c.lastInput - input) / dt
	}
	last := input
	c.lastInput = &last

	out := clamp(p.Kp*err+p.Ki*c.integral+d, p.OutputMin, p.OutputMax)
	c.LastOutput = &out
	return out
}

// UpdateKi changes Ki, rescaling the integral so Ki*integral is unchanged.
// A zero Ki clears the integral.
func (c *Controller) UpdateKi(ki float64) {
	if ki == 0 {
		c.integral = 0
	} else {
		c.integral = c.integral * c.Parameters.Ki / ki
	}
	c.Parameters.Ki = ki
}

// SetTarget changes the setpoint. The integral is kept.
func (c *Controller) SetTarget(target float64) {
	c.Target = target
}

// Integral returns the accumulated integral
func (c *Controller) Integral() float64 {
	return c.integral
}

// Reset clears the integral and derivative history
func (c *Controller) Reset() {
	c.integral = 0
	c.lastInput = nil
	c.LastOutput = nil
}

// Summary is the reportable controller state
type Summary struct {
	Parameters Parameters `json:"parameters"`
	Target     float64    `json:"target"`
	Integral   float64    `json:"integral"`
}

// Summary returns the reportable state
func (c *Controller) Summary() Summary {
	return Summary{
		Parameters: c.Parameters,
		Target:     c.Target,
		Integral:   c.integral,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

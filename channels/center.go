package channels

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"thermostat/units"
)

// CenterPoint is the DAC voltage at which the TEC current is zero: the
// measured VREF, or a fixed override.
type CenterPoint struct {
	Vref     bool
	Override units.Volts
}

// CenterVref tracks the measured VREF
func CenterVref() CenterPoint { return CenterPoint{Vref: true} }

// CenterOverride pins the center to v
func CenterOverride(v units.Volts) CenterPoint { return CenterPoint{Override: v} }

func (c CenterPoint) String() string {
	if c.Vref {
		return "vref"
	}
	return c.Override.String()
}

// ParseCenterPoint parses "vref" or a voltage
func ParseCenterPoint(s string) (CenterPoint, error) {
	if s == "vref" {
		return CenterVref(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return CenterPoint{}, fmt.Errorf("center point %q: %w", s, err)
	}
	return CenterOverride(units.Volts(v)), nil
}

// MarshalJSON renders "vref" or the override voltage
func (c CenterPoint) MarshalJSON() ([]byte, error) {
	if c.Vref {
		return json.Marshal("vref")
	}
	return json.Marshal(float64(c.Override))
}

// UnmarshalJSON accepts "vref" or a number
func (c *CenterPoint) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		p, err := ParseCenterPoint(s)
		if err != nil {
			return err
		}
		*c = p
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("center point: %w", err)
	}
	*c = CenterOverride(units.Volts(v))
	return nil
}

// MarshalYAML renders "vref" or the override voltage
func (c CenterPoint) MarshalYAML() (interface{}, error) {
	if c.Vref {
		return "vref", nil
	}
	return float64(c.Override), nil
}

// UnmarshalYAML accepts "vref" or a number
func (c *CenterPoint) UnmarshalYAML(node *yaml.Node) error {
	p, err := ParseCenterPoint(node.Value)
	if err != nil {
		return err
	}
	*c = p
	return nil
}

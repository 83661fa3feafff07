package ad7172

import "thermostat/units"

// MaxValue is the full-scale code, reported when the input is open
const MaxValue uint32 = 0xFF_FFFF

const (
	// vRef is the internal reference voltage
	vRef = 3.0
	// inputScale is the front-end attenuation ahead of AIN
	inputScale = 0.75
)

// ChannelCalibration is the offset and gain captured from one setup after
// offset calibration.
type ChannelCalibration struct {
	Offset  uint32
	Gain    uint32
	Bipolar bool
}

// ConvertData converts a raw result code to volts at the thermistor divider
func (c ChannelCalibration) ConvertData(code uint32) units.Volts {
	var data float64
	if c.Bipolar {
		data = float64(code) - 0x80_0000
	} else {
		data = float64(code) / 2
	}
	data /= float64(c.Gain) / 0x40_0000
	data += float64(c.Offset) - 0x80_0000
	data /= float64(2 << 23)
	return units.Volts(data * vRef / inputScale)
}

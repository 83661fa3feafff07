package ad7172

import (
	"fmt"
	"math"
)

// Mode is the ADCMODE conversion mode
type Mode uint8

const (
	ModeContinuousConversion      Mode = 0b000
	ModeSingleConversion          Mode = 0b001
	ModeStandby                   Mode = 0b010
	ModePowerDown                 Mode = 0b011
	ModeInternalOffsetCalibration Mode = 0b100
	ModeInvalid                   Mode = 0b101
	ModeSystemOffsetCalibration   Mode = 0b110
	ModeSystemGainCalibration     Mode = 0b111
)

func (m Mode) String() string {
	switch m {
	case ModeContinuousConversion:
		return "continuous"
	case ModeSingleConversion:
		return "single"
	case ModeStandby:
		return "standby"
	case ModePowerDown:
		return "power-down"
	case ModeInternalOffsetCalibration:
		return "internal-offset-calibration"
	case ModeSystemOffsetCalibration:
		return "system-offset-calibration"
	case ModeSystemGainCalibration:
		return "system-gain-calibration"
	default:
		return "invalid"
	}
}

// Input is an analog input selector for CHx AINPOS/AINNEG
type Input uint8

const (
	Ain0            Input = 0
	Ain1            Input = 1
	Ain2            Input = 2
	Ain3            Input = 3
	Ain4            Input = 4
	TemperaturePos  Input = 17
	TemperatureNeg  Input = 18
	AnalogSupplyPos Input = 19
	AnalogSupplyNeg Input = 20
	RefPos          Input = 21
	RefNeg          Input = 22
	InputInvalid    Input = 0b11111
)

// InputFromBits decodes a 5-bit selector; unknown encodings map to InputInvalid
func InputFromBits(v uint8) Input {
	switch in := Input(v); in {
	case Ain0, Ain1, Ain2, Ain3, Ain4,
		TemperaturePos, TemperatureNeg,
		AnalogSupplyPos, AnalogSupplyNeg,
		RefPos, RefNeg:
		return in
	default:
		return InputInvalid
	}
}

func (i Input) String() string {
	switch i {
	case Ain0, Ain1, Ain2, Ain3, Ain4:
		return fmt.Sprintf("ain%d", uint8(i))
	case TemperaturePos:
		return "temperature+"
	case TemperatureNeg:
		return "temperature-"
	case AnalogSupplyPos:
		return "analogsupply+"
	case AnalogSupplyNeg:
		return "analogsupply-"
	case RefPos:
		return "ref+"
	case RefNeg:
		return "ref-"
	default:
		return "<invalid>"
	}
}

// RefSource selects the reference of a setup
type RefSource uint8

const (
	RefExternal       RefSource = 0b00
	RefInvalid        RefSource = 0b01
	RefInternal       RefSource = 0b10
	RefAvdd1MinusAvss RefSource = 0b11
)

// RefSourceFromBits decodes the 2-bit REF_SEL field
func RefSourceFromBits(v uint8) RefSource {
	return RefSource(v & 0b11)
}

func (r RefSource) String() string {
	switch r {
	case RefExternal:
		return "external"
	case RefInternal:
		return "internal"
	case RefAvdd1MinusAvss:
		return "avdd1-avss"
	default:
		return "<invalid>"
	}
}

// PostFilter is the enhanced 50/60 Hz rejection filter (ENHFILT)
type PostFilter uint8

const (
	F27SPS            PostFilter = 0b010
	F21SPS            PostFilter = 0b011
	F20SPS            PostFilter = 0b101
	F16SPS            PostFilter = 0b110
	PostFilterInvalid PostFilter = 0b111
)

// PostFilters lists the valid postfilter settings
var PostFilters = []PostFilter{F27SPS, F21SPS, F20SPS, F16SPS}

// PostFilterFromBits decodes the 3-bit ENHFILT field
func PostFilterFromBits(v uint8) PostFilter {
	switch p := PostFilter(v); p {
	case F27SPS, F21SPS, F20SPS, F16SPS:
		return p
	default:
		return PostFilterInvalid
	}
}

// OutputRate returns the output data rate in samples per second, NaN when invalid
func (p PostFilter) OutputRate() float64 {
	switch p {
	case F27SPS:
		return 27.0
	case F21SPS:
		return 21.25
	case F20SPS:
		return 20.0
	case F16SPS:
		return 16.67
	default:
		return math.NaN()
	}
}

// ClosestPostFilter picks the setting whose output rate is nearest to rate
func ClosestPostFilter(rate float64) PostFilter {
	best := PostFilterInvalid
	bestErr := math.Inf(1)
	for _, p := range PostFilters {
		e := math.Abs(p.OutputRate() - rate)
		if e < bestErr {
			best, bestErr = p, e
		}
	}
	return best
}

func (p PostFilter) String() string {
	switch p {
	case F27SPS:
		return "27sps"
	case F21SPS:
		return "21.25sps"
	case F20SPS:
		return "20sps"
	case F16SPS:
		return "16.67sps"
	default:
		return "<invalid>"
	}
}

// DigitalFilterOrder is the FILTCON ORDER field
type DigitalFilterOrder uint8

const (
	Sinc5Sinc1         DigitalFilterOrder = 0b00
	FilterOrderInvalid DigitalFilterOrder = 0b10
	Sinc3              DigitalFilterOrder = 0b11
)

// DigitalFilterOrderFromBits decodes the 2-bit ORDER field
func DigitalFilterOrderFromBits(v uint8) DigitalFilterOrder {
	switch o := DigitalFilterOrder(v & 0b11); o {
	case Sinc5Sinc1, Sinc3:
		return o
	default:
		return FilterOrderInvalid
	}
}

func (o DigitalFilterOrder) String() string {
	switch o {
	case Sinc5Sinc1:
		return "sinc5+sinc1"
	case Sinc3:
		return "sinc3"
	default:
		return "<invalid>"
	}
}

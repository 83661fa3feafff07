package sim

import (
	"math"

	"thermostat/ad5680"
	"thermostat/ad7172"
	"thermostat/channels"
	"thermostat/core"
	"thermostat/steinhart"
	"thermostat/units"
)

// PlantConfig describes the thermal load on one TEC
type PlantConfig struct {
	// Ambient is the heatsink temperature in °C
	Ambient float64 `mapstructure:"ambient"`
	// HeatPerAmp is the temperature slope per amp of TEC current (K/s/A)
	HeatPerAmp float64 `mapstructure:"heat_per_amp"`
	// Loss is the rate of relaxation towards ambient (1/s)
	Loss float64 `mapstructure:"loss"`
	// RTec is the TEC resistance in ohms
	RTec float64 `mapstructure:"r_tec"`
}

// DefaultPlant is a small mass on a 2 ohm TEC
var DefaultPlant = PlantConfig{
	Ambient:    25,
	HeatPerAmp: 0.5,
	Loss:       0.05,
	RTec:       2,
}

// TEC is one simulated output stage with its load and thermistor
type TEC struct {
	DAC     *AD5680
	MaxV    *PWM
	MaxIPos *PWM
	MaxINeg *PWM

	// Temperature of the load in °C
	Temperature float64
	// Vref is the driver reference voltage
	Vref float64
	// DacScale is the real DAC output at full-scale code
	DacScale float64
	// Disconnected opens the thermistor
	Disconnected bool

	Plant      PlantConfig
	Thermistor steinhart.Parameters

	shdn bool
}

// DacVoltage is the DAC output
func (t *TEC) DacVoltage() float64 {
	return float64(t.DAC.Value()) / float64(ad5680.MaxValue) * t.DacScale
}

// Current is the TEC current after the driver limits
func (t *TEC) Current() float64 {
	if !t.shdn {
		return 0
	}
	i := (t.DacVoltage() - t.Vref) / (10 * float64(channels.RSense))
	i = math.Min(i, t.MaxIPos.Ratio()*float64(channels.MaxPWMI))
	i = math.Max(i, -t.MaxINeg.Ratio()*float64(channels.MaxPWMI))
	if t.Plant.RTec > 0 {
		limit := t.MaxV.Ratio() * float64(channels.MaxPWMV) / t.Plant.RTec
		i = math.Max(math.Min(i, limit), -limit)
	}
	return i
}

// Powered reports the shutdown line
func (t *TEC) Powered() bool { return t.shdn }

// SensorVoltage is the thermistor divider output seen by the ADC, NaN when
// disconnected
func (t *TEC) SensorVoltage() float64 {
	if t.Disconnected {
		return math.NaN()
	}
	r := float64(t.Thermistor.GetResistance(units.Celsius(t.Temperature).Kelvin()))
	return float64(channels.VrefSens) * r / (float64(channels.RInner) + r)
}

func (t *TEC) step(dt float64) {
	p := t.Plant
	t.Temperature += dt * (p.HeatPerAmp*t.Current() - p.Loss*(t.Temperature-p.Ambient))
}

// Board is two TEC channels behind one ADC
type Board struct {
	ADC *AD7172
	TEC [channels.Count]*TEC
	Fan *PWM
	// Straps are the hwrev0..hwrev3 levels, v2.2 by default
	Straps [4]bool
}

// NewBoard returns a board with both loads at ambient
func NewBoard(plant PlantConfig) *Board {
	b := &Board{
		Fan:    NewPWM(0xFFFF),
		Straps: [4]bool{false, true, false, false},
	}
	for i := range b.TEC {
		b.TEC[i] = &TEC{
			DAC:         NewAD5680(true),
			MaxV:        NewPWM(0xFFFF),
			MaxIPos:     NewPWM(0xFFFF),
			MaxINeg:     NewPWM(0xFFFF),
			Temperature: plant.Ambient,
			Vref:        1.5,
			DacScale:    2.98,
			Plant:       plant,
			Thermistor:  steinhart.Default,
		}
	}
	b.ADC = NewAD7172(b.input)
	return b
}

func (b *Board) input(pos, neg ad7172.Input) float64 {
	switch {
	case pos == ad7172.Ain0 && neg == ad7172.Ain1:
		return b.TEC[0].SensorVoltage()
	case pos == ad7172.Ain2 && neg == ad7172.Ain3:
		return b.TEC[1].SensorVoltage()
	default:
		return 0
	}
}

// Step advances the loads by dt seconds and completes one ADC conversion
func (b *Board) Step(dt float64) {
	for _, t := range b.TEC {
		t.step(dt)
	}
	b.ADC.Convert()
}

// Pins returns the peripherals of channel i
func (b *Board) Pins(i int) channels.Pins {
	t := b.TEC[i]
	volts := func(f func() float64) core.AnalogInput {
		return core.AnalogFunc(func() (units.Volts, error) {
			return units.Volts(f()), nil
		})
	}
	return channels.Pins{
		DacBus:          t.DAC,
		DacSync:         t.DAC.Sync(),
		DacSyncIdleHigh: true,
		Shdn:            core.PinFunc(func(high bool) { t.shdn = high }),
		DacFeedback:     volts(t.DacVoltage),
		Vref:            volts(func() float64 { return t.Vref }),
		ITec:            volts(func() float64 { return t.Vref + channels.TecIScale*t.Current() }),
		TecU: volts(func() float64 {
			return float64(channels.TecUOffset) + t.Current()*t.Plant.RTec/channels.TecUGain
		}),
		MaxV:    t.MaxV,
		MaxIPos: t.MaxIPos,
		MaxINeg: t.MaxINeg,
	}
}

// AllPins returns the peripherals of both channels
func (b *Board) AllPins() [channels.Count]channels.Pins {
	var pins [channels.Count]channels.Pins
	for i := range pins {
		pins[i] = b.Pins(i)
	}
	return pins
}

// StrapPins returns the revision strap inputs
func (b *Board) StrapPins() [4]core.InputPin {
	var pins [4]core.InputPin
	for i := range pins {
		i := i
		pins[i] = core.InputFunc(func() bool { return b.Straps[i] })
	}
	return pins
}

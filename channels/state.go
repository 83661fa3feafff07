package channels

import (
	"math"

	"thermostat/ad7172"
	"thermostat/iir"
	"thermostat/pid"
	"thermostat/steinhart"
	"thermostat/units"
)

const (
	// RInner is the divider resistance in series with the thermistor
	RInner units.Ohms = 2 * 5100
	// VrefSens is the divider supply
	VrefSens units.Volts = 1.65
)

// NoMatrix marks a channel not driven by the filter matrix
const NoMatrix = -1

// State is the control state of one channel
type State struct {
	adcData     *uint32
	adcTime     uint32 // ms
	adcInterval units.Seconds

	// Calibration is captured from the ADC setup at startup
	Calibration ad7172.ChannelCalibration

	// VrefMeas is the DAC voltage that reproduces the measured VREF
	VrefMeas units.Volts
	Center   CenterPoint
	// DacValue is the voltage last written to the DAC, after quantisation
	DacValue units.Volts
	// DacFactor is the DAC output voltage at full-scale code
	DacFactor units.Volts

	PIDEngaged bool
	PID        *pid.Controller
	SH         steinhart.Parameters

	IIREngaged bool
	IIR        *iir.Filter

	// MatrixIndex is the matrix slot driving this channel, NoMatrix if none
	MatrixIndex int
}

// NewState returns the power-on state
func NewState(cal ad7172.ChannelCalibration) *State {
	return &State{
		Calibration: cal,
		VrefMeas:    NominalVref,
		Center:      CenterVref(),
		DacFactor:   DacFullScale,
		PID:         pid.New(pid.DefaultParameters),
		SH:          steinhart.Default,
		IIR:         iir.NewFilter(),
		MatrixIndex: NoMatrix,
	}
}

// Update records a new conversion result taken at now (ms). The full-scale
// code means the sensor is open and clears the reading.
func (s *State) Update(now uint32, code uint32) {
	s.adcInterval = units.Seconds(float64(now-s.adcTime) / 1000)
	s.adcTime = now
	if code == ad7172.MaxValue {
		s.adcData = nil
		return
	}
	s.adcData = &code
}

// Time returns the time of the last sample in ms
func (s *State) Time() uint32 { return s.adcTime }

// Interval returns the time between the last two samples
func (s *State) Interval() units.Seconds { return s.adcInterval }

// RawADC returns the last conversion code
func (s *State) RawADC() (uint32, bool) {
	if s.adcData == nil {
		return 0, false
	}
	return *s.adcData, true
}

// GetADC returns the divider voltage
func (s *State) GetADC() (units.Volts, bool) {
	code, ok := s.RawADC()
	if !ok {
		return 0, false
	}
	return s.Calibration.ConvertData(code), true
}

// GetSens returns the thermistor resistance
func (s *State) GetSens() (units.Ohms, bool) {
	v, ok := s.GetADC()
	if !ok {
		return 0, false
	}
	r := float64(RInner) * float64(v) / float64(VrefSens-v)
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		return 0, false
	}
	return units.Ohms(r), true
}

// GetTemperature returns the thermistor temperature
func (s *State) GetTemperature() (units.Celsius, bool) {
	r, ok := s.GetSens()
	if !ok {
		return 0, false
	}
	t := s.SH.GetTemperature(r).Celsius()
	if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
		return 0, false
	}
	return t, true
}

// UpdatePID runs the controller on the latest temperature
func (s *State) UpdatePID() (float64, bool) {
	t, ok := s.GetTemperature()
	if !ok {
		return 0, false
	}
	return s.PID.Update(float64(t), float64(s.adcInterval)), true
}

// UpdateIIR runs the channel filter on the latest temperature
func (s *State) UpdateIIR() (float64, bool) {
	t, ok := s.GetTemperature()
	if !ok {
		return 0, false
	}
	return s.IIR.Tick(float64(t)), true
}

// Engaged reports whether any controller drives the channel
func (s *State) Engaged() bool {
	return s.PIDEngaged || s.IIREngaged || s.MatrixIndex != NoMatrix
}

// Disengage stops every controller
func (s *State) Disengage() {
	s.PIDEngaged = false
	s.IIREngaged = false
	s.MatrixIndex = NoMatrix
}

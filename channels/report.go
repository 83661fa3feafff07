package channels

import (
	"thermostat/pid"
	"thermostat/steinhart"
)

// Report is the periodic status line of one channel
type Report struct {
	Channel     int      `json:"channel"`
	Time        uint32   `json:"time"`
	Interval    float64  `json:"interval"`
	ADC         *float64 `json:"adc"`
	Sens        *float64 `json:"sens"`
	Temperature *float64 `json:"temperature"`
	PIDEngaged  bool     `json:"pid_engaged"`
	ISet        float64  `json:"i_set"`
	Vref        float64  `json:"vref"`
	DacValue    float64  `json:"dac_value"`
	DacFeedback float64  `json:"dac_feedback"`
	ITec        float64  `json:"i_tec"`
	TecI        float64  `json:"tec_i"`
	TecUMeas    float64  `json:"tec_u_meas"`
	PIDOutput   *float64 `json:"pid_output"`
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

// Report samples the monitors of channel i and returns its status
func (c *Channels) Report(i int) (Report, error) {
	ch, err := c.channel(i)
	if err != nil {
		return Report{}, err
	}
	s := ch.State
	vref, err := c.ReadVref(i)
	if err != nil {
		return Report{}, err
	}
	fb, err := c.ReadDacFeedback(i)
	if err != nil {
		return Report{}, err
	}
	iTec, err := c.ReadITec(i)
	if err != nil {
		return Report{}, err
	}
	tecU, err := c.GetTecV(i)
	if err != nil {
		return Report{}, err
	}

	adc, adcOK := s.GetADC()
	sens, sensOK := s.GetSens()
	temp, tempOK := s.GetTemperature()
	r := Report{
		Channel:     i,
		Time:        s.Time(),
		Interval:    float64(s.Interval()),
		ADC:         optional(float64(adc), adcOK),
		Sens:        optional(float64(sens), sensOK),
		Temperature: optional(float64(temp), tempOK),
		PIDEngaged:  s.PIDEngaged,
		ISet:        float64(ch.getI()),
		Vref:        float64(vref),
		DacValue:    float64(s.DacValue),
		DacFeedback: float64(fb),
		ITec:        float64(iTec),
		TecI:        float64(iTec-vref) / TecIScale,
		TecUMeas:    float64(tecU),
	}
	if s.PID.LastOutput != nil {
		r.PIDOutput = optional(*s.PID.LastOutput, true)
	}
	return r, nil
}

// Reports returns the status of every channel
func (c *Channels) Reports() ([]Report, error) {
	reports := make([]Report, 0, Count)
	for i := 0; i < Count; i++ {
		r, err := c.Report(i)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// PIDSummary is the PID state of one channel
type PIDSummary struct {
	Channel int `json:"channel"`
	pid.Summary
}

// PIDSummary returns the PID state of channel i
func (c *Channels) PIDSummary(i int) (PIDSummary, error) {
	ch, err := c.channel(i)
	if err != nil {
		return PIDSummary{}, err
	}
	return PIDSummary{Channel: i, Summary: ch.State.PID.Summary()}, nil
}

// Limit is a value reported with its full scale
type Limit struct {
	Value float64 `json:"value"`
	Max   float64 `json:"max"`
}

// PWMSummary is the output stage configuration of one channel
type PWMSummary struct {
	Channel int         `json:"channel"`
	Center  CenterPoint `json:"center"`
	ISet    Limit       `json:"i_set"`
	MaxV    Limit       `json:"max_v"`
	MaxIPos Limit       `json:"max_i_pos"`
	MaxINeg Limit       `json:"max_i_neg"`
}

// PWMSummary returns the output stage configuration of channel i
func (c *Channels) PWMSummary(i int) (PWMSummary, error) {
	ch, err := c.channel(i)
	if err != nil {
		return PWMSummary{}, err
	}
	iSet, iMax, _ := c.GetI(i)
	maxV, maxVMax, _ := c.GetMaxV(i)
	maxIPos, maxIMax, _ := c.GetMaxIPos(i)
	maxINeg, _, _ := c.GetMaxINeg(i)
	return PWMSummary{
		Channel: i,
		Center:  ch.State.Center,
		ISet:    Limit{float64(iSet), float64(iMax)},
		MaxV:    Limit{float64(maxV), float64(maxVMax)},
		MaxIPos: Limit{float64(maxIPos), float64(maxIMax)},
		MaxINeg: Limit{float64(maxINeg), float64(maxIMax)},
	}, nil
}

// SteinhartHartSummary is the thermistor model of one channel
type SteinhartHartSummary struct {
	Channel int                  `json:"channel"`
	Params  steinhart.Parameters `json:"params"`
}

// SteinhartHartSummary returns the thermistor model of channel i
func (c *Channels) SteinhartHartSummary(i int) (SteinhartHartSummary, error) {
	ch, err := c.channel(i)
	if err != nil {
		return SteinhartHartSummary{}, err
	}
	return SteinhartHartSummary{Channel: i, Params: ch.State.SH}, nil
}

// PostFilterSummary is the ADC postfilter of one channel
type PostFilterSummary struct {
	Channel int      `json:"channel"`
	Rate    *float64 `json:"rate"`
}

// PostFilterSummary returns the ADC postfilter of channel i
func (c *Channels) PostFilterSummary(i int) (PostFilterSummary, error) {
	rate, err := c.GetPostFilterRate(i)
	if err != nil {
		return PostFilterSummary{}, err
	}
	return PostFilterSummary{Channel: i, Rate: rate}, nil
}

// SetSteinhartHart replaces the thermistor model of channel i
func (c *Channels) SetSteinhartHart(i int, p steinhart.Parameters) error {
	ch, err := c.channel(i)
	if err != nil {
		return err
	}
	ch.State.SH = p
	return nil
}

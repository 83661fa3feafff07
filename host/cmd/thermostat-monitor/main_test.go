package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"thermostat/channels"
)

func TestFormatReport(t *testing.T) {
	temp, sens := 30.0, 8000.0
	r := channels.Report{
		Channel:     1,
		Time:        1500,
		Temperature: &temp,
		Sens:        &sens,
		PIDEngaged:  true,
		ISet:        0.5,
		TecI:        0.5,
		TecUMeas:    1,
	}
	line := formatReport(r)
	assert.True(t, strings.HasPrefix(line, "ch1 t=1500ms pid"), line)
	assert.Contains(t, line, "°C")
	assert.Contains(t, line, "Iset=500mA")
	assert.Contains(t, line, "U=1V")

	r.Temperature, r.Sens, r.PIDEngaged = nil, nil, false
	line = formatReport(r)
	assert.Contains(t, line, "manual")
	assert.Contains(t, line, "T=- R=-")
}

//go:build rp2040

package main

import (
	"machine"
	"time"

	"go.uber.org/zap"

	"thermostat/ad7172"
	"thermostat/channels"
	"thermostat/core"
	"thermostat/fan"
	"thermostat/hwrev"
	"thermostat/standalone"
)

// adcWake is set from the RDY pin interrupt
var adcWake core.WakeFlag

func main() {
	// Disable watchdog on boot to clear any previous state
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	InitUSB()
	log := InitDebugUART(false)
	clock := newHWClock()

	rev := hwrev.Detect(strapInputs())
	log.Info("board detected", zap.Stringer("hwrev", rev))

	adcSPI, err := adcBus.configure()
	if err != nil {
		fatal(log, "adc bus", err)
	}
	adc, err := ad7172.New(adcSPI, outputPin(adcNSS, true), ad7172.WithLogger(log.Named("ad7172")))
	if err != nil {
		fatal(log, "adc init", err)
	}

	pins, err := channelPins()
	if err != nil {
		fatal(log, "channel pins", err)
	}
	ch, err := channels.New(log.Named("channels"), adc, pins)
	if err != nil {
		fatal(log, "channels init", err)
	}

	var fanCtl *fan.Fan
	if settings := rev.Settings(); settings.FanAvailable {
		out, err := newPWMOutput(fanPin, uint64(1e9/settings.FanPWMFreqHz))
		if err != nil {
			fatal(log, "fan pwm", err)
		}
		fanCtl = fan.New(out, settings)
	}

	// No flash store: save and load reply with an error
	mgr := standalone.NewManager(log.Named("loop"), ch, standalone.Config{
		Revision: rev,
		Fan:      fanCtl,
	})

	adcReady.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	adcReady.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		adcWake.Set()
	})

	mgr.Start(clock.Now())

	var rx [64]byte
	for {
		ticked := clock.sync()
		if in := readUSB(rx[:]); len(in) > 0 {
			if n := mgr.Feed(in); n < len(in) {
				log.Warn("input overflow", zap.Int("dropped", len(in)-n))
			}
		}
		if adcWake.TakePending() || ticked {
			if err := mgr.Poll(clock.Now()); err != nil {
				log.Warn("poll failed", zap.Error(err))
			}
		}
		if out := mgr.GetOutput(); len(out) > 0 {
			writeUSB(out)
		}

		// Yield to the USB stack
		time.Sleep(10 * time.Microsecond)
	}
}

func strapInputs() [4]core.InputPin {
	var straps [4]core.InputPin
	for i, p := range hwrevPins {
		p.Configure(machine.PinConfig{Mode: machine.PinInput})
		straps[i] = p
	}
	return straps
}

// channelPins configures the DAC bus, driver controls, limit PWMs and
// monitor multiplexers of both channels.
func channelPins() ([channels.Count]channels.Pins, error) {
	var pins [channels.Count]channels.Pins
	dacSPI, err := dacBus.configure()
	if err != nil {
		return pins, err
	}
	initMonitors()
	for i, w := range tecWiring {
		mon := newMonitorMux(w.monitor)
		p := channels.Pins{
			DacBus:          dacSPI,
			DacSync:         outputPin(w.dacSync, true),
			DacSyncIdleHigh: true,
			Shdn:            outputPin(w.shdn, false),
			DacFeedback:     mon.input(monDacFeedback),
			Vref:            mon.input(monVref),
			ITec:            mon.input(monITec),
			TecU:            mon.input(monTecU),
		}
		for _, out := range []struct {
			pin machine.Pin
			dst *core.PWMOutput
		}{
			{w.maxV, &p.MaxV},
			{w.maxIPos, &p.MaxIPos},
			{w.maxINeg, &p.MaxINeg},
		} {
			pwm, err := newPWMOutput(out.pin, limitPWMPeriod)
			if err != nil {
				return pins, err
			}
			*out.dst = pwm
		}
		pins[i] = p
	}
	return pins, nil
}

// writeUSB writes out. The rest is dropped when the host stops reading so
// a closed port does not stall the control loop.
func writeUSB(out []byte) {
	written := 0
	for written < len(out) {
		n, err := USBWriteBytes(out[written:])
		if err != nil || n == 0 {
			return
		}
		written += n
	}
}

// fatal logs err and blinks the LED forever with the drivers left off
func fatal(log *zap.Logger, what string, err error) {
	log.Error("startup failed", zap.String("stage", what), zap.Error(err))
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(100 * time.Millisecond)
	}
}

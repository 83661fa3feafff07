// Package ad7172 drives the AD7172-2 24-bit delta-sigma ADC over SPI.
//
// Every register access is checksummed (XOR or CRC-8, see package protocol)
// and retried on mismatch. Writes are verified by reading the register back.
package ad7172

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"thermostat/core"
	"thermostat/protocol"
)

// SPI bus settings for the AD7172-2
var SPIConfig = core.SPIConfig{Mode: 3, Rate: 2_000_000}

const (
	// readFlag is the WEN=0, R/W=1 communications register prefix
	readFlag = 0x40

	// idMask and idValue select the AD7172-2 family in the ID register
	idMask  = 0xFFF0
	idValue = 0x00D0
)

// ErrRetriesExhausted is returned when a retry limit is configured and a
// register access kept failing verification.
var ErrRetriesExhausted = errors.New("ad7172: retries exhausted")

// Option configures an Adc
type Option func(*Adc)

// WithLogger sets the logger used for retry warnings and the init banner
func WithLogger(log *zap.Logger) Option {
	return func(a *Adc) {
		a.log = log
	}
}

// WithRetryLimit bounds checksum retries, write verification retries, the
// identify loop and calibration polls to n attempts each. Zero (the default)
// retries forever.
func WithRetryLimit(n int) Option {
	return func(a *Adc) {
		a.retryLimit = n
	}
}

// Adc is one AD7172-2 on a dedicated chip select
type Adc struct {
	bus          core.SPI
	nss          core.OutputPin
	checksumMode protocol.ChecksumMode
	retryLimit   int
	log          *zap.Logger
}

// New resets the converter, enables CRC checking, waits for a valid ID and
// starts continuous conversion with the internal reference.
func New(bus core.SPI, nss core.OutputPin, opts ...Option) (*Adc, error) {
	a := &Adc{
		bus:          bus,
		nss:          nss,
		checksumMode: protocol.ChecksumOff,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.nss.Set(true)

	if err := a.Reset(); err != nil {
		return nil, err
	}
	if err := a.SetChecksumMode(protocol.ChecksumCrc); err != nil {
		return nil, err
	}

	retries := 0
	var id uint16
	for {
		var err error
		id, err = a.Identify()
		if err != nil {
			return nil, err
		}
		if id&idMask == idValue {
			break
		}
		retries++
		if a.exhausted(retries) {
			return nil, fmt.Errorf("identify: id %#04x: %w", id, ErrRetriesExhausted)
		}
	}
	a.log.Info("ADC identified", zap.String("id", fmt.Sprintf("%04X", id)), zap.Int("retries", retries))

	mode := AdcModeData{Empty(AdcModeReg)}
	mode.SetRefEn(true)
	mode.SetMode(ModeContinuousConversion)
	if err := a.writeReg(AdcModeReg, mode.RegData); err != nil {
		return nil, err
	}
	return a, nil
}

// ChecksumMode returns the mode used for register reads
func (a *Adc) ChecksumMode() protocol.ChecksumMode {
	return a.checksumMode
}

func (a *Adc) exhausted(attempts int) bool {
	return a.retryLimit > 0 && attempts >= a.retryLimit
}

// Reset clocks 64 ones into the serial interface, returning the device to
// its power-on state.
func (a *Adc) Reset() error {
	buf := [8]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	a.nss.Set(false)
	err := core.Transfer(a.bus, buf[:])
	a.nss.Set(true)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

// Identify returns the ID register, 0x00DX for an AD7172-2
func (a *Adc) Identify() (uint16, error) {
	data, err := a.readReg(IDReg)
	if err != nil {
		return 0, err
	}
	return IDData{data}.ID(), nil
}

// SetChecksumMode switches the interface checksum. The IFMODE write itself
// goes out under the previous mode; reads switch afterwards.
func (a *Adc) SetChecksumMode(mode protocol.ChecksumMode) error {
	data, err := a.readReg(IfModeReg)
	if err != nil {
		return err
	}
	IfModeData{data}.SetCrc(uint8(mode))
	if err := a.writeReg(IfModeReg, data); err != nil {
		return err
	}
	a.checksumMode = mode
	return nil
}

// SetSyncEnable sets GPIOCON.SYNC_EN
func (a *Adc) SetSyncEnable(enable bool) error {
	return a.updateReg(GpioConReg, func(d RegData) {
		GpioConData{d}.SetSyncEn(enable)
	})
}

// SetupChannel binds channel index to setup index: unipolar, all buffers on,
// internal reference, sinc5+sinc1 with the 16.67 SPS postfilter, and enables
// it with the given inputs.
func (a *Adc) SetupChannel(index uint8, inPos, inNeg Input) error {
	err := a.updateReg(SetupConReg(index), func(d RegData) {
		s := SetupConData{d}
		s.SetBipolar(false)
		s.SetRefBufPos(true)
		s.SetRefBufNeg(true)
		s.SetAinBufPos(true)
		s.SetAinBufNeg(true)
		s.SetRefSel(RefInternal)
	})
	if err != nil {
		return err
	}
	err = a.updateReg(FiltConReg(index), func(d RegData) {
		f := FiltConData{d}
		f.SetEnhFiltEn(true)
		f.SetEnhFilt(F16SPS)
		f.SetOrder(Sinc5Sinc1)
	})
	if err != nil {
		return err
	}
	return a.updateReg(ChannelReg(index), func(d RegData) {
		c := ChannelData{d}
		c.SetSetup(index)
		c.SetEnabled(true)
		c.SetAinPos(inPos)
		c.SetAinNeg(inNeg)
	})
}

// CalibrateOffset runs a system offset calibration on the enabled channels
// and returns to continuous conversion.
func (a *Adc) CalibrateOffset() error {
	if err := a.setMode(ModeSystemOffsetCalibration); err != nil {
		return err
	}
	for polls := 0; ; polls++ {
		data, err := a.readReg(StatusReg)
		if err != nil {
			return err
		}
		if (StatusData{data}).Ready() {
			break
		}
		if a.exhausted(polls + 1) {
			return fmt.Errorf("offset calibration: %w", ErrRetriesExhausted)
		}
	}
	return a.setMode(ModeContinuousConversion)
}

func (a *Adc) setMode(mode Mode) error {
	return a.updateReg(AdcModeReg, func(d RegData) {
		AdcModeData{d}.SetMode(mode)
	})
}

// GetPostFilter returns the postfilter of setup index. ok is false when
// the enhanced filter is disabled.
func (a *Adc) GetPostFilter(index uint8) (filter PostFilter, ok bool, err error) {
	data, err := a.readReg(FiltConReg(index))
	if err != nil {
		return PostFilterInvalid, false, err
	}
	f := FiltConData{data}
	if !f.EnhFiltEn() {
		return PostFilterInvalid, false, nil
	}
	return f.EnhFilt(), true, nil
}

// SetPostFilter enables filter on setup index, or disables the enhanced
// filter when enable is false.
func (a *Adc) SetPostFilter(index uint8, filter PostFilter, enable bool) error {
	return a.updateReg(FiltConReg(index), func(d RegData) {
		f := FiltConData{d}
		f.SetEnhFiltEn(enable)
		if enable {
			f.SetEnhFilt(filter)
		}
	})
}

// DataReady returns the channel a pending result belongs to
func (a *Adc) DataReady() (channel uint8, ready bool, err error) {
	data, err := a.readReg(StatusReg)
	if err != nil {
		return 0, false, err
	}
	s := StatusData{data}
	if !s.Ready() {
		return 0, false, nil
	}
	return s.Channel(), true, nil
}

// ReadData returns the raw 24-bit conversion result
func (a *Adc) ReadData() (uint32, error) {
	data, err := a.readReg(DataReg)
	if err != nil {
		return 0, err
	}
	return ConversionData{data}.Raw(), nil
}

// ReadDataSigned returns the conversion result with bit 23 moved to the sign
// bit, for bipolar setups.
func (a *Adc) ReadDataSigned() (int32, error) {
	data, err := a.readReg(DataReg)
	if err != nil {
		return 0, err
	}
	return ConversionData{data}.Signed(), nil
}

// GetCalibration captures the offset, gain and polarity of setup index
func (a *Adc) GetCalibration(index uint8) (ChannelCalibration, error) {
	offset, err := a.readReg(OffsetReg(index))
	if err != nil {
		return ChannelCalibration{}, err
	}
	gain, err := a.readReg(GainReg(index))
	if err != nil {
		return ChannelCalibration{}, err
	}
	setup, err := a.readReg(SetupConReg(index))
	if err != nil {
		return ChannelCalibration{}, err
	}
	return ChannelCalibration{
		Offset:  OffsetData{offset}.Offset(),
		Gain:    GainData{gain}.Gain(),
		Bipolar: SetupConData{setup}.Bipolar(),
	}, nil
}

// readReg reads reg, retrying until the device checksum matches
func (a *Adc) readReg(reg Register) (RegData, error) {
	addr := readFlag | reg.Addr
	for attempt := 1; ; attempt++ {
		sum := protocol.NewChecksum(a.checksumMode)
		sum.Feed(addr)
		out, withSum := sum.Result()

		data := Empty(reg)
		in, err := a.transfer(addr, data, out, withSum)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", reg.Name, err)
		}

		sum.Feed(data...)
		expected, _ := sum.Result()
		if !withSum || expected == in {
			return data, nil
		}
		a.log.Warn("read checksum error, retrying",
			zap.String("reg", reg.Name),
			zap.Uint8("addr", reg.Addr),
			zap.Uint8("expected", expected),
			zap.Uint8("received", in),
			zap.Int("attempt", attempt))
		if a.exhausted(attempt) {
			return nil, fmt.Errorf("read %s: %w", reg.Name, ErrRetriesExhausted)
		}
	}
}

// writeReg writes data to reg and reads it back until they agree. Writes
// carry a CRC unless checksums are off.
func (a *Adc) writeReg(reg Register, data RegData) error {
	mode := protocol.ChecksumCrc
	if a.checksumMode == protocol.ChecksumOff {
		mode = protocol.ChecksumOff
	}
	for attempt := 1; ; attempt++ {
		sum := protocol.NewChecksum(mode)
		sum.Feed(reg.Addr)
		sum.Feed(data...)
		out, withSum := sum.Result()

		if _, err := a.transfer(reg.Addr, data.Clone(), out, withSum); err != nil {
			return fmt.Errorf("write %s: %w", reg.Name, err)
		}

		readback, err := a.readReg(reg)
		if err != nil {
			return err
		}
		if readback.Equal(data) {
			return nil
		}
		a.log.Warn("write readback mismatch, retrying",
			zap.String("reg", reg.Name),
			zap.Uint8("addr", reg.Addr),
			zap.Binary("wrote", data),
			zap.Binary("read", readback),
			zap.Int("attempt", attempt))
		if a.exhausted(attempt) {
			return fmt.Errorf("write %s: %w", reg.Name, ErrRetriesExhausted)
		}
	}
}

// updateReg is a read-modify-write of reg
func (a *Adc) updateReg(reg Register, f func(RegData)) error {
	data, err := a.readReg(reg)
	if err != nil {
		return err
	}
	f(data)
	return a.writeReg(reg, data)
}

// transfer runs one framed transaction: address byte, payload exchanged in
// place, then the optional checksum byte. The byte received in the checksum
// slot is returned.
func (a *Adc) transfer(addr uint8, payload []byte, checksum uint8, withChecksum bool) (uint8, error) {
	a.nss.Set(false)
	defer a.nss.Set(true)

	if err := core.Transfer(a.bus, []byte{addr}); err != nil {
		return 0, err
	}
	if err := core.Transfer(a.bus, payload); err != nil {
		return 0, err
	}
	if !withChecksum {
		return 0, nil
	}
	buf := []byte{checksum}
	if err := core.Transfer(a.bus, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

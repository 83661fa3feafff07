package ad7172_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermostat/ad7172"
	"thermostat/protocol"
	"thermostat/sim"
)

func constantInput(v float64) sim.InputFunc {
	return func(pos, neg ad7172.Input) float64 { return v }
}

func newADC(t *testing.T, dev *sim.AD7172, opts ...ad7172.Option) *ad7172.Adc {
	t.Helper()
	adc, err := ad7172.New(dev, dev.NSS(), opts...)
	require.NoError(t, err)
	return adc
}

func TestInit(t *testing.T) {
	dev := sim.NewAD7172(constantInput(0.5))
	adc := newADC(t, dev)

	assert.Equal(t, protocol.ChecksumCrc, adc.ChecksumMode())
	id, err := adc.Identify()
	require.NoError(t, err)
	assert.Equal(t, uint16(sim.DefaultID), id)

	ifMode := ad7172.IfModeData{RegData: dev.Register(ad7172.IfModeReg)}
	assert.Equal(t, uint8(protocol.ChecksumCrc), ifMode.Crc())

	mode := ad7172.AdcModeData{RegData: dev.Register(ad7172.AdcModeReg)}
	assert.True(t, mode.RefEn())
	assert.Equal(t, ad7172.ModeContinuousConversion, mode.Mode())
}

func TestSetupChannel(t *testing.T) {
	dev := sim.NewAD7172(constantInput(0.5))
	adc := newADC(t, dev)

	for i := 0; i < 2; i++ {
		require.NoError(t, adc.SetupChannel(1, ad7172.Ain2, ad7172.Ain3))
	}

	ch := ad7172.ChannelData{RegData: dev.Register(ad7172.ChannelReg(1))}
	assert.True(t, ch.Enabled())
	assert.Equal(t, uint8(1), ch.Setup())
	assert.Equal(t, ad7172.Ain2, ch.AinPos())
	assert.Equal(t, ad7172.Ain3, ch.AinNeg())

	setup := ad7172.SetupConData{RegData: dev.Register(ad7172.SetupConReg(1))}
	assert.False(t, setup.Bipolar())
	assert.True(t, setup.RefBufPos())
	assert.True(t, setup.RefBufNeg())
	assert.True(t, setup.AinBufPos())
	assert.True(t, setup.AinBufNeg())
	assert.Equal(t, ad7172.RefInternal, setup.RefSel())

	filter, ok, err := adc.GetPostFilter(1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ad7172.F16SPS, filter)
	filt := ad7172.FiltConData{RegData: dev.Register(ad7172.FiltConReg(1))}
	assert.Equal(t, ad7172.Sinc5Sinc1, filt.Order())
}

func TestPostFilter(t *testing.T) {
	dev := sim.NewAD7172(constantInput(0.5))
	adc := newADC(t, dev)
	require.NoError(t, adc.SetupChannel(0, ad7172.Ain0, ad7172.Ain1))

	require.NoError(t, adc.SetPostFilter(0, ad7172.F27SPS, true))
	filter, ok, err := adc.GetPostFilter(0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ad7172.F27SPS, filter)

	require.NoError(t, adc.SetPostFilter(0, ad7172.PostFilterInvalid, false))
	_, ok, err = adc.GetPostFilter(0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConversion(t *testing.T) {
	dev := sim.NewAD7172(func(pos, neg ad7172.Input) float64 {
		if pos == ad7172.Ain0 {
			return 0.8
		}
		return 0.4
	})
	adc := newADC(t, dev)
	require.NoError(t, adc.SetSyncEnable(false))
	require.NoError(t, adc.SetupChannel(0, ad7172.Ain0, ad7172.Ain1))
	require.NoError(t, adc.SetupChannel(1, ad7172.Ain2, ad7172.Ain3))
	require.NoError(t, adc.CalibrateOffset())

	_, ready, err := adc.DataReady()
	require.NoError(t, err)
	assert.False(t, ready, "nothing converted yet")

	cal0, err := adc.GetCalibration(0)
	require.NoError(t, err)
	cal1, err := adc.GetCalibration(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x80_0000), cal0.Offset)
	assert.Equal(t, uint32(sim.DefaultGain), cal0.Gain)
	assert.False(t, cal0.Bipolar)

	want := map[uint8]float64{0: 0.8, 1: 0.4}
	cals := map[uint8]ad7172.ChannelCalibration{0: cal0, 1: cal1}
	for n := 0; n < 4; n++ {
		dev.Convert()
		ch, ready, err := adc.DataReady()
		require.NoError(t, err)
		require.True(t, ready)
		code, err := adc.ReadData()
		require.NoError(t, err)
		assert.InDelta(t, want[ch], float64(cals[ch].ConvertData(code)), 1e-6, "channel %d", ch)

		_, ready, err = adc.DataReady()
		require.NoError(t, err)
		assert.False(t, ready, "reading data clears ready")
	}
}

func TestDisconnectedSensor(t *testing.T) {
	dev := sim.NewAD7172(constantInput(math.NaN()))
	adc := newADC(t, dev)
	require.NoError(t, adc.SetupChannel(0, ad7172.Ain0, ad7172.Ain1))
	require.NoError(t, adc.CalibrateOffset())

	dev.Convert()
	code, err := adc.ReadData()
	require.NoError(t, err)
	assert.Equal(t, ad7172.MaxValue, code)
}

func TestRecoversFromLinkErrors(t *testing.T) {
	dev := sim.NewAD7172(constantInput(0.5))
	adc := newADC(t, dev)

	dev.CorruptReads = 2
	id, err := adc.Identify()
	require.NoError(t, err)
	assert.Equal(t, uint16(sim.DefaultID), id)

	dev.DropWrites = 1
	require.NoError(t, adc.SetSyncEnable(true))
	gpio := ad7172.GpioConData{RegData: dev.Register(ad7172.GpioConReg)}
	assert.True(t, gpio.SyncEn())
}

func TestRetryLimitSurfacesPersistentFault(t *testing.T) {
	dev := sim.NewAD7172(constantInput(0.5))
	adc := newADC(t, dev, ad7172.WithRetryLimit(3))

	dev.CorruptReads = 3
	_, err := adc.Identify()
	assert.ErrorIs(t, err, ad7172.ErrRetriesExhausted)
}

func TestConvertData(t *testing.T) {
	unipolar := ad7172.ChannelCalibration{Offset: 0x80_0000, Gain: 0x40_0000}
	assert.InDelta(t, 0.0, float64(unipolar.ConvertData(0)), 1e-12)
	assert.InDelta(t, 1.0, float64(unipolar.ConvertData(1<<23)), 1e-12)

	bipolar := ad7172.ChannelCalibration{Offset: 0x80_0000, Gain: 0x40_0000, Bipolar: true}
	assert.InDelta(t, 0.0, float64(bipolar.ConvertData(0x80_0000)), 1e-12)
	assert.InDelta(t, 1.0, float64(bipolar.ConvertData(0x80_0000+1<<22)), 1e-12)

	// offset register adds a signed correction
	shifted := ad7172.ChannelCalibration{Offset: 0x80_0000 + 1<<20, Gain: 0x40_0000}
	assert.InDelta(t, 0.25, float64(shifted.ConvertData(0)), 1e-12)
}

func TestEnums(t *testing.T) {
	assert.Equal(t, ad7172.F20SPS, ad7172.ClosestPostFilter(19))
	assert.Equal(t, ad7172.F16SPS, ad7172.ClosestPostFilter(1))
	assert.Equal(t, ad7172.F27SPS, ad7172.ClosestPostFilter(100))
	assert.Equal(t, ad7172.F21SPS, ad7172.ClosestPostFilter(21))
	assert.True(t, math.IsNaN(ad7172.PostFilterInvalid.OutputRate()))

	assert.Equal(t, ad7172.InputInvalid, ad7172.InputFromBits(5))
	assert.Equal(t, ad7172.RefPos, ad7172.InputFromBits(21))
	assert.Equal(t, ad7172.RefInternal, ad7172.RefSourceFromBits(0b10))
	assert.Equal(t, ad7172.RefInvalid, ad7172.RefSourceFromBits(0b01))
	assert.Equal(t, ad7172.FilterOrderInvalid, ad7172.DigitalFilterOrderFromBits(0b01))
	assert.Equal(t, "ain3", ad7172.Ain3.String())
	assert.Equal(t, "16.67sps", ad7172.F16SPS.String())
}

package standalone

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermostat/ad7172"
	"thermostat/channels"
	"thermostat/fan"
	"thermostat/hwrev"
	"thermostat/sim"
)

type memStore struct {
	cfgs  []channels.ChannelConfig
	saves int
	err   error
}

var _ Store = (*memStore)(nil)

func (s *memStore) Load() ([]channels.ChannelConfig, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]channels.ChannelConfig, len(s.cfgs))
	copy(out, s.cfgs)
	return out, nil
}

func (s *memStore) Save(cfgs []channels.ChannelConfig) error {
	if s.err != nil {
		return s.err
	}
	s.cfgs = append([]channels.ChannelConfig(nil), cfgs...)
	s.saves++
	return nil
}

type rig struct {
	board *sim.Board
	ch    *channels.Channels
	mgr   *Manager
	now   uint32
}

func newRig(t *testing.T, cfg Config) *rig {
	t.Helper()
	board := sim.NewBoard(sim.DefaultPlant)
	adc, err := ad7172.New(board.ADC, board.ADC.NSS())
	require.NoError(t, err)
	ch, err := channels.New(nil, adc, board.AllPins())
	require.NoError(t, err)
	if cfg.Revision == (hwrev.HWRev{}) {
		cfg.Revision = hwrev.Detect(board.StrapPins())
	}
	r := &rig{board: board, ch: ch, mgr: NewManager(nil, ch, cfg)}
	r.mgr.Start(0)
	return r
}

// send feeds line, runs one poll and returns the reply lines
func (r *rig) send(t *testing.T, line string) []string {
	t.Helper()
	r.mgr.Feed([]byte(line + "\n"))
	require.NoError(t, r.mgr.Poll(r.now))
	return r.lines()
}

func (r *rig) lines() []string {
	out := bytes.TrimSuffix(r.mgr.GetOutput(), []byte("\n"))
	if len(out) == 0 {
		return nil
	}
	var lines []string
	for _, l := range bytes.Split(out, []byte("\n")) {
		lines = append(lines, string(l))
	}
	return lines
}

func (r *rig) step(t *testing.T, ms uint32) {
	t.Helper()
	r.board.Step(float64(ms) / 1000)
	r.now += ms
	require.NoError(t, r.mgr.Poll(r.now))
}

func decode(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var v map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &v), line)
	return v
}

func TestCommandReplies(t *testing.T) {
	r := newRig(t, Config{})
	assert.True(t, r.mgr.IsRunning())

	assert.Equal(t, []string{"{}"}, r.send(t, "pid 0 target 30"))
	assert.Equal(t, 30.0, r.ch.State(0).PID.Target)

	lines := r.send(t, "warp 9")
	require.Len(t, lines, 1)
	assert.Contains(t, decode(t, lines[0])["error"], "unknown command")

	lines = r.send(t, "pid 5 kp 1")
	require.Len(t, lines, 1)
	assert.Contains(t, decode(t, lines[0]), "error")

	assert.Nil(t, r.send(t, "   "))
}

func TestCommandsSplitAcrossFeeds(t *testing.T) {
	r := newRig(t, Config{})
	r.mgr.Feed([]byte("center 1 "))
	require.NoError(t, r.mgr.Poll(0))
	assert.Nil(t, r.lines())

	r.mgr.Feed([]byte("1.4\npower 1 up\n"))
	require.NoError(t, r.mgr.Poll(0))
	assert.Equal(t, []string{"{}", "{}"}, r.lines())
	assert.Equal(t, channels.CenterOverride(1.4), r.ch.State(1).Center)
	assert.True(t, r.board.TEC[1].Powered())
}

func TestReport(t *testing.T) {
	r := newRig(t, Config{})
	lines := r.send(t, "report")
	require.Len(t, lines, channels.Count)
	for i, l := range lines {
		v := decode(t, l)
		assert.Equal(t, float64(i), v["channel"])
		assert.Contains(t, v, "i_set")
		assert.Contains(t, v, "tec_u_meas")
	}
}

func TestReportMode(t *testing.T) {
	r := newRig(t, Config{ReportPeriod: 100})

	lines := r.send(t, "report mode on")
	require.Len(t, lines, 1+channels.Count)
	assert.Equal(t, "{}", lines[0])

	r.step(t, 50)
	assert.Nil(t, r.lines())
	r.step(t, 50)
	assert.Len(t, r.lines(), channels.Count)

	// a second "on" keeps one timer
	assert.Equal(t, []string{"{}"}, r.send(t, "report mode on"))
	r.step(t, 100)
	assert.Len(t, r.lines(), channels.Count)

	assert.Equal(t, []string{"{}"}, r.send(t, "report mode off"))
	r.step(t, 100)
	r.step(t, 100)
	assert.Nil(t, r.lines())

	lines = r.send(t, "report mode maybe")
	require.Len(t, lines, 1)
	assert.Contains(t, decode(t, lines[0]), "error")
}

func TestReportModeAtStart(t *testing.T) {
	r := newRig(t, Config{ReportMode: true, ReportPeriod: 200})
	require.NoError(t, r.mgr.Poll(0))
	assert.Len(t, r.lines(), channels.Count)
	r.step(t, 100)
	assert.Nil(t, r.lines())
	r.step(t, 100)
	assert.Len(t, r.lines(), channels.Count)
}

func TestShow(t *testing.T) {
	r := newRig(t, Config{})

	for _, what := range []string{"pid", "pwm", "s-h", "postfilter"} {
		lines := r.send(t, "show "+what)
		require.Len(t, lines, channels.Count, what)
		for i, l := range lines {
			assert.Equal(t, float64(i), decode(t, l)["channel"], what)
		}
	}

	lines := r.send(t, "show hwrev")
	require.Len(t, lines, 1)
	rev := decode(t, lines[0])["rev"].(map[string]interface{})
	assert.Equal(t, 2.0, rev["major"])
	assert.Equal(t, 2.0, rev["minor"])

	lines = r.send(t, "show fan")
	require.Len(t, lines, 1)
	assert.Contains(t, decode(t, lines[0])["error"], ErrNoFan.Error())

	lines = r.send(t, "show nothing")
	require.Len(t, lines, 1)
	assert.Contains(t, decode(t, lines[0]), "error")
}

func TestSaveLoad(t *testing.T) {
	store := &memStore{}
	r := newRig(t, Config{Store: store})

	r.send(t, "pid 0 target 31")
	r.send(t, "s-h 1 b 3950")
	assert.Equal(t, []string{"{}"}, r.send(t, "save"))
	require.Len(t, store.cfgs, channels.Count)
	assert.Equal(t, 31.0, store.cfgs[0].PIDTarget)
	assert.Equal(t, 3950.0, store.cfgs[1].SH.B)

	r.send(t, "pid 0 target 20")
	r.send(t, "pid 1 target 20")
	assert.Equal(t, []string{"{}"}, r.send(t, "load 0"))
	assert.Equal(t, 31.0, r.ch.State(0).PID.Target)
	assert.Equal(t, 20.0, r.ch.State(1).PID.Target)

	r.send(t, "pid 1 target 22")
	assert.Equal(t, []string{"{}"}, r.send(t, "save 1"))
	assert.Equal(t, 31.0, store.cfgs[0].PIDTarget)
	assert.Equal(t, 22.0, store.cfgs[1].PIDTarget)

	r.send(t, "pid 0 target 10")
	require.NoError(t, r.mgr.Load())
	assert.Equal(t, 31.0, r.ch.State(0).PID.Target)

	lines := r.send(t, "save 7")
	require.Len(t, lines, 1)
	assert.Contains(t, decode(t, lines[0]), "error")

	store.err = errors.New("flash busy")
	assert.ErrorIs(t, r.mgr.Save(), store.err)
}

func TestSaveSingleChannelIntoEmptyStore(t *testing.T) {
	store := &memStore{}
	r := newRig(t, Config{Store: store})
	r.send(t, "pid 1 target 33")
	assert.Equal(t, []string{"{}"}, r.send(t, "save 1"))
	require.Len(t, store.cfgs, channels.Count)
	assert.Equal(t, channels.DefaultChannelConfig(), store.cfgs[0])
	assert.Equal(t, 33.0, store.cfgs[1].PIDTarget)
}

func TestNoStore(t *testing.T) {
	r := newRig(t, Config{})
	assert.ErrorIs(t, r.mgr.Save(), ErrNoStore)
	assert.ErrorIs(t, r.mgr.Load(), ErrNoStore)
	lines := r.send(t, "load")
	require.Len(t, lines, 1)
	assert.Contains(t, decode(t, lines[0])["error"], ErrNoStore.Error())
}

func TestFan(t *testing.T) {
	rev := hwrev.HWRev{Major: 2, Minor: 2}
	out := sim.NewPWM(0xFFFF)
	f := fan.New(out, rev.Settings())
	r := newRig(t, Config{Revision: rev, Fan: f})

	assert.Equal(t, []string{"{}"}, r.send(t, "fan 50"))
	assert.False(t, f.AutoMode())
	assert.Equal(t, uint32(50), f.PWM())

	lines := r.send(t, "show fan")
	require.Len(t, lines, 1)
	assert.Equal(t, 50.0, decode(t, lines[0])["fan_pwm"])

	assert.Equal(t, []string{"{}"}, r.send(t, "fan-curve 0 0 0.5"))
	assert.Equal(t, []string{"{}"}, r.send(t, "fan auto"))
	assert.True(t, f.AutoMode())

	// the curve is evaluated on the fan timer
	r.now = FanCyclePeriod
	require.NoError(t, r.mgr.Poll(r.now))
	assert.Equal(t, uint32(50), f.PWM())

	assert.Equal(t, []string{"{}"}, r.send(t, "fan-curve default"))
	r.now += FanCyclePeriod
	require.NoError(t, r.mgr.Poll(r.now))
	assert.InDelta(t, 0.04, out.Ratio(), 1e-3)

	for _, bad := range []string{"fan", "fan fast", "fan-curve 1 2"} {
		lines := r.send(t, bad)
		require.Len(t, lines, 1, bad)
		assert.Contains(t, decode(t, lines[0]), "error", bad)
	}
}

// faultyPWM fails every duty write after the first n
type faultyPWM struct {
	sim.PWM
	n int
}

func (p *faultyPWM) SetDuty(v uint32) error {
	if p.n == 0 {
		return errors.New("pwm slice fault")
	}
	p.n--
	return p.PWM.SetDuty(v)
}

func TestFanFaultReply(t *testing.T) {
	rev := hwrev.HWRev{Major: 2, Minor: 2}
	out := &faultyPWM{PWM: *sim.NewPWM(0xFFFF), n: 2}
	r := newRig(t, Config{Revision: rev, Fan: fan.New(out, rev.Settings())})

	assert.Equal(t, []string{"{}"}, r.send(t, "fan 30"))
	lines := r.send(t, "fan 50")
	require.Len(t, lines, 1)
	assert.Contains(t, decode(t, lines[0])["error"], "pwm slice fault")
}

func TestFanWithoutFan(t *testing.T) {
	r := newRig(t, Config{})
	lines := r.send(t, "fan 20")
	require.Len(t, lines, 1)
	assert.Contains(t, decode(t, lines[0])["error"], ErrNoFan.Error())
}

func TestHoldsTargetThroughCommands(t *testing.T) {
	r := newRig(t, Config{})
	for _, line := range []string{
		"pid 0 kp 1",
		"pid 0 ki 0.1",
		"pid 0 kd 0",
		"pid 0 output_min -2",
		"pid 0 output_max 2",
		"pid 0 integral_min -100",
		"pid 0 integral_max 100",
		"pid 0 target 30",
		"pwm 0 pid",
	} {
		require.Equal(t, []string{"{}"}, r.send(t, line), line)
	}
	for n := 0; n < 4000; n++ {
		r.step(t, 50)
	}
	temp, ok := r.ch.GetTemperature(0)
	require.True(t, ok)
	assert.InDelta(t, 30.0, float64(temp), 0.05)
}

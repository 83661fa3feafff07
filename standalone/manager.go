// Package standalone runs the thermostat device loop: it reads text
// commands, polls the ADC, runs the periodic report and fan timers and
// queues JSON reply lines for the host link. The firmware and the host
// simulator share it.
package standalone

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"thermostat/channels"
	"thermostat/core"
	"thermostat/fan"
	"thermostat/hwrev"
	"thermostat/protocol"
)

var (
	// ErrNoStore is returned by save and load without a snapshot store
	ErrNoStore = errors.New("no snapshot store")
	// ErrNoFan is returned by fan commands on boards without a fan
	ErrNoFan = errors.New("no fan fitted")
)

const (
	// DefaultReportPeriod is the report interval in milliseconds
	DefaultReportPeriod = 1000
	// FanCyclePeriod is how often the fan curve is re-evaluated, in ms
	FanCyclePeriod = 1000

	inputCapacity  = 4 * protocol.MaxLineLength
	outputCapacity = 8 * protocol.MaxLineLength
)

// Store persists channel configurations
type Store interface {
	Load() ([]channels.ChannelConfig, error)
	Save([]channels.ChannelConfig) error
}

// Config holds the optional collaborators of a Manager
type Config struct {
	// ReportPeriod is the report interval in ms, DefaultReportPeriod if zero
	ReportPeriod uint32
	// ReportMode starts periodic reports without a "report mode on"
	ReportMode bool
	Revision   hwrev.HWRev
	// Fan is nil on boards without a fan output
	Fan   *fan.Fan
	Store Store
}

// Manager coordinates the channels with the command and report link
type Manager struct {
	log      *zap.Logger
	channels *channels.Channels
	fan      *fan.Fan
	rev      hwrev.HWRev
	store    Store

	registry  *core.CommandRegistry
	scheduler core.Scheduler

	reportTimer  core.Timer
	reportPeriod uint32
	reporting    bool
	reportQueued bool

	// Serial interface
	input  *protocol.LineFifo
	output *protocol.LineFifo

	now     uint32
	replied bool
	running bool
}

// NewManager creates a manager for ch. log may be nil.
func NewManager(log *zap.Logger, ch *channels.Channels, cfg Config) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		log:          log,
		channels:     ch,
		fan:          cfg.Fan,
		rev:          cfg.Revision,
		store:        cfg.Store,
		registry:     core.NewCommandRegistry(),
		reportPeriod: cfg.ReportPeriod,
		reporting:    cfg.ReportMode,
		input:        protocol.NewLineFifo(inputCapacity),
		output:       protocol.NewLineFifo(outputCapacity),
	}
	if m.reportPeriod == 0 {
		m.reportPeriod = DefaultReportPeriod
	}
	m.reportTimer.Handler = m.reportEvent

	ch.RegisterCommands(m.registry)
	m.registry.Register("report", "[mode on|off]", m.handleReport)
	m.registry.Register("show", "pid|pwm|s-h|postfilter|fan|hwrev", m.handleShow)
	m.registry.Register("save", "[<ch>]", m.handleSave)
	m.registry.Register("load", "[<ch>]", m.handleLoad)
	m.registry.Register("fan", "auto|<pwm>", m.handleFan)
	m.registry.Register("fan-curve", "default|<k_a> <k_b> <k_c>", m.handleFanCurve)
	return m
}

// Registry returns the command registry
func (m *Manager) Registry() *core.CommandRegistry {
	return m.registry
}

// Start schedules the report and fan timers relative to now
func (m *Manager) Start(now uint32) {
	m.now = now
	m.running = true
	if m.reporting {
		m.scheduleReports()
	}
	if m.fan != nil {
		m.scheduler.Schedule(core.Every(now+FanCyclePeriod, FanCyclePeriod, m.cycleFan))
	}
	m.log.Info("device loop started",
		zap.Stringer("hwrev", m.rev),
		zap.Uint32("report_period_ms", m.reportPeriod),
		zap.Int("commands", m.registry.Count()))
}

// IsRunning returns whether Start was called
func (m *Manager) IsRunning() bool {
	return m.running
}

// Feed queues received bytes and returns how many fit
func (m *Manager) Feed(data []byte) int {
	return m.input.Write(data)
}

// Poll runs one main loop iteration: queued commands, the ADC and due
// timers.
func (m *Manager) Poll(now uint32) error {
	m.now = now
	for {
		line, ok := m.input.ReadLine()
		if !ok {
			break
		}
		m.ProcessLine(string(line))
	}
	_, _, err := m.channels.PollADC(now)
	m.scheduler.Dispatch(now)
	if err != nil {
		return fmt.Errorf("poll adc: %w", err)
	}
	return nil
}

// ProcessLine runs one command. Commands without output are acknowledged
// with an empty object, failures with an error object.
func (m *Manager) ProcessLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	m.replied = false
	if err := m.registry.Dispatch(line); err != nil {
		m.log.Debug("command failed", zap.String("line", line), zap.Error(err))
		m.SendResponse(map[string]string{"error": err.Error()})
		return
	}
	if !m.replied {
		m.SendResponse(struct{}{})
	}
}

// SendResponse queues v as one JSON line
func (m *Manager) SendResponse(v interface{}) {
	m.replied = true
	b, err := json.Marshal(v)
	if err != nil {
		m.log.Error("encode response", zap.Error(err))
		return
	}
	if !m.output.WriteLine(b) {
		m.log.Warn("response dropped", zap.Int("len", len(b)))
	}
}

// GetOutput returns any pending output and clears the buffer
func (m *Manager) GetOutput() []byte {
	n := m.output.Available()
	if n == 0 {
		return nil
	}
	out := make([]byte, n)
	m.output.Read(out)
	return out
}

// Dropped returns the number of response lines lost to a full buffer
func (m *Manager) Dropped() uint32 {
	return m.output.Dropped()
}

// Load applies the stored configuration to every channel
func (m *Manager) Load() error {
	return m.load(-1)
}

// Save stores the configuration of every channel
func (m *Manager) Save() error {
	return m.save(-1)
}

func (m *Manager) load(i int) error {
	if m.store == nil {
		return ErrNoStore
	}
	cfgs, err := m.store.Load()
	if err != nil {
		return err
	}
	if i < 0 {
		return m.channels.ApplyConfigs(cfgs)
	}
	if i >= len(cfgs) {
		return fmt.Errorf("%w: %d not stored", channels.ErrChannel, i)
	}
	return m.channels.ApplyConfig(i, cfgs[i])
}

func (m *Manager) save(i int) error {
	if m.store == nil {
		return ErrNoStore
	}
	if i < 0 {
		cfgs, err := m.channels.Configs()
		if err != nil {
			return err
		}
		return m.store.Save(cfgs)
	}
	cfg, err := m.channels.Config(i)
	if err != nil {
		return err
	}
	cfgs, err := m.store.Load()
	if err != nil {
		return err
	}
	for len(cfgs) < channels.Count {
		cfgs = append(cfgs, channels.DefaultChannelConfig())
	}
	cfgs[i] = cfg
	return m.store.Save(cfgs)
}

func (m *Manager) scheduleReports() {
	if m.reportQueued {
		return
	}
	m.reportTimer.WakeTime = m.now
	m.reportQueued = true
	m.scheduler.Schedule(&m.reportTimer)
}

func (m *Manager) reportEvent(t *core.Timer) uint8 {
	if !m.reporting {
		m.reportQueued = false
		return core.SF_DONE
	}
	if err := m.writeReports(); err != nil {
		m.log.Warn("report failed", zap.Error(err))
	}
	t.WakeTime += m.reportPeriod
	return core.SF_RESCHEDULE
}

func (m *Manager) writeReports() error {
	reports, err := m.channels.Reports()
	if err != nil {
		return err
	}
	for _, r := range reports {
		m.SendResponse(r)
	}
	return nil
}

func (m *Manager) cycleFan(uint32) {
	var currents [channels.Count]float32
	for i := range currents {
		a, err := m.channels.GetTecI(i)
		if err != nil {
			m.log.Warn("fan cycle: tec current", zap.Int("channel", i), zap.Error(err))
			return
		}
		currents[i] = float32(a)
	}
	if err := m.fan.Cycle(fan.AbsMax(currents[:]...)); err != nil {
		m.log.Warn("fan cycle", zap.Error(err))
	}
}

func (m *Manager) handleReport(args []string) error {
	switch {
	case len(args) == 0:
		return m.writeReports()
	case len(args) == 2 && args[0] == "mode" && (args[1] == "on" || args[1] == "off"):
		m.reporting = args[1] == "on"
		if m.reporting {
			m.scheduleReports()
		}
		return nil
	default:
		return fmt.Errorf("%w: %v", core.ErrSyntax, args)
	}
}

func (m *Manager) handleShow(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: want 1 argument, got %d", core.ErrSyntax, len(args))
	}
	switch args[0] {
	case "fan":
		if m.fan == nil {
			return ErrNoFan
		}
		m.SendResponse(m.fan.Summary())
		return nil
	case "hwrev":
		m.SendResponse(m.rev.Summary())
		return nil
	}

	var summary func(int) (interface{}, error)
	switch args[0] {
	case "pid":
		summary = func(i int) (interface{}, error) { return m.channels.PIDSummary(i) }
	case "pwm":
		summary = func(i int) (interface{}, error) { return m.channels.PWMSummary(i) }
	case "s-h":
		summary = func(i int) (interface{}, error) { return m.channels.SteinhartHartSummary(i) }
	case "postfilter":
		summary = func(i int) (interface{}, error) { return m.channels.PostFilterSummary(i) }
	default:
		return fmt.Errorf("%w: show %q", core.ErrSyntax, args[0])
	}
	lines := make([]interface{}, 0, channels.Count)
	for i := 0; i < channels.Count; i++ {
		s, err := summary(i)
		if err != nil {
			return err
		}
		lines = append(lines, s)
	}
	for _, s := range lines {
		m.SendResponse(s)
	}
	return nil
}

// optionalChannel parses the channel argument of save and load, -1 for all
func optionalChannel(args []string) (int, error) {
	switch len(args) {
	case 0:
		return -1, nil
	case 1:
		i, err := strconv.Atoi(args[0])
		if err != nil || i < 0 || i >= channels.Count {
			return 0, fmt.Errorf("%w: %q", channels.ErrChannel, args[0])
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: want at most 1 argument, got %d", core.ErrSyntax, len(args))
	}
}

func (m *Manager) handleSave(args []string) error {
	i, err := optionalChannel(args)
	if err != nil {
		return err
	}
	return m.save(i)
}

func (m *Manager) handleLoad(args []string) error {
	i, err := optionalChannel(args)
	if err != nil {
		return err
	}
	return m.load(i)
}

func (m *Manager) handleFan(args []string) error {
	if m.fan == nil || !m.fan.Available() {
		return ErrNoFan
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: want 1 argument, got %d", core.ErrSyntax, len(args))
	}
	if args[0] == "auto" {
		m.fan.SetAutoMode(true)
		return nil
	}
	pwm, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("%w: fan pwm %q", core.ErrSyntax, args[0])
	}
	m.fan.SetAutoMode(false)
	_, err = m.fan.SetPWM(uint32(pwm))
	return err
}

func (m *Manager) handleFanCurve(args []string) error {
	if m.fan == nil || !m.fan.Available() {
		return ErrNoFan
	}
	if len(args) == 1 && args[0] == "default" {
		m.fan.RestoreDefaults()
		return nil
	}
	if len(args) != 3 {
		return fmt.Errorf("%w: want 3 coefficients, got %d", core.ErrSyntax, len(args))
	}
	var k [3]float32
	for n, arg := range args {
		v, err := strconv.ParseFloat(arg, 32)
		if err != nil {
			return fmt.Errorf("%w: coefficient %q", core.ErrSyntax, arg)
		}
		k[n] = float32(v)
	}
	m.fan.SetCurve(k[0], k[1], k[2])
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"emcore-go/bus"
	"emcore-go/services/config"
	"emcore-go/services/device"
	"emcore-go/services/hal/cpu"
	"emcore-go/services/hal/sim"
	"emcore-go/services/telemetry"
	"emcore-go/types"
	"emcore-go/x/logx"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const defaultScript = `right 3; wait 2s; stats; up; wait 100ms; tap double; wait 1s; tap single; wait 1s; press; wait 2s; stats`

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the core on simulated hardware and play a script",
		Long: `Start the core on simulated hardware and play a script against it.

Script commands are separated by ';' or newlines:

  right [n] | left [n] | up | down | press | idle | raw <sample>
  hold <dir> <duration>
  tap single | tap double [gap]
  wait <duration>
  stats

Usage:
  emcore-sim run
  emcore-sim run --speedup 10 --script "right 2; wait 1s; press; wait 1s"
  emcore-sim run --config core.yaml --gpio-chip gpiochip0 --led0 17 --led1 27`,
		RunE: runRun,
	}

	cmd.Flags().String("config", "", "YAML config file (default: embedded config for --device)")
	cmd.Flags().String("device", "sim", "Embedded config to use when --config is not given")
	cmd.Flags().Uint32("speedup", 1, "Divide every simulated duration by this factor")
	cmd.Flags().String("script", defaultScript, "Commands to play")
	cmd.Flags().String("log-level", "", "Override log level (none, error, warn, info, debug)")
	cmd.Flags().Bool("no-color", false, "Disable coloured output")
	cmd.Flags().String("gpio-chip", "", "Mirror the LEDs onto this GPIO chip (Linux only)")
	cmd.Flags().Int("led0", 17, "GPIO offset for LED0")
	cmd.Flags().Int("led1", 27, "GPIO offset for LED1")
	cmd.Flags().Int("int1", -1, "GPIO offset of an extra tap interrupt line (with --gpio-chip)")
	return cmd
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.Load(path)
	}
	dev, _ := cmd.Flags().GetString("device")
	return config.Embedded(dev)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	speedup, _ := cmd.Flags().GetUint32("speedup")
	src, _ := cmd.Flags().GetString("script")
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		color.NoColor = true
	}

	steps, err := parseScript(src)
	if err != nil {
		return err
	}

	log := logx.NewWriter(os.Stderr, logx.ParseLevel(cfg.LogLevel))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Bus and telemetry
	b := bus.NewBus(cfg.Telemetry.BusQueueLen)
	pub := telemetry.NewPublisher(b.NewConnection("core"), cfg.Telemetry.QueueLen)
	go pub.Run(ctx)

	cfgConn := b.NewConnection("config")
	if err := config.NewConfigService(&cfg).Start(ctx, cfgConn); err != nil {
		return err
	}

	mon := b.NewConnection("monitor").Subscribe(bus.T("core", "#"))
	monDone := make(chan struct{})
	go func() {
		defer close(monDone)
		for m := range mon.Channel() {
			printEvent(m)
		}
	}()

	// Simulated board
	proc := cpu.New(cpu.WithLogger(log.WithTag("cpu")))
	env := sim.Env{IRQ: proc, Speedup: speedup}
	lt := sim.NewLETimer(env, cfg.Scheduler.RefHz)
	adc := sim.NewADC(env, cfg.Joystick.ThresholdLow, cfg.Joystick.ThresholdHigh)
	line := sim.NewEdgeLine(env)
	model := sim.NewBMA280(env, line)
	led0, led1 := sim.NewLED("led0"), sim.NewLED("led1")

	hw := device.Hardware{
		Sleeper: proc,
		Counter: lt,
		Timer:   sim.NewOneShot(env),
		ADC:     adc,
		TapLine: line,
		SPI:     model,
		LED0:    led0,
		LED1:    led1,
	}
	if chip, _ := cmd.Flags().GetString("gpio-chip"); chip != "" {
		o0, _ := cmd.Flags().GetInt("led0")
		o1, _ := cmd.Flags().GetInt("led1")
		g0, g1, closeGPIO, err := openGPIOLEDs(chip, o0, o1, log.WithTag("gpio"))
		if err != nil {
			return err
		}
		defer closeGPIO()
		hw.LED0 = teeLED{led0, g0}
		hw.LED1 = teeLED{led1, g1}

		if off, _ := cmd.Flags().GetInt("int1"); off >= 0 {
			int1, closeLine := openGPIOEdge(chip, off, proc)
			defer closeLine()
			hw.TapLine = teeEdge{line, int1}
		}
	}

	core, err := device.New(cfg, hw, device.WithLogger(log), device.WithEmitter(pub))
	if err != nil {
		return err
	}
	if err := core.Start(); err != nil {
		return err
	}
	runDone := make(chan error, 1)
	go func() { runDone <- core.Run(ctx) }()

	scale := func(d time.Duration) time.Duration {
		if speedup > 1 {
			return d / time.Duration(speedup)
		}
		return d
	}

	for _, st := range steps {
		fmt.Println(color.New(color.Bold).Sprint("> " + st.text))
		switch st.kind {
		case stepJoy:
			for i := 0; i < st.count; i++ {
				adc.Convert(st.sample)
				// Give the main loop a wake cycle to re-arm the gate.
				time.Sleep(20 * time.Millisecond)
			}
		case stepHold:
			adc.Hold(st.sample, st.dur)
			time.Sleep(scale(st.dur))
		case stepTap:
			if st.double {
				model.DoubleTap(st.dur)
			} else {
				model.SingleTap()
			}
		case stepWait:
			time.Sleep(scale(st.dur))
		case stepStats:
			printStats(core, proc)
		}
	}

	cancel()
	proc.Wake()
	if err := <-runDone; err != nil {
		return err
	}
	lt.Stop()
	adc.Stop()
	proc.Halt()

	// Let the publisher flush before closing the monitor.
	time.Sleep(20 * time.Millisecond)
	mon.Unsubscribe()
	<-monDone
	if n := pub.Drops(); n > 0 {
		log.Warnf("%d telemetry events dropped", n)
	}
	return nil
}

type teeLED [2]device.Indicator

func (t teeLED) Set(on bool) {
	t[0].Set(on)
	t[1].Set(on)
}

// teeEdge arms the handler on every line.
type teeEdge []device.EdgeLine

func (t teeEdge) OnRising(h func()) error {
	for _, l := range t {
		if err := l.OnRising(h); err != nil {
			return err
		}
	}
	return nil
}

var (
	cDuty   = color.New(color.FgCyan)
	cInput  = color.New(color.FgYellow)
	cTap    = color.New(color.FgMagenta, color.Bold)
	cOn     = color.New(color.FgGreen)
	cOff    = color.New(color.FgRed)
	cSensor = color.New(color.FgBlue)
	cDim    = color.New(color.Faint)
)

func printEvent(m *bus.Message) {
	t := m.Topic.String()
	switch v := m.Payload.(type) {
	case types.DutyValue:
		fmt.Printf("%s on=%dms period=%dms ticks=%d/%d shift=%d\n", cDuty.Sprint(t),
			v.OnTimeMs, v.PeriodMs, v.OnTimeTicks, v.PeriodTicks, v.DivisorShift)
	case types.InputEvent:
		cmd := v.Command
		if cmd == "" {
			cmd = "-"
		}
		fmt.Printf("%s sample=%d dir=%s cmd=%s\n", cInput.Sprint(t), v.Sample, v.Direction, cmd)
	case types.TapEvent:
		fmt.Printf("%s %s (0x%02x, 0x%02x)\n", cTap.Sprint(t), v.Gesture, v.First, v.Second)
	case types.LEDValue:
		c := cOff
		if v.On {
			c = cOn
		}
		// The waveform LED changes twice a period; keep it quiet.
		if v.Index == 0 {
			return
		}
		fmt.Printf("%s %s\n", c.Sprint(t), onOff(v.On))
	case types.SensorState:
		s := onOff(v.Enabled)
		if v.Error != "" {
			s += " (" + v.Error + ")"
		}
		fmt.Printf("%s %s\n", cSensor.Sprint(t), s)
	case types.SleepStats:
		fmt.Printf("%s blocks=%v entered=%v\n", cDim.Sprint(t), v.Blocks, v.Entered)
	case types.CoreState:
		fmt.Printf("%s %s\n", cDim.Sprint(t), v.Level)
	default:
		fmt.Printf("%s %v\n", t, v)
	}
}

func printStats(core *device.Core, proc *cpu.CPU) {
	st := proc.Stats()
	var parts []string
	for l, n := range st.Entries {
		if n == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("EM%d:%d/%s", l, n, st.Residency[l].Round(time.Millisecond)))
	}
	g := core.Gate.Stats()
	fmt.Printf("  decision=%v on=%dms irqs=%d sleeps=[%s]\n",
		core.Arbiter.Decision(), core.Scheduler.OnTimeMs(), st.Interrupts, strings.Join(parts, " "))
	fmt.Printf("  joystick: seen=%d suppressed=%d posted=%d unrecognised=%d\n",
		g.Interrupts, g.Suppressed, g.Posted, g.Unrecognised)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Package copro runs the companion controller as a bus-attached service:
// input changes are published as retained line-state topics, supply
// telemetry is sampled on a ticker, and control verbs arrive on a single
// command topic with errcode replies.
package copro

import (
	"context"
	"errors"
	"time"

	"tinygo.org/x/drivers"

	"copro-go/bus"
	"copro-go/drivers/rp2040"
	"copro-go/errcode"
	"copro-go/x/ramp"
)

var (
	topicCtl      = bus.T(bus.S("copro"), bus.S("ctl"))
	topicVersion  = bus.T(bus.S("copro"), bus.S("version"))
	topicVBat     = bus.T(bus.S("copro"), bus.S("vbat"))
	topicVUSB     = bus.T(bus.S("copro"), bus.S("vusb"))
	topicCharging = bus.T(bus.S("copro"), bus.S("charging"))
)

// InputTopic is the retained state topic for one input line.
func InputTopic(line uint8) bus.Topic {
	return bus.T(bus.S("copro"), bus.S("input"), bus.I(int(line)))
}

// Control verbs. Each is a valid payload for the copro/ctl topic; the
// service answers on the message's ReplyTo topic with an errcode.Code.
type (
	// SetBacklight sets the LCD backlight brightness.
	SetBacklight struct{ Level uint8 }

	// FadeBacklight ramps the backlight to a target level over a
	// duration. Ms of zero snaps straight to the target. The fade runs
	// in the service loop, so verbs queue behind it.
	FadeBacklight struct {
		To uint8
		Ms uint32
	}

	// SetFPGA enables or disables the FPGA.
	SetFPGA struct{ Enable bool }

	// SetLEDMode selects automatic or host-driven LED operation.
	SetLEDMode struct{ Mode uint8 }

	// SetLEDLength sets how many LEDs a trigger latches.
	SetLEDLength struct{ Length uint8 }

	// SetLED stages one LED value; ShowLEDs latches the staged frame.
	SetLED struct {
		Position uint8
		Value    uint32
	}

	// ShowLEDs latches the staged LED frame onto the strip.
	ShowLEDs struct{}

	// SendIR transmits one infrared frame.
	SendIR struct {
		Address uint16
		Command uint8
	}

	// RebootToBootloader asks the companion to restart into its
	// bootloader. The service keeps running; the device answers on the
	// bootloader register bank after the restart.
	RebootToBootloader struct{}
)

// Config holds construction parameters for the service.
type Config struct {
	// Conn is the service's bus connection.
	Conn *bus.Connection

	// Device configures the underlying companion driver. OnInput is
	// owned by the service and must be left nil.
	Device rp2040.Config

	// TelemetryInterval is the supply sampling period; 5s if zero.
	TelemetryInterval time.Duration
}

// Service owns one companion device and bridges it onto the bus.
type Service struct {
	dev      *rp2040.Device
	conn     *bus.Connection
	interval time.Duration

	// Set once telemetry reads come back gated; stops further sampling.
	telemetryOff bool
}

// New wires a service around a companion on the given I2C bus. The
// device's input handler is claimed by the service.
func New(i2c drivers.I2C, cfg Config) *Service {
	s := &Service{
		conn:     cfg.Conn,
		interval: cfg.TelemetryInterval,
	}
	if s.interval == 0 {
		s.interval = 5 * time.Second
	}
	devCfg := cfg.Device
	devCfg.OnInput = s.publishInput
	s.dev = rp2040.New(i2c, devCfg)
	return s
}

// Device exposes the underlying driver for direct register access.
func (s *Service) Device() *rp2040.Device { return s.dev }

// Start probes the companion and launches the service loop. A companion
// in bootloader mode is accepted: the version topic reports it and the
// loop still answers verbs, which fail with unsupported until the
// application firmware is back.
func (s *Service) Start(ctx context.Context) error {
	if err := s.dev.Configure(); err != nil {
		return &errcode.E{C: errcode.MapDriverErr(err), Op: "copro.Start", Err: err}
	}
	s.conn.Publish(s.conn.NewMessage(topicVersion, s.dev.Version(), true))

	if s.dev.Bootloader() {
		println("Info: copro companion is in bootloader mode")
		s.telemetryOff = true
	} else if err := s.dev.StartInputEvents(ctx); err != nil {
		if !errors.Is(err, rp2040.ErrNoInterruptPin) {
			return &errcode.E{C: errcode.MapDriverErr(err), Op: "copro.Start", Err: err}
		}
		println("Info: copro input events disabled, no interrupt pin")
	}

	// Subscribe before the loop goroutine starts so a verb published
	// right after Start cannot be dropped.
	ctlSub := s.conn.Subscribe(topicCtl)
	go s.serviceLoop(ctx, ctlSub)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, ctlSub *bus.Subscription) {
	defer s.conn.Unsubscribe(ctlSub)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	s.publishTelemetry()

	for {
		select {
		case <-ctx.Done():
			println("Info: copro service stopping")
			return
		case <-tick.C:
			s.publishTelemetry()
		case msg := <-ctlSub.Channel():
			s.handleCtl(ctx, msg)
		}
	}
}

func (s *Service) publishInput(line uint8, state bool) {
	s.conn.Publish(s.conn.NewMessage(InputTopic(line), state, true))
}

func (s *Service) publishTelemetry() {
	if s.telemetryOff {
		return
	}
	vbat, err := s.dev.VBat()
	if err != nil {
		if errors.Is(err, rp2040.ErrUnsupported) {
			s.telemetryOff = true
		} else {
			println("Error: copro vbat read failed:", err.Error())
		}
		return
	}
	s.conn.Publish(s.conn.NewMessage(topicVBat, vbat, true))

	if vusb, err := s.dev.VUSB(); err == nil {
		s.conn.Publish(s.conn.NewMessage(topicVUSB, vusb, true))
	} else {
		println("Error: copro vusb read failed:", err.Error())
	}
	if chg, err := s.dev.Charging(); err == nil {
		s.conn.Publish(s.conn.NewMessage(topicCharging, chg != 0, true))
	} else {
		println("Error: copro charging read failed:", err.Error())
	}
}

func (s *Service) handleCtl(ctx context.Context, msg *bus.Message) {
	var err error
	switch p := msg.Payload.(type) {
	case SetBacklight:
		err = s.dev.SetBacklight(p.Level)
	case FadeBacklight:
		err = s.fadeBacklight(ctx, p)
	case SetFPGA:
		err = s.dev.SetFPGA(p.Enable)
	case SetLEDMode:
		err = s.dev.SetWS2812Mode(p.Mode)
	case SetLEDLength:
		err = s.dev.SetWS2812Length(p.Length)
	case SetLED:
		err = s.dev.SetWS2812Data(p.Position, p.Value)
	case ShowLEDs:
		err = s.dev.WS2812Trigger()
	case SendIR:
		err = s.dev.IRSend(p.Address, p.Command)
	case RebootToBootloader:
		err = s.dev.RebootToBootloader()
		if err == nil {
			s.telemetryOff = true
			s.conn.Publish(s.conn.NewMessage(topicVersion, uint8(rp2040.VersionBootloader), true))
		}
	default:
		s.reply(msg, errcode.UnknownVerb)
		return
	}
	if err != nil {
		println("Error: copro verb failed:", err.Error())
	}
	s.reply(msg, errcode.MapDriverErr(err))
}

func (s *Service) fadeBacklight(ctx context.Context, p FadeBacklight) error {
	cur, err := s.dev.Backlight()
	if err != nil {
		return err
	}
	tick := func(d time.Duration) bool {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(d):
			return true
		}
	}
	ramp.StartLinear(uint16(cur), uint16(p.To), 0xFF, p.Ms, 16, tick, func(level uint16) {
		if e := s.dev.SetBacklight(uint8(level)); e != nil && err == nil {
			err = e
		}
	})
	return err
}

func (s *Service) reply(msg *bus.Message, code errcode.Code) {
	if msg.ReplyTo == nil {
		return
	}
	s.conn.Publish(&bus.Message{Topic: msg.ReplyTo, Payload: code})
}

//go:build rp2040

// Command badge-demo: companion controller bring-up on an RP2 host.
//
// Build/flash (TinyGo):
//   tinygo flash -target pico ./cmd/badge-demo
//
// Wiring assumptions (edit below as needed):
// - Companion on I2C0 @ 400 kHz, Pico defaults: SDA=GP4, SCL=GP5.
// - Companion interrupt line (active-low) on GP6.
package main

import (
	"context"
	"machine"
	"time"

	"copro-go/bus"
	"copro-go/drivers/rp2040"
	"copro-go/errcode"
	"copro-go/services/copro"
	"copro-go/x/conv"
)

const interruptPin = machine.GP6

func main() {
	time.Sleep(3 * time.Second)
	println("== copro: badge demo ==")

	if err := machine.I2C0.Configure(machine.I2CConfig{Frequency: 400_000}); err != nil {
		println("Error: i2c configure failed:", err.Error())
		return
	}

	b := bus.NewBus(64)
	conn := b.NewConnection("main")

	// Watch every input line plus the telemetry topics.
	var inputSubs [rp2040.InputLines]*bus.Subscription
	for i := range inputSubs {
		inputSubs[i] = conn.Subscribe(copro.InputTopic(uint8(i)))
	}
	vbatSub := conn.Subscribe(bus.T(bus.S("copro"), bus.S("vbat")))
	chgSub := conn.Subscribe(bus.T(bus.S("copro"), bus.S("charging")))
	replySub := conn.Subscribe(bus.T(bus.S("main"), bus.S("reply")))

	svc := copro.New(machine.I2C0, copro.Config{
		Conn: b.NewConnection("copro"),
		Device: rp2040.Config{
			Interrupt: rp2040.NewMachinePin(interruptPin),
		},
		TelemetryInterval: 5 * time.Second,
	})

	ctx := context.Background()
	if err := svc.Start(ctx); err != nil {
		println("Error: copro start failed:", err.Error())
		return
	}
	println("Info: companion firmware version", svc.Device().Version())

	if uid, err := svc.Device().UID(); err == nil {
		var buf [8]byte
		hi := uint32(uid[4]) | uint32(uid[5])<<8 | uint32(uid[6])<<16 | uint32(uid[7])<<24
		lo := uint32(uid[0]) | uint32(uid[1])<<8 | uint32(uid[2])<<16 | uint32(uid[3])<<24
		println("Info: companion uid", string(conv.U32Hex(buf[:], hi))+string(conv.U32Hex(buf[:], lo)))
	}

	send := func(verb any) {
		conn.Publish(&bus.Message{
			Topic:   bus.T(bus.S("copro"), bus.S("ctl")),
			Payload: verb,
			ReplyTo: replySub.Topic(),
		})
	}

	send(copro.FadeBacklight{To: 200, Ms: 500})
	send(copro.SetLEDMode{Mode: 1})
	send(copro.SetLEDLength{Length: 5})

	led := uint8(0)
	blink := time.NewTicker(time.Second)
	defer blink.Stop()

	for {
		select {
		case <-blink.C:
			send(copro.SetLED{Position: led, Value: 0x000800})
			send(copro.ShowLEDs{})
			led = (led + 1) % 5
		case msg := <-vbatSub.Channel():
			println("Info: vbat", int(msg.Payload.(float32)*1000), "mV")
		case msg := <-chgSub.Channel():
			println("Info: charging:", msg.Payload.(bool))
		case msg := <-replySub.Channel():
			if code := msg.Payload.(errcode.Code); code != errcode.OK {
				println("Error: verb reply:", string(code))
			}
		default:
			for i, sub := range inputSubs {
				select {
				case msg := <-sub.Channel():
					println("Info: input", i, "->", msg.Payload.(bool))
				default:
				}
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

//go:build rp2040

package rp2040

import (
	"machine"
)

var _ InterruptPin = (*MachinePin)(nil)

// MachinePin adapts a machine.Pin to InterruptPin. The RP2 port provides
// SetInterrupt with PinChange flags.
type MachinePin struct {
	p machine.Pin
}

// NewMachinePin configures pin as a pulled-up input and wraps it.
func NewMachinePin(pin machine.Pin) *MachinePin {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return &MachinePin{p: pin}
}

func (m *MachinePin) SetIRQ(edge Edge, handler func()) error {
	return m.p.SetInterrupt(toPinChange(edge), func(machine.Pin) { handler() })
}

func (m *MachinePin) ClearIRQ() error {
	var zero machine.PinChange
	return m.p.SetInterrupt(zero, nil)
}

func toPinChange(e Edge) machine.PinChange {
	switch e {
	case EdgeRising:
		return machine.PinRising
	case EdgeFalling:
		return machine.PinFalling
	case EdgeBoth:
		return machine.PinToggle
	default:
		var zero machine.PinChange
		return zero
	}
}

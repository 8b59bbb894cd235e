package rp2040

import "context"

// Deferred interrupt dispatcher. The edge handler performs no bus I/O: it
// only posts a signal that the worker consumes. The worker reads the
// combined status register (changed mask in the high 16 bits, current
// levels in the low 16) and invokes the input handler once per changed
// line, in ascending line order.

// StartInputEvents arms the interrupt line and starts the dispatcher
// worker. The worker runs until ctx is cancelled. One pass is queued
// immediately so a line already asserted at start-up is serviced.
func (d *Device) StartInputEvents(ctx context.Context) error {
	if d.irq == nil {
		return ErrNoInterruptPin
	}
	if err := d.irq.SetIRQ(EdgeFalling, d.signalInput); err != nil {
		return err
	}
	go d.inputWorker(ctx)
	d.signalInput()
	return nil
}

// signalInput wakes the dispatcher worker. Non-blocking and allocation
// free: safe to call from interrupt context. Signals coalesce; the worker
// reads the full status on every wake so nothing is lost.
func (d *Device) signalInput() {
	select {
	case d.trigger <- struct{}{}:
	default:
	}
}

func (d *Device) inputWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = d.irq.ClearIRQ()
			return
		case <-d.trigger:
		}

		var b [4]byte
		if err := d.readReg(regInput1, b[:]); err != nil {
			// Drop the cycle; the companion keeps the line asserted
			// while changes are pending, so the next edge re-arms us.
			println("Error: rp2040 input status read failed:", err.Error())
			continue
		}
		state := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
		changed := uint16(state >> 16)
		levels := uint16(state)
		if d.onInput == nil {
			continue
		}
		for line := uint8(0); line < InputLines; line++ {
			if changed>>line&1 == 1 {
				d.onInput(line, levels>>line&1 == 1)
			}
		}
	}
}

// Buttons returns a snapshot of all input lines as a bitmap, bypassing the
// dispatcher.
func (d *Device) Buttons() (uint16, error) {
	if err := d.require(verBase); err != nil {
		return 0, err
	}
	return d.readWord(regInput1)
}

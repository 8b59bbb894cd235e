package rp2040

import "time"

// Transaction layer. One register access is one bus transfer; the optional
// shared lock is held across it and released on every path. A transfer that
// outlives the timeout is abandoned and reported as ErrTimeout; the driver
// never retries.

func (d *Device) readReg(reg uint8, out []byte) error {
	if d.lock != nil {
		d.lock.Lock()
		defer d.lock.Unlock()
	}
	// The goroutine owns its buffers so an abandoned transfer cannot
	// scribble over a later one.
	w := [1]byte{reg}
	buf := make([]byte, len(out))
	done := make(chan error, 1)
	go func() { done <- d.i2c.Tx(d.addr, w[:], buf) }()

	t := time.NewTimer(d.timeout)
	defer t.Stop()
	select {
	case err := <-done:
		if err != nil {
			return err
		}
		copy(out, buf)
		return nil
	case <-t.C:
		return ErrTimeout
	}
}

func (d *Device) writeReg(reg uint8, payload ...byte) error {
	if d.lock != nil {
		d.lock.Lock()
		defer d.lock.Unlock()
	}
	frame := make([]byte, 1+len(payload))
	frame[0] = reg
	copy(frame[1:], payload)
	done := make(chan error, 1)
	go func() { done <- d.i2c.Tx(d.addr, frame, nil) }()

	t := time.NewTimer(d.timeout)
	defer t.Stop()
	select {
	case err := <-done:
		return err
	case <-t.C:
		return ErrTimeout
	}
}

// readWord reads a 16-bit register pair, low byte first.
func (d *Device) readWord(reg uint8) (uint16, error) {
	var b [2]byte
	if err := d.readReg(reg, b[:]); err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

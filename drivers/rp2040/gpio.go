package rp2040

// GPIO accessors. Direction and output bytes are mirrored in the Device so
// a bit change costs one write instead of a read-modify-write on the bus.
// The full byte is written on every change; the mirror is committed only
// after the write succeeds. Bit-level sequences are not atomic against a
// concurrent writer: last writer wins on the mirrors.

// GPIODirection reads the direction register, refreshes the mirror and
// returns the direction of one pin (true = output).
func (d *Device) GPIODirection(pin uint8) (bool, error) {
	if err := d.require(verBase); err != nil {
		return false, err
	}
	var b [1]byte
	if err := d.readReg(regGPIODir, b[:]); err != nil {
		return false, err
	}
	d.gpioDir = b[0]
	return b[0]>>pin&1 == 1, nil
}

// SetGPIODirection sets the direction of one pin (true = output).
func (d *Device) SetGPIODirection(pin uint8, output bool) error {
	if err := d.require(verBase); err != nil {
		return err
	}
	next := setBit(d.gpioDir, pin, output)
	if err := d.writeReg(regGPIODir, next); err != nil {
		return err
	}
	d.gpioDir = next
	return nil
}

// GPIOValue returns the live level of one pin. Inputs are never cached:
// this reads the input register, not the output mirror.
func (d *Device) GPIOValue(pin uint8) (bool, error) {
	if err := d.require(verBase); err != nil {
		return false, err
	}
	var b [1]byte
	if err := d.readReg(regGPIOIn, b[:]); err != nil {
		return false, err
	}
	return b[0]>>pin&1 == 1, nil
}

// SetGPIOValue sets the output level of one pin.
func (d *Device) SetGPIOValue(pin uint8, level bool) error {
	if err := d.require(verBase); err != nil {
		return err
	}
	next := setBit(d.gpioOut, pin, level)
	if err := d.writeReg(regGPIOOut, next); err != nil {
		return err
	}
	d.gpioOut = next
	return nil
}

func setBit(b byte, pin uint8, on bool) byte {
	if on {
		return b | 1<<pin
	}
	return b &^ (1 << pin)
}

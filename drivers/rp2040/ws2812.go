package rp2040

// WS2812 addressable LED control. The companion drives up to ten LEDs from
// a small register file; writes take effect on the next trigger.

// SetWS2812Mode selects the LED animation mode.
func (d *Device) SetWS2812Mode(mode uint8) error {
	if err := d.require(verWS2812); err != nil {
		return err
	}
	return d.writeReg(regWS2812Mode, mode)
}

// SetWS2812Length sets the number of attached LEDs.
func (d *Device) SetWS2812Length(length uint8) error {
	if err := d.require(verWS2812); err != nil {
		return err
	}
	return d.writeReg(regWS2812Length, length)
}

// SetWS2812Speed sets the animation speed.
func (d *Device) SetWS2812Speed(speed uint8) error {
	if err := d.require(verWS2812); err != nil {
		return err
	}
	return d.writeReg(regWS2812Speed, speed)
}

// SetWS2812Data writes the 32-bit color value of one LED slot. Position
// must be below the slot count (10).
func (d *Device) SetWS2812Data(position uint8, value uint32) error {
	if err := d.require(verWS2812); err != nil {
		return err
	}
	if position >= ws2812Slots {
		return ErrOutOfRange
	}
	return d.writeReg(regWS2812LED0+position*4,
		byte(value), byte(value>>8), byte(value>>16), byte(value>>24))
}

// WS2812Trigger latches the written LED data into the string.
func (d *Device) WS2812Trigger() error {
	if err := d.require(verWS2812); err != nil {
		return err
	}
	return d.writeReg(regWS2812Trigger, 0)
}

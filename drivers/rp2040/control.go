package rp2040

// Backlight returns the LCD backlight brightness.
func (d *Device) Backlight() (uint8, error) {
	if err := d.require(verBase); err != nil {
		return 0, err
	}
	var b [1]byte
	if err := d.readReg(regLCDBacklight, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// SetBacklight sets the LCD backlight brightness. On firmware without
// backlight support this is a silent no-op, not a failure: callers adjust
// brightness unconditionally during display bring-up.
func (d *Device) SetBacklight(brightness uint8) error {
	if d.require(verBase) != nil {
		return nil
	}
	return d.writeReg(regLCDBacklight, brightness)
}

// SetFPGA enables or disables the FPGA.
func (d *Device) SetFPGA(enabled bool) error {
	if err := d.require(verBase); err != nil {
		return err
	}
	var v byte
	if enabled {
		v = 0x01
	}
	return d.writeReg(regFPGA, v)
}

// SetFPGALoopback enables the FPGA with optional loopback mode.
func (d *Device) SetFPGALoopback(enabled, loopback bool) error {
	if err := d.require(verBase); err != nil {
		return err
	}
	var v byte
	if enabled {
		v |= 0x01
	}
	if loopback {
		v |= 0x02
	}
	return d.writeReg(regFPGA, v)
}

// USBState reads the USB connection state register.
func (d *Device) USBState() (uint8, error) {
	if err := d.require(verBase); err != nil {
		return 0, err
	}
	var b [1]byte
	if err := d.readReg(regUSB, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// WebUSBMode reads the WebUSB mode register.
func (d *Device) WebUSBMode() (uint8, error) {
	if err := d.require(verADC); err != nil {
		return 0, err
	}
	var b [1]byte
	if err := d.readReg(regWebUSBMode, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ExitWebUSBMode requests the companion to leave WebUSB mode.
func (d *Device) ExitWebUSBMode() error {
	if err := d.require(verExitWebUS); err != nil {
		return err
	}
	return d.writeReg(regWebUSBMode, 0)
}

// CrashState reads the crash-debug state register.
func (d *Device) CrashState() (uint8, error) {
	if err := d.require(verIR); err != nil {
		return 0, err
	}
	var b [1]byte
	if err := d.readReg(regCrashDebug, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ResetAttempted reads the reset-attempted flag.
func (d *Device) ResetAttempted() (uint8, error) {
	if err := d.require(verReset); err != nil {
		return 0, err
	}
	var b [1]byte
	if err := d.readReg(regResetAttempt, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// SetResetAttempted writes the reset-attempted flag.
func (d *Device) SetResetAttempted(v uint8) error {
	if err := d.require(verReset); err != nil {
		return err
	}
	return d.writeReg(regResetAttempt, v)
}

// SetResetLock writes the reset lock register.
func (d *Device) SetResetLock(lock uint8) error {
	if err := d.require(verReset); err != nil {
		return err
	}
	return d.writeReg(regResetLock, lock)
}

// UID returns the companion's unique board identifier.
func (d *Device) UID() ([8]byte, error) {
	var uid [8]byte
	if err := d.require(verBase); err != nil {
		return uid, err
	}
	err := d.readReg(regUID0, uid[:])
	return uid, err
}

// ReadScratch reads from the scratch bank at the given offset. The scratch
// bank carries boot parameters shared with WebUSB clients.
func (d *Device) ReadScratch(offset uint8, out []byte) error {
	if err := d.require(verBase); err != nil {
		return err
	}
	if int(offset)+len(out) > ScratchSize {
		return ErrOutOfRange
	}
	return d.readReg(regScratch0+offset, out)
}

// WriteScratch writes into the scratch bank at the given offset.
func (d *Device) WriteScratch(offset uint8, data []byte) error {
	if err := d.require(verBase); err != nil {
		return err
	}
	if int(offset)+len(data) > ScratchSize {
		return ErrOutOfRange
	}
	return d.writeReg(regScratch0+offset, data...)
}

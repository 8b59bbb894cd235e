package rp2040

// Bootloader register bank. These registers respond only while the version
// sentinel 0xFF is reported; the application bank is inaccessible then.

// BootloaderVersion reads the bootloader's own version.
func (d *Device) BootloaderVersion() (uint8, error) {
	if err := d.requireBootloader(); err != nil {
		return 0, err
	}
	var b [1]byte
	if err := d.readReg(regBLVersion, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// BootloaderState reads the bootloader state register.
func (d *Device) BootloaderState() (uint8, error) {
	if err := d.requireBootloader(); err != nil {
		return 0, err
	}
	var b [1]byte
	if err := d.readReg(regBLState, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// SetBootloaderControl writes the bootloader control register.
func (d *Device) SetBootloaderControl(action uint8) error {
	if err := d.requireBootloader(); err != nil {
		return err
	}
	return d.writeReg(regBLControl, action)
}

// RebootToBootloader asks the application firmware to reboot into the
// bootloader. Written from application mode only; after the companion
// comes back, FirmwareVersion reports the 0xFF sentinel.
func (d *Device) RebootToBootloader() error {
	if err := d.require(verBase); err != nil {
		return err
	}
	return d.writeReg(regBLTrigger, blTriggerMagic)
}

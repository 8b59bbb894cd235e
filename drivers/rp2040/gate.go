package rp2040

// Firmware version gate. Checked before any bus access; a denied operation
// performs zero transactions.
//
// Minimum version per operation family:
//
//	0x01  reboot-to-bootloader, GPIO dir/value, LCD backlight, FPGA,
//	      USB state, buttons, UID, scratch
//	0x02  ADC (vbat/vusb/temp), charging state, WebUSB mode
//	0x06  crash-debug state, IR send
//	0x08  reset-attempted get/set, reset lock
//	0x09  WS2812 mode/data/length/speed/trigger
//	0x0D  mass-storage control/state/block-count/block-size
//	0x0E  exit WebUSB mode
//
// The firmware version read itself is ungated; the bootloader bank is
// usable only while the version sentinel 0xFF is reported.
const (
	verBase      = 0x01
	verADC       = 0x02
	verIR        = 0x06
	verReset     = 0x08
	verWS2812    = 0x09
	verMSC       = 0x0D
	verExitWebUS = 0x0E
)

// require allows an application-bank operation iff the cached firmware
// version meets min and the bootloader is not running.
func (d *Device) require(min uint8) error {
	if d.version == VersionBootloader || d.version < min {
		return ErrUnsupported
	}
	return nil
}

// requireBootloader allows a bootloader-bank operation iff the bootloader
// is running.
func (d *Device) requireBootloader() error {
	if d.version != VersionBootloader {
		return ErrUnsupported
	}
	return nil
}

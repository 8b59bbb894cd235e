package rp2040

// ADC readouts. Raw values are 16-bit little-endian codes from the
// companion's 12-bit ADC (3.3V reference). The voltage rails sit behind a
// 100k/100k divider, hence the factor two in the conversions.

const adcVoltsPerCode = 3.3 / 4096

// VBatRaw returns the raw battery voltage code.
func (d *Device) VBatRaw() (uint16, error) {
	if err := d.require(verADC); err != nil {
		return 0, err
	}
	return d.readWord(regADCVBATLo)
}

// VBat returns the battery voltage in volts.
func (d *Device) VBat() (float32, error) {
	raw, err := d.VBatRaw()
	if err != nil {
		return 0, err
	}
	return float32(raw) * adcVoltsPerCode * 2, nil
}

// VUSBRaw returns the raw USB supply voltage code.
func (d *Device) VUSBRaw() (uint16, error) {
	if err := d.require(verADC); err != nil {
		return 0, err
	}
	return d.readWord(regADCVUSBLo)
}

// VUSB returns the USB supply voltage in volts.
func (d *Device) VUSB() (float32, error) {
	raw, err := d.VUSBRaw()
	if err != nil {
		return 0, err
	}
	return float32(raw) * adcVoltsPerCode * 2, nil
}

// TempRaw returns the raw temperature sensor code.
func (d *Device) TempRaw() (uint16, error) {
	if err := d.require(verADC); err != nil {
		return 0, err
	}
	return d.readWord(regADCTempLo)
}

// Charging reads the charging state register.
func (d *Device) Charging() (uint8, error) {
	if err := d.require(verADC); err != nil {
		return 0, err
	}
	var b [1]byte
	if err := d.readReg(regCharging, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

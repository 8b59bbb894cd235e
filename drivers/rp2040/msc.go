package rp2040

// Emulated mass-storage control. The companion exposes up to two logical
// units over USB; the host side configures geometry per LUN.

// SetMSCControl writes the mass-storage control register.
func (d *Device) SetMSCControl(v uint8) error {
	if err := d.require(verMSC); err != nil {
		return err
	}
	return d.writeReg(regMSCControl, v)
}

// MSCState reads the mass-storage state register.
func (d *Device) MSCState() (uint8, error) {
	if err := d.require(verMSC); err != nil {
		return 0, err
	}
	var b [1]byte
	if err := d.readReg(regMSCState, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// SetMSCBlockCount sets the block count of one LUN (0 or 1).
func (d *Device) SetMSCBlockCount(lun uint8, count uint32) error {
	if err := d.require(verMSC); err != nil {
		return err
	}
	if lun > 1 {
		return ErrOutOfRange
	}
	reg := uint8(regMSC0BlockCount)
	if lun == 1 {
		reg = regMSC1BlockCount
	}
	return d.writeReg(reg,
		byte(count), byte(count>>8), byte(count>>16), byte(count>>24))
}

// SetMSCBlockSize sets the block size of one LUN (0 or 1).
func (d *Device) SetMSCBlockSize(lun uint8, size uint16) error {
	if err := d.require(verMSC); err != nil {
		return err
	}
	if lun > 1 {
		return ErrOutOfRange
	}
	reg := uint8(regMSC0BlockSize)
	if lun == 1 {
		reg = regMSC1BlockSize
	}
	return d.writeReg(reg, byte(size), byte(size>>8))
}

package rp2040

// IRSend transmits one infrared frame: a 16-bit address (low byte first),
// an 8-bit command and the trigger byte, packed into a single 4-byte write.
func (d *Device) IRSend(address uint16, command uint8) error {
	if err := d.require(verIR); err != nil {
		return err
	}
	return d.writeReg(regIRAddressLo,
		byte(address), byte(address>>8), command, 0x01)
}

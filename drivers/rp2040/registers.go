package rp2040

// Register addresses and input line numbers of the badge companion.

const (
	// 7-bit I2C address of the companion.
	AddressDefault = 0x17

	// Firmware version sentinel: the application firmware is not running
	// and only the bootloader register bank responds.
	VersionBootloader = 0xFF

	// Oldest application firmware this driver understands.
	versionMinimum = 0x01

	// --- Application register bank (single-byte registers) ---

	regFWVersion    = 0x00 // R
	regGPIODir      = 0x01 // R/W, 1 = output
	regGPIOIn       = 0x02 // R, live input levels
	regGPIOOut      = 0x03 // R/W, output levels
	regLCDBacklight = 0x04 // R/W, brightness 0..255
	regFPGA         = 0x05 // W, bit0 enable, bit1 loopback
	regInput1       = 0x06 // R, input lines 0..7
	regInput2       = 0x07 // R, input lines 8..15
	regInterrupt1   = 0x08 // R, changed mask lines 0..7
	regInterrupt2   = 0x09 // R, changed mask lines 8..15
	regADCTrigger   = 0x0A // W
	regADCVUSBLo    = 0x0B // R, 12-bit code, low byte first
	regADCVUSBHi    = 0x0C // R
	regADCVBATLo    = 0x0D // R
	regADCVBATHi    = 0x0E // R
	regUSB          = 0x0F // R
	regBLTrigger    = 0x10 // W, 0xBE reboots into the bootloader
	regWebUSBMode   = 0x11 // R/W
	regCrashDebug   = 0x12 // R
	regResetLock    = 0x13 // W
	regResetAttempt = 0x14 // R/W
	regCharging     = 0x15 // R
	regADCTempLo    = 0x16 // R
	regADCTempHi    = 0x17 // R
	regUID0         = 0x18 // R, 8 bytes
	regScratch0     = 0x20 // R/W, 64 bytes of boot parameters

	regIRAddressLo = 0x60 // W
	regIRAddressHi = 0x61 // W
	regIRCommand   = 0x62 // W
	regIRTrigger   = 0x63 // W

	regWS2812Mode    = 0x68 // R/W
	regWS2812Trigger = 0x69 // W
	regWS2812Length  = 0x6A // R/W
	regWS2812Speed   = 0x6B // R/W
	regWS2812LED0    = 0x6C // R/W, 4 bytes per LED, 10 LEDs

	regMSCControl     = 0x94 // W
	regMSCState       = 0x95 // R
	regMSC0BlockCount = 0x96 // W, 4 bytes
	regMSC0BlockSize  = 0x9A // W, 2 bytes
	regMSC1BlockCount = 0x9C // W, 4 bytes
	regMSC1BlockSize  = 0xA0 // W, 2 bytes

	// --- Bootloader register bank (active while version == 0xFF) ---

	regBLFWVersion = 0x00 // R
	regBLVersion   = 0x01 // R
	regBLState     = 0x02 // R
	regBLControl   = 0x03 // W

	// Value written to regBLTrigger to request the bootloader.
	blTriggerMagic = 0xBE

	// Number of addressable WS2812 data slots.
	ws2812Slots = 10

	// Size of the scratch bank in bytes.
	ScratchSize = 64
)

// Input line numbers reported by the interrupt dispatcher.
const (
	InputButtonHome uint8 = iota
	InputButtonMenu
	InputButtonStart
	InputButtonAccept
	InputButtonBack
	InputFPGADone
	InputBatteryCharging
	InputButtonSelect
	InputJoystickLeft
	InputJoystickPress
	InputJoystickDown
	InputJoystickUp
	InputJoystickRight

	// Lines 13..15 are reserved by the firmware.
	InputLines = 16
)

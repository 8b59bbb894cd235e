// Package rp2040 provides a driver for the RP2040 companion controller found
// on badge-style boards, reachable over a register-addressed I2C bus.
//
// Design notes:
// • Single-byte register addressing; multi-byte values low byte first.
// • Every transaction is one I2C transfer: [reg] then an N-byte read, or
//   [reg]++payload as one write frame. A fixed per-transaction timeout maps
//   to ErrTimeout.
// • Operations are gated on the firmware version reported by the companion.
//   Version 0xFF means the bootloader is running: the application register
//   bank is inaccessible and a disjoint bootloader bank responds instead.
// • Input changes arrive via a falling edge on an interrupt line. The edge
//   handler only signals; a worker goroutine performs the status read and
//   invokes the registered input handler.
package rp2040

import (
	"errors"
	"sync"
	"time"

	"tinygo.org/x/drivers"
)

var (
	// ErrTimeout reports a bus transaction that did not complete within the
	// configured transaction timeout.
	ErrTimeout = errors.New("rp2040: transaction timed out")

	// ErrUnsupported reports an operation rejected by the firmware version
	// gate before any bus access, including application-bank operations in
	// bootloader mode and vice versa.
	ErrUnsupported = errors.New("rp2040: operation not supported by companion firmware")

	// ErrVersion reports a companion firmware older than this driver
	// understands. Surfaced by Configure only.
	ErrVersion = errors.New("rp2040: companion firmware version not supported")

	// ErrOutOfRange reports a parameter outside its documented bounds,
	// rejected before any bus access.
	ErrOutOfRange = errors.New("rp2040: argument out of range")

	// ErrNoInterruptPin reports StartInputEvents on a Device constructed
	// without an interrupt pin.
	ErrNoInterruptPin = errors.New("rp2040: no interrupt pin configured")
)

// InputHandler receives one input-change notification per changed line.
// It is invoked from the dispatcher worker goroutine only and must not
// call back into gated accessors of the same Device.
type InputHandler func(line uint8, state bool)

// Config holds construction parameters for a Device.
type Config struct {
	// Address is the 7-bit bus address; AddressDefault if zero.
	Address uint16

	// Timeout bounds every bus transaction; 500ms if zero.
	Timeout time.Duration

	// Lock, when non-nil, is held for the duration of each transaction.
	// Share it between drivers on the same physical bus. When nil, callers
	// are responsible for serializing bus access themselves.
	Lock sync.Locker

	// Interrupt is the companion's active-low interrupt line, already
	// configured as an input with a pull-up. Optional; without it
	// StartInputEvents is unavailable.
	Interrupt InterruptPin

	// OnInput receives input-change events from the dispatcher worker.
	OnInput InputHandler
}

// Device represents one companion controller on an I2C bus.
type Device struct {
	i2c     drivers.I2C
	addr    uint16
	timeout time.Duration
	lock    sync.Locker

	irq     InterruptPin
	onInput InputHandler
	trigger chan struct{}

	// Reported by the companion during Configure; 0xFF while the
	// bootloader is running.
	version uint8

	// Mirrors of the last direction/output bytes this process wrote.
	// Input levels are never cached.
	gpioDir byte
	gpioOut byte
}

// New constructs a Device. Gated accessors are not valid until Configure
// has read the firmware version.
func New(i2c drivers.I2C, cfg Config) *Device {
	addr := cfg.Address
	if addr == 0 {
		addr = AddressDefault
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 500 * time.Millisecond
	}
	return &Device{
		i2c:     i2c,
		addr:    addr,
		timeout: timeout,
		lock:    cfg.Lock,
		irq:     cfg.Interrupt,
		onInput: cfg.OnInput,
		trigger: make(chan struct{}, 1),
	}
}

// Configure probes the companion: it reads the firmware version and primes
// the GPIO mirrors. A companion in bootloader mode (version 0xFF) is
// accepted; only the bootloader bank is usable until it reboots. An
// application firmware older than the driver minimum fails with ErrVersion.
func (d *Device) Configure() error {
	if _, err := d.FirmwareVersion(); err != nil {
		return err
	}
	if d.version == VersionBootloader {
		return nil
	}
	if d.version < versionMinimum {
		return ErrVersion
	}

	var b [1]byte
	if err := d.readReg(regGPIODir, b[:]); err != nil {
		return err
	}
	d.gpioDir = b[0]
	if err := d.readReg(regGPIOOut, b[:]); err != nil {
		return err
	}
	d.gpioOut = b[0]
	return nil
}

// FirmwareVersion reads the version register and refreshes the gate state.
// Not gated: it is valid in both banks (the bootloader mirrors it).
func (d *Device) FirmwareVersion() (uint8, error) {
	var b [1]byte
	if err := d.readReg(regFWVersion, b[:]); err != nil {
		return 0, err
	}
	d.version = b[0]
	return b[0], nil
}

// Version returns the cached firmware version from the last probe.
func (d *Device) Version() uint8 { return d.version }

// Bootloader reports whether the companion is in bootloader mode.
func (d *Device) Bootloader() bool { return d.version == VersionBootloader }

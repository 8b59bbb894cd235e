package rp2040

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"tinygo.org/x/drivers"
)

// Compile-time check.
var _ drivers.I2C = (*fakeCompanion)(nil)

// fakeCompanion is a scripted register file behind drivers.I2C. While the
// version register holds 0xFF it serves the bootloader bank instead of the
// application bank.
type fakeCompanion struct {
	mu      sync.Mutex
	regs    [0xB0]byte
	blRegs  [4]byte
	txCount int
	failTx  error // returned by the next transaction when set
	block   chan struct{}
}

func newFakeCompanion(version byte) *fakeCompanion {
	f := &fakeCompanion{}
	f.regs[regFWVersion] = version
	f.blRegs[regBLFWVersion] = 0xFF
	return f
}

func (f *fakeCompanion) bootloader() bool { return f.regs[regFWVersion] == 0xFF }

func (f *fakeCompanion) Tx(addr uint16, w, r []byte) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txCount++
	if f.failTx != nil {
		err := f.failTx
		f.failTx = nil
		return err
	}

	bank := f.regs[:]
	if f.bootloader() {
		bank = f.blRegs[:]
	}

	// Register read: one address byte then r.
	if len(w) == 1 && len(r) > 0 {
		if f.bootloader() && w[0] == regBLFWVersion {
			r[0] = f.regs[regFWVersion] // version sentinel mirrored
			return nil
		}
		copy(r, bank[w[0]:])
		return nil
	}
	// Register write: one frame of address plus payload.
	if len(w) > 1 && len(r) == 0 {
		copy(bank[w[0]:], w[1:])
		return nil
	}
	return errors.New("fake: unexpected frame shape")
}

func (f *fakeCompanion) transactions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.txCount
}

func newTestDevice(t *testing.T, version byte) (*Device, *fakeCompanion) {
	t.Helper()
	f := newFakeCompanion(version)
	d := New(f, Config{})
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	return d, f
}

func TestConfigurePrimesMirrors(t *testing.T) {
	f := newFakeCompanion(0x0F)
	f.regs[regGPIODir] = 0xA5
	f.regs[regGPIOOut] = 0x3C
	d := New(f, Config{})
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if d.Version() != 0x0F {
		t.Fatalf("version = %#x, want 0x0F", d.Version())
	}
	if d.gpioDir != 0xA5 || d.gpioOut != 0x3C {
		t.Fatalf("mirrors = %#x/%#x, want 0xA5/0x3C", d.gpioDir, d.gpioOut)
	}
}

func TestConfigureRejectsOldFirmware(t *testing.T) {
	f := newFakeCompanion(0x00)
	d := New(f, Config{})
	if err := d.Configure(); !errors.Is(err, ErrVersion) {
		t.Fatalf("Configure = %v, want ErrVersion", err)
	}
}

func TestConfigureAcceptsBootloaderMode(t *testing.T) {
	f := newFakeCompanion(0xFF)
	d := New(f, Config{})
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure in bootloader mode: %v", err)
	}
	if !d.Bootloader() {
		t.Fatal("Bootloader() = false, want true")
	}
	// No cache priming happened: only the version read hit the bus.
	if got := f.transactions(); got != 1 {
		t.Fatalf("transactions = %d, want 1", got)
	}
}

// Each operation family checked just below and at its gate.
func TestVersionGateTable(t *testing.T) {
	cases := []struct {
		name string
		min  byte
		op   func(d *Device) error
	}{
		{"gpio", 0x01, func(d *Device) error { return d.SetGPIOValue(2, true) }},
		{"usb", 0x01, func(d *Device) error { _, err := d.USBState(); return err }},
		{"buttons", 0x01, func(d *Device) error { _, err := d.Buttons(); return err }},
		{"uid", 0x01, func(d *Device) error { _, err := d.UID(); return err }},
		{"reboot", 0x01, func(d *Device) error { return d.RebootToBootloader() }},
		{"vbat", 0x02, func(d *Device) error { _, err := d.VBatRaw(); return err }},
		{"charging", 0x02, func(d *Device) error { _, err := d.Charging(); return err }},
		{"webusb", 0x02, func(d *Device) error { _, err := d.WebUSBMode(); return err }},
		{"crash", 0x06, func(d *Device) error { _, err := d.CrashState(); return err }},
		{"ir", 0x06, func(d *Device) error { return d.IRSend(0x5583, 0x2A) }},
		{"reset", 0x08, func(d *Device) error { return d.SetResetAttempted(1) }},
		{"resetlock", 0x08, func(d *Device) error { return d.SetResetLock(1) }},
		{"ws2812", 0x09, func(d *Device) error { return d.SetWS2812Mode(1) }},
		{"msc", 0x0D, func(d *Device) error { _, err := d.MSCState(); return err }},
		{"exitwebusb", 0x0E, func(d *Device) error { return d.ExitWebUSBMode() }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.min > 0x01 {
				d, f := newTestDevice(t, tc.min-1)
				before := f.transactions()
				if err := tc.op(d); !errors.Is(err, ErrUnsupported) {
					t.Fatalf("below gate: err = %v, want ErrUnsupported", err)
				}
				if f.transactions() != before {
					t.Fatal("denied operation touched the bus")
				}
			}
			d, _ := newTestDevice(t, tc.min)
			if err := tc.op(d); err != nil {
				t.Fatalf("at gate: err = %v, want nil", err)
			}
		})
	}
}

func TestBootloaderModeBlocksApplicationBank(t *testing.T) {
	f := newFakeCompanion(0xFF)
	d := New(f, Config{})
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	before := f.transactions()
	if err := d.SetGPIOValue(0, true); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("gpio in bootloader mode: %v, want ErrUnsupported", err)
	}
	if err := d.RebootToBootloader(); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("reboot in bootloader mode: %v, want ErrUnsupported", err)
	}
	if f.transactions() != before {
		t.Fatal("denied operations touched the bus")
	}

	f.blRegs[regBLVersion] = 0x03
	v, err := d.BootloaderVersion()
	if err != nil || v != 0x03 {
		t.Fatalf("BootloaderVersion = %v, %v; want 0x03, nil", v, err)
	}
	f.blRegs[regBLState] = 0xB0
	s, err := d.BootloaderState()
	if err != nil || s != 0xB0 {
		t.Fatalf("BootloaderState = %v, %v; want 0xB0, nil", s, err)
	}
	if err := d.SetBootloaderControl(0x01); err != nil {
		t.Fatalf("SetBootloaderControl: %v", err)
	}
	if f.blRegs[regBLControl] != 0x01 {
		t.Fatalf("control register = %#x, want 0x01", f.blRegs[regBLControl])
	}
}

func TestBootloaderBankBlockedFromApplicationMode(t *testing.T) {
	d, f := newTestDevice(t, 0x0F)
	before := f.transactions()
	if _, err := d.BootloaderVersion(); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("BootloaderVersion = %v, want ErrUnsupported", err)
	}
	if err := d.SetBootloaderControl(1); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("SetBootloaderControl = %v, want ErrUnsupported", err)
	}
	if f.transactions() != before {
		t.Fatal("denied operations touched the bus")
	}
}

func TestGPIOSetThenGet(t *testing.T) {
	d, f := newTestDevice(t, 0x0F)

	if err := d.SetGPIODirection(3, true); err != nil {
		t.Fatalf("SetGPIODirection: %v", err)
	}
	if f.regs[regGPIODir] != 1<<3 {
		t.Fatalf("direction register = %#x, want %#x", f.regs[regGPIODir], 1<<3)
	}
	out, err := d.GPIODirection(3)
	if err != nil || !out {
		t.Fatalf("GPIODirection = %v, %v; want true, nil", out, err)
	}

	// Value get reads the live input register, not the output mirror.
	if err := d.SetGPIOValue(5, true); err != nil {
		t.Fatalf("SetGPIOValue: %v", err)
	}
	if f.regs[regGPIOOut] != 1<<5 {
		t.Fatalf("output register = %#x, want %#x", f.regs[regGPIOOut], 1<<5)
	}
	v, err := d.GPIOValue(5)
	if err != nil || v {
		t.Fatalf("GPIOValue = %v, %v; want false (input register)", v, err)
	}
	f.regs[regGPIOIn] = 1 << 5
	v, err = d.GPIOValue(5)
	if err != nil || !v {
		t.Fatalf("GPIOValue = %v, %v; want true", v, err)
	}
}

func TestGPIOMirrorRollbackOnFailedWrite(t *testing.T) {
	d, f := newTestDevice(t, 0x0F)

	f.failTx = errors.New("nack")
	if err := d.SetGPIOValue(1, true); err == nil {
		t.Fatal("SetGPIOValue succeeded, want transport error")
	}
	// The mirror was not committed: the next write must not carry bit 1.
	if err := d.SetGPIOValue(6, true); err != nil {
		t.Fatalf("SetGPIOValue: %v", err)
	}
	if f.regs[regGPIOOut] != 1<<6 {
		t.Fatalf("output register = %#x, want %#x", f.regs[regGPIOOut], 1<<6)
	}
}

func TestADCConversion(t *testing.T) {
	d, f := newTestDevice(t, 0x02)

	f.regs[regADCVBATLo] = 0xFF
	f.regs[regADCVBATHi] = 0x0F
	v, err := d.VBat()
	if err != nil {
		t.Fatalf("VBat: %v", err)
	}
	want := 2 * 3.3 * 4095 / 4096 // 6.5967...
	if math.Abs(float64(v)-want) > 1e-3 {
		t.Fatalf("VBat = %v, want %v", v, want)
	}

	f.regs[regADCVUSBLo] = 0
	f.regs[regADCVUSBHi] = 0
	u, err := d.VUSB()
	if err != nil || u != 0 {
		t.Fatalf("VUSB = %v, %v; want 0, nil", u, err)
	}
}

func TestWS2812Bounds(t *testing.T) {
	d, f := newTestDevice(t, 0x09)

	before := f.transactions()
	if err := d.SetWS2812Data(10, 0x00FF00FF); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("position 10: %v, want ErrOutOfRange", err)
	}
	if f.transactions() != before {
		t.Fatal("rejected write touched the bus")
	}

	if err := d.SetWS2812Data(9, 0x11223344); err != nil {
		t.Fatalf("position 9: %v", err)
	}
	base := regWS2812LED0 + 9*4
	got := [4]byte{f.regs[base], f.regs[base+1], f.regs[base+2], f.regs[base+3]}
	if got != [4]byte{0x44, 0x33, 0x22, 0x11} {
		t.Fatalf("LED data = %#v, want little-endian 0x11223344", got)
	}
}

func TestMSCBounds(t *testing.T) {
	d, f := newTestDevice(t, 0x0D)

	before := f.transactions()
	if err := d.SetMSCBlockCount(2, 1024); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("lun 2: %v, want ErrOutOfRange", err)
	}
	if err := d.SetMSCBlockSize(2, 512); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("lun 2: %v, want ErrOutOfRange", err)
	}
	if f.transactions() != before {
		t.Fatal("rejected writes touched the bus")
	}

	if err := d.SetMSCBlockCount(1, 0x00010000); err != nil {
		t.Fatalf("SetMSCBlockCount: %v", err)
	}
	if f.regs[regMSC1BlockCount+2] != 0x01 {
		t.Fatal("block count not written little-endian at LUN1 registers")
	}
	if err := d.SetMSCBlockSize(0, 512); err != nil {
		t.Fatalf("SetMSCBlockSize: %v", err)
	}
	if f.regs[regMSC0BlockSize] != 0x00 || f.regs[regMSC0BlockSize+1] != 0x02 {
		t.Fatal("block size not written little-endian at LUN0 registers")
	}
}

func TestBacklightSilentNoOpBelowGate(t *testing.T) {
	f := newFakeCompanion(0x00)
	d := New(f, Config{})
	// Configure fails on the old firmware but still caches the version.
	if err := d.Configure(); !errors.Is(err, ErrVersion) {
		t.Fatalf("Configure = %v, want ErrVersion", err)
	}
	before := f.transactions()
	if err := d.SetBacklight(128); err != nil {
		t.Fatalf("SetBacklight = %v, want silent nil", err)
	}
	if f.transactions() != before {
		t.Fatal("no-op backlight write touched the bus")
	}
	// The read path keeps normal gate semantics.
	if _, err := d.Backlight(); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Backlight = %v, want ErrUnsupported", err)
	}
}

func TestIRSendFrame(t *testing.T) {
	d, f := newTestDevice(t, 0x06)
	if err := d.IRSend(0xA1B2, 0x5C); err != nil {
		t.Fatalf("IRSend: %v", err)
	}
	got := [4]byte{
		f.regs[regIRAddressLo], f.regs[regIRAddressHi],
		f.regs[regIRCommand], f.regs[regIRTrigger],
	}
	if got != [4]byte{0xB2, 0xA1, 0x5C, 0x01} {
		t.Fatalf("IR frame = %#v", got)
	}
}

func TestRebootToBootloaderMagic(t *testing.T) {
	d, f := newTestDevice(t, 0x0F)
	if err := d.RebootToBootloader(); err != nil {
		t.Fatalf("RebootToBootloader: %v", err)
	}
	if f.regs[regBLTrigger] != blTriggerMagic {
		t.Fatalf("trigger register = %#x, want %#x", f.regs[regBLTrigger], blTriggerMagic)
	}
}

func TestTransactionTimeout(t *testing.T) {
	f := newFakeCompanion(0x0F)
	f.block = make(chan struct{})
	d := New(f, Config{Timeout: 20 * time.Millisecond})
	err := d.Configure()
	close(f.block)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Configure = %v, want ErrTimeout", err)
	}
}

// countingLock observes the per-transaction lock discipline.
type countingLock struct {
	mu       sync.Mutex
	acquired int
}

func (l *countingLock) Lock()   { l.mu.Lock(); l.acquired++ }
func (l *countingLock) Unlock() { l.mu.Unlock() }

func TestLockHeldPerTransaction(t *testing.T) {
	f := newFakeCompanion(0x0F)
	lock := &countingLock{}
	d := New(f, Config{Lock: lock})
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	// Version read plus two mirror reads.
	if lock.acquired != 3 {
		t.Fatalf("lock acquisitions = %d, want 3", lock.acquired)
	}
	// Released: an immediate relock must not deadlock.
	lock.Lock()
	lock.Unlock()
}

func TestScratchBounds(t *testing.T) {
	d, f := newTestDevice(t, 0x0F)
	if err := d.WriteScratch(0, []byte{0xDE, 0xAD}); err != nil {
		t.Fatalf("WriteScratch: %v", err)
	}
	got := make([]byte, 2)
	if err := d.ReadScratch(0, got); err != nil {
		t.Fatalf("ReadScratch: %v", err)
	}
	if got[0] != 0xDE || got[1] != 0xAD {
		t.Fatalf("scratch = %#v", got)
	}
	before := f.transactions()
	if err := d.WriteScratch(63, []byte{1, 2}); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("overflow write = %v, want ErrOutOfRange", err)
	}
	if f.transactions() != before {
		t.Fatal("rejected scratch write touched the bus")
	}
}

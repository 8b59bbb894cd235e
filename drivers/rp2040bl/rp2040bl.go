// Package rp2040bl provides a client for the companion's UART bootloader.
//
// While the companion reports the bootloader version sentinel over I2C, its
// UART speaks a simple framed command protocol: a four-byte command tag
// followed by little-endian u32 parameters, answered by a four-byte status
// tag ("OKOK") and optional payload. The client drives the full flashing
// sequence: sync, info, erase, write (with CRC echo), seal, go.
package rp2040bl

import (
	"context"
	"errors"
	"time"
)

// Baud rate of the bootloader UART.
const BaudRate = 921600

var (
	// ErrNoSync reports a companion that did not answer the sync handshake;
	// it is probably not in bootloader mode.
	ErrNoSync = errors.New("rp2040bl: no sync reply from bootloader")

	// ErrBadReply reports a reply without the expected status tag.
	ErrBadReply = errors.New("rp2040bl: unexpected bootloader reply")

	// ErrShortReply reports a reply that ended before the expected length.
	ErrShortReply = errors.New("rp2040bl: short bootloader reply")
)

// Port is the byte stream to the bootloader UART. RecvSomeContext returns
// as soon as at least one byte is available or the context ends.
type Port interface {
	Write(p []byte) (int, error)
	RecvSomeContext(ctx context.Context, buf []byte) (int, error)
}

// Info describes the flashable region as reported by the bootloader.
type Info struct {
	FlashStart uint32
	FlashSize  uint32
	EraseSize  uint32
	WriteSize  uint32
	MaxDataLen uint32
}

// Client drives one bootloader over a Port.
type Client struct {
	port Port

	// Reply deadlines: short for handshakes, long for flash operations.
	replyTimeout time.Duration
	flashTimeout time.Duration
}

// New constructs a Client with the bootloader's stock deadlines.
func New(port Port) *Client {
	return &Client{
		port:         port,
		replyTimeout: time.Second,
		flashTimeout: 10 * time.Second,
	}
}

// Sync flushes stale input and performs the handshake. The bootloader
// answers "PICO" when it is listening.
func (c *Client) Sync() error {
	c.flush()
	if err := c.send([]byte("SYNC")); err != nil {
		return err
	}
	var tag [4]byte
	if err := c.readFull(tag[:], c.replyTimeout); err != nil {
		return ErrNoSync
	}
	if string(tag[:]) != "PICO" {
		return ErrNoSync
	}
	return nil
}

// ReadInfo queries the flashable region geometry.
func (c *Client) ReadInfo() (Info, error) {
	c.flush()
	if err := c.send([]byte("INFO")); err != nil {
		return Info{}, err
	}
	var reply [24]byte
	if err := c.readFull(reply[:], c.replyTimeout); err != nil {
		return Info{}, err
	}
	if string(reply[:4]) != "OKOK" {
		return Info{}, ErrBadReply
	}
	return Info{
		FlashStart: getU32(reply[4:]),
		FlashSize:  getU32(reply[8:]),
		EraseSize:  getU32(reply[12:]),
		WriteSize:  getU32(reply[16:]),
		MaxDataLen: getU32(reply[20:]),
	}, nil
}

// Erase erases length bytes starting at address. Both must be multiples of
// the erase size reported by ReadInfo.
func (c *Client) Erase(address, length uint32) error {
	c.flush()
	cmd := make([]byte, 12)
	copy(cmd, "ERAS")
	putU32(cmd[4:], address)
	putU32(cmd[8:], length)
	if err := c.send(cmd); err != nil {
		return err
	}
	return c.expectOK(c.flashTimeout)
}

// CRC asks the bootloader for the CRC-32 of a flash range.
func (c *Client) CRC(address, length uint32) (uint32, error) {
	c.flush()
	cmd := make([]byte, 12)
	copy(cmd, "CRCC")
	putU32(cmd[4:], address)
	putU32(cmd[8:], length)
	if err := c.send(cmd); err != nil {
		return 0, err
	}
	var reply [8]byte
	if err := c.readFull(reply[:], c.flashTimeout); err != nil {
		return 0, err
	}
	if string(reply[:4]) != "OKOK" {
		return 0, ErrBadReply
	}
	return getU32(reply[4:]), nil
}

// ReadFlash reads len(data) bytes of flash starting at address.
func (c *Client) ReadFlash(address uint32, data []byte) error {
	c.flush()
	cmd := make([]byte, 12)
	copy(cmd, "READ")
	putU32(cmd[4:], address)
	putU32(cmd[8:], uint32(len(data)))
	if err := c.send(cmd); err != nil {
		return err
	}
	if err := c.expectOK(c.flashTimeout); err != nil {
		return err
	}
	return c.readFull(data, c.flashTimeout)
}

// WriteFlash writes data at address and returns the CRC-32 the bootloader
// computed over what it received.
func (c *Client) WriteFlash(address uint32, data []byte) (uint32, error) {
	c.flush()
	cmd := make([]byte, 12)
	copy(cmd, "WRIT")
	putU32(cmd[4:], address)
	putU32(cmd[8:], uint32(len(data)))
	if err := c.send(cmd); err != nil {
		return 0, err
	}
	if err := c.send(data); err != nil {
		return 0, err
	}
	var reply [8]byte
	if err := c.readFull(reply[:], c.flashTimeout); err != nil {
		return 0, err
	}
	if string(reply[:4]) != "OKOK" {
		return 0, ErrBadReply
	}
	return getU32(reply[4:]), nil
}

// Seal finalizes the image: the bootloader stores the vector table offset,
// length and CRC and marks the image bootable.
func (c *Client) Seal(vtor, length, crc uint32) error {
	c.flush()
	cmd := make([]byte, 16)
	copy(cmd, "SEAL")
	putU32(cmd[4:], vtor)
	putU32(cmd[8:], length)
	putU32(cmd[12:], crc)
	if err := c.send(cmd); err != nil {
		return err
	}
	return c.expectOK(c.flashTimeout)
}

// Go jumps into the application at the given vector table. No reply.
func (c *Client) Go(vtor uint32) error {
	c.flush()
	cmd := make([]byte, 8)
	copy(cmd, "GOGO")
	putU32(cmd[4:], vtor)
	return c.send(cmd)
}

func (c *Client) send(p []byte) error {
	for len(p) > 0 {
		n, err := c.port.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

func (c *Client) expectOK(timeout time.Duration) error {
	var tag [4]byte
	if err := c.readFull(tag[:], timeout); err != nil {
		return err
	}
	if string(tag[:]) != "OKOK" {
		return ErrBadReply
	}
	return nil
}

// readFull fills buf or fails once the deadline passes.
func (c *Client) readFull(buf []byte, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	got := 0
	for got < len(buf) {
		n, err := c.port.RecvSomeContext(ctx, buf[got:])
		if err != nil {
			if got > 0 {
				return ErrShortReply
			}
			return err
		}
		got += n
	}
	return nil
}

// flush drains whatever the bootloader sent before the next command.
func (c *Client) flush() {
	var scratch [64]byte
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		n, err := c.port.RecvSomeContext(ctx, scratch[:])
		cancel()
		if err != nil || n == 0 {
			return
		}
	}
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

//go:build rp2040

package rp2040bl

import (
	"context"

	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// UARTPort binds a hardware UART to the bootloader Port interface.
type UARTPort struct{ u *uartx.UART }

var _ Port = (*UARTPort)(nil)

// NewUARTPort configures a hardware UART at the bootloader baud rate and
// returns it as a Port.
func NewUARTPort(u *uartx.UART, tx, rx machine.Pin) (*UARTPort, error) {
	err := u.Configure(uartx.UARTConfig{
		BaudRate: BaudRate,
		TX:       tx,
		RX:       rx,
	})
	if err != nil {
		return nil, err
	}
	return &UARTPort{u: u}, nil
}

func (p *UARTPort) Write(b []byte) (int, error) { return p.u.Write(b) }

func (p *UARTPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	return p.u.RecvSomeContext(ctx, buf)
}

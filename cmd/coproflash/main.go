// Command coproflash flashes companion firmware over the bootloader's
// UART protocol, typically bridged through a USB serial adapter.
//
//	coproflash -port /dev/ttyUSB0 -file firmware.bin
//
// The image is erased, written in bootloader-sized chunks with per-chunk
// CRC checks, sealed, and started.
package main

import (
	"context"
	"flag"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"time"

	"github.com/tarm/serial"

	"copro-go/drivers/rp2040bl"
)

type serialPort struct {
	port *serial.Port
}

func (p *serialPort) Write(b []byte) (int, error) { return p.port.Write(b) }

// RecvSomeContext polls the port, whose short read timeout keeps each
// Read bounded, until a byte arrives or the context ends.
func (p *serialPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := p.port.Read(buf)
		if n > 0 {
			return n, nil
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
	}
}

func main() {
	var (
		portName = flag.String("port", "", "serial port of the bootloader UART bridge")
		fileName = flag.String("file", "", "firmware image to flash")
		baud     = flag.Int("baud", rp2040bl.BaudRate, "baud rate of the UART bridge")
		run      = flag.Bool("run", true, "start the application after sealing")
	)
	flag.Parse()
	if *portName == "" || *fileName == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := flash(*portName, *fileName, *baud, *run); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func flash(portName, fileName string, baud int, run bool) error {
	image, err := os.ReadFile(fileName)
	if err != nil {
		return err
	}
	if len(image) == 0 {
		return fmt.Errorf("%s is empty", fileName)
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        portName,
		Baud:        baud,
		ReadTimeout: 50 * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", portName, err)
	}
	defer port.Close()

	bl := rp2040bl.New(&serialPort{port: port})
	if err := bl.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	info, err := bl.ReadInfo()
	if err != nil {
		return fmt.Errorf("read info: %w", err)
	}
	fmt.Printf("bootloader: flash 0x%08x..0x%08x, erase %d, write %d, chunk %d\n",
		info.FlashStart, info.FlashStart+info.FlashSize,
		info.EraseSize, info.WriteSize, info.MaxDataLen)

	if uint32(len(image)) > info.FlashSize {
		return fmt.Errorf("image is %d bytes, flash holds %d", len(image), info.FlashSize)
	}

	eraseLen := roundUp(uint32(len(image)), info.EraseSize)
	fmt.Printf("erasing %d bytes\n", eraseLen)
	if err := bl.Erase(info.FlashStart, eraseLen); err != nil {
		return fmt.Errorf("erase: %w", err)
	}

	for off := uint32(0); off < uint32(len(image)); off += info.MaxDataLen {
		end := off + info.MaxDataLen
		if end > uint32(len(image)) {
			end = uint32(len(image))
		}
		chunk := image[off:end]
		crc, err := bl.WriteFlash(info.FlashStart+off, chunk)
		if err != nil {
			return fmt.Errorf("write at 0x%08x: %w", info.FlashStart+off, err)
		}
		if want := crc32.ChecksumIEEE(chunk); crc != want {
			return fmt.Errorf("write at 0x%08x: crc %08x, want %08x", info.FlashStart+off, crc, want)
		}
		fmt.Printf("\rwrote %d/%d bytes", end, len(image))
	}
	fmt.Println()

	imageCRC := crc32.ChecksumIEEE(image)
	deviceCRC, err := bl.CRC(info.FlashStart, uint32(len(image)))
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if deviceCRC != imageCRC {
		return fmt.Errorf("verify: flash crc %08x, want %08x", deviceCRC, imageCRC)
	}

	if err := bl.Seal(info.FlashStart, uint32(len(image)), imageCRC); err != nil {
		return fmt.Errorf("seal: %w", err)
	}
	fmt.Println("sealed")

	if run {
		if err := bl.Go(info.FlashStart); err != nil {
			return fmt.Errorf("start: %w", err)
		}
		fmt.Println("application started")
	}
	return nil
}

func roundUp(n, to uint32) uint32 {
	if to == 0 {
		return n
	}
	return (n + to - 1) / to * to
}

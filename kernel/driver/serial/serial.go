// Package serial implements an output-only driver for 16550-compatible UARTs.
// Under qemu, output written to COM1 is forwarded to the host, which makes the
// port useful for mirroring console output.
package serial

import "gopherboot/kernel/cpu"

// COM1 is the I/O port base of the first serial port.
const COM1 = uint16(0x3f8)

// UART register offsets relative to the port base.
const (
	regData        = 0
	regIntEnable   = 1
	regFifoControl = 2
	regLineControl = 3
	regModemCtrl   = 4
	regLineStatus  = 5

	// With DLAB set, offsets 0 and 1 hold the baud rate divisor.
	regDivisorLo = 0
	regDivisorHi = 1

	lineControlDLAB = 0x80
	lineControl8N1  = 0x03
	fifoEnable14    = 0xc7
	modemCtrlRtsDtr = 0x0b

	lineStatusTxEmpty = 0x20

	// baudDivisor selects 38400 baud.
	baudDivisor = 3

	// txSpinLimit bounds the wait for the transmit holding register.
	txSpinLimit = 1 << 16
)

var (
	// The port I/O functions are mocked by tests.
	portWriteByteFn = cpu.PortWriteByte
	portReadByteFn  = cpu.PortReadByte
)

// Port is an output-only serial port.
type Port struct {
	base uint16
}

// Init programs the UART at the given base port for 38400 baud, 8N1 with
// interrupts disabled and FIFOs enabled.
func (p *Port) Init(base uint16) {
	p.base = base

	portWriteByteFn(base+regIntEnable, 0)
	portWriteByteFn(base+regLineControl, lineControlDLAB)
	portWriteByteFn(base+regDivisorLo, baudDivisor)
	portWriteByteFn(base+regDivisorHi, 0)
	portWriteByteFn(base+regLineControl, lineControl8N1)
	portWriteByteFn(base+regFifoControl, fifoEnable14)
	portWriteByteFn(base+regModemCtrl, modemCtrlRtsDtr)
}

// Write implements io.Writer. Line feeds are sent as CR LF; the returned
// count only includes bytes from data.
func (p *Port) Write(data []byte) (int, error) {
	for _, b := range data {
		if b == '\n' {
			p.writeByte('\r')
		}
		p.writeByte(b)
	}

	return len(data), nil
}

func (p *Port) writeByte(b byte) {
	for spin := 0; spin < txSpinLimit; spin++ {
		if portReadByteFn(p.base+regLineStatus)&lineStatusTxEmpty != 0 {
			break
		}
	}

	portWriteByteFn(p.base+regData, b)
}

// Package cpu exposes the handful of privileged x86 instructions needed on the
// early boot path. The function bodies live in cpu_amd64.s.
package cpu

// Halt disables interrupts and stops instruction execution. Halt never
// returns.
func Halt()

// PortWriteByte writes a uint8 value to the requested I/O port.
func PortWriteByte(port uint16, val uint8)

// PortReadByte reads a uint8 value from the requested I/O port.
func PortReadByte(port uint16) uint8

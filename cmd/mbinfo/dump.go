package main

import (
	"fmt"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"gopherboot/kernel/hal/multiboot"
)

// dump is a boot information dump loaded from disk.
type dump struct {
	path string
	data []byte
	info multiboot.Info

	release func() error
}

// loadDump reads the dump at path and validates it.
func loadDump(path string) (*dump, error) {
	printVerbose("Loading dump: %s\n", path)

	d, err := openDump(path)
	if err != nil {
		return nil, err
	}

	info, kerr := multiboot.LoadBytes(d.data)
	if kerr != nil {
		_ = d.Close()
		return nil, fmt.Errorf("invalid boot information in %s: %w", path, kerr)
	}
	d.info = info

	printVerbose("Loaded %d bytes of boot information (%d byte file)\n", info.TotalSize(), len(d.data))
	return d, nil
}

// Close releases the memory backing the dump. The boot information must not
// be accessed afterwards.
func (d *dump) Close() error {
	if d.release == nil {
		return nil
	}

	err := d.release()
	d.release, d.data, d.info = nil, nil, multiboot.Info{}
	return err
}

// sanitize replaces ill-formed UTF-8 sequences in strings read from the dump.
// The kernel trusts the bootloader to provide valid UTF-8; a dump file is
// not trusted.
func sanitize(s string) string {
	out, _, err := transform.String(runes.ReplaceIllFormed(), s)
	if err != nil {
		return s
	}

	return out
}

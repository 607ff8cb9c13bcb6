//go:build !linux && !darwin

package main

import (
	"fmt"
	"os"
	"unsafe"
)

// openDump loads the dump file into an 8-byte aligned buffer.
func openDump(path string) (*dump, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty dump file: %s", path)
	}

	words := make([]uint64, (len(raw)+7)/8)
	data := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(raw))
	copy(data, raw)

	return &dump{
		path:    path,
		data:    data,
		release: func() error { return nil },
	}, nil
}

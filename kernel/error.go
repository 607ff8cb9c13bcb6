// Package kernel contains types shared by all kernel packages.
package kernel

// Error describes a kernel error. Kernel errors are declared as package-level
// pointers to Error so that returning them on the boot path never touches the
// Go allocator, which is not available until much later (if ever).
//
// Callers compare errors by pointer identity against the exported sentinels
// of the package that returned them.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

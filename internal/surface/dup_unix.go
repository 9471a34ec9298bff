//go:build unix

package surface

import (
	"fmt"
	"os"
	"syscall"
)

// dupFile wraps a duplicate of fd so closing it leaves the caller's fd open.
func dupFile(fd int, name string) (*os.File, error) {
	nfd, err := syscall.Dup(fd)
	if err != nil {
		return nil, fmt.Errorf("dup fd %d: %w", fd, err)
	}
	return os.NewFile(uintptr(nfd), name), nil
}

//go:build !unix

package surface

import (
	"errors"
	"os"
)

func dupFile(fd int, name string) (*os.File, error) {
	return nil, errors.ErrUnsupported
}

//go:build !unix

package costlog

import "os"

// Without flock, only the in-process mutex serializes writers.
func lockFile(_ *os.File) error {
	return nil
}

func unlockFile(_ *os.File) error {
	return nil
}

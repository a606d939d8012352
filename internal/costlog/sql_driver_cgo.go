//go:build cgo

package costlog

import (
	_ "github.com/tursodatabase/go-libsql"
)

// Package logsetup configures the standard logger. Import it for side effects
// from main packages.
package logsetup

import (
	"log"
	"os"
	"strings"
)

func init() {
	log.SetFlags(Flags(os.Getenv("DOORBELL_LOG_FLAGS")))
}

// Flags maps a DOORBELL_LOG_FLAGS value to log package flags. Under systemd
// the journal adds its own timestamps, so "none" is the usual choice there.
func Flags(spec string) int {
	switch strings.ToLower(strings.TrimSpace(spec)) {
	case "none":
		return 0
	case "micro":
		return log.LstdFlags | log.Lmicroseconds
	case "short":
		return log.LstdFlags | log.Lshortfile
	default:
		return log.LstdFlags
	}
}

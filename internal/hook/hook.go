// Package hook runs user-configured external programs around configuration
// changes. Hooks are strictly fire-and-forget: they run out-of-band, their
// output is logged after exit, and their failure never reaches the caller.
package hook

import (
	"log"
	"os/exec"
	"strings"
)

// Spawn starts the given command line through the shell and returns
// immediately. An empty command is a no-op. The exit status and any output
// are logged from a background goroutine; a hung hook cannot stall the
// caller.
func Spawn(name, cmdline string) {
	cmdline = strings.TrimSpace(cmdline)
	if cmdline == "" {
		return
	}

	cmd := exec.Command("/bin/sh", "-c", cmdline)
	go func() {
		out, err := cmd.CombinedOutput()
		trimmed := strings.TrimRight(string(out), "\n")
		if err != nil {
			log.Printf("%s hook failed: %v", name, err)
			if trimmed != "" {
				log.Printf("%s hook output: %s", name, trimmed)
			}
			return
		}
		if trimmed != "" {
			log.Printf("%s hook: %s", name, trimmed)
		}
	}()
}

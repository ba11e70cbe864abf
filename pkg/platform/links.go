// pkg/platform/links.go
package platform

import (
	"os"
	"runtime"
	"strings"
	"sync"
)

// Windows is the OS family that requires extra system libraries
const Windows = "windows"

var (
	linksMu sync.RWMutex

	// systemLibraries lists OS-provided libraries a statically linked
	// distribution needs, keyed by OS family
	systemLibraries = map[string][]string{
		Windows: {
			"ws2_32",   // sockets
			"wsock32",  // legacy sockets
			"gdi32",    // GUI
			"winmm",    // timers
			"iphlpapi", // network interfaces
			"psapi",    // process status
			"crypt32",  // certificates
			"secur32",  // SSPI / TLS
			"advapi32", // privileges, registry
		},
	}
)

// Libraries returns the system libraries to link for targetOS.
// The result is a copy and empty for families with no entry.
func Libraries(targetOS string) []string {
	linksMu.RLock()
	defer linksMu.RUnlock()

	libs := systemLibraries[Family(targetOS)]
	out := make([]string, len(libs))
	copy(out, libs)
	return out
}

// Register sets the system libraries for an OS family
func Register(family string, libs ...string) {
	linksMu.Lock()
	defer linksMu.Unlock()

	systemLibraries[Family(family)] = append([]string(nil), libs...)
}

// Family normalizes a GOOS value or target triple to an OS family name
func Family(targetOS string) string {
	t := strings.ToLower(strings.TrimSpace(targetOS))
	switch {
	case t == "":
		return ""
	case t == Windows, t == "win32", t == "win64",
		strings.HasPrefix(t, "mingw"),
		strings.Contains(t, "-windows"),
		strings.Contains(t, "-w64-"):
		return Windows
	case strings.Contains(t, "-darwin"), strings.Contains(t, "-apple-"), t == "macos":
		return "darwin"
	case strings.Contains(t, "-linux"):
		return "linux"
	}
	return t
}

// TargetOS returns the OS the bridge is built for.
// CBRIDGE_TARGET_OS wins over GOOS, which wins over the host OS.
func TargetOS() string {
	if t := os.Getenv("CBRIDGE_TARGET_OS"); t != "" {
		return Family(t)
	}
	if t := os.Getenv("GOOS"); t != "" {
		return Family(t)
	}
	return runtime.GOOS
}

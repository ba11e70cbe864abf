// pkg/platform/detect.go
package platform

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Platform represents the detected host platform
type Platform struct {
	OS        string   // linux, darwin, windows
	Arch      string   // amd64, arm64, 386, arm
	Available []string // Available package managers
	Preferred string   // Preferred package manager
}

// Package managers whose install command can be suggested, in preference order per OS
var (
	linuxBackends   = []string{"apt", "dnf", "pacman", "apk", "zypper", "nix", "brew"}
	darwinBackends  = []string{"brew", "nix"}
	windowsBackends = []string{"winget", "choco"}
)

// backendCommands maps a backend to the executable proving it is installed
var backendCommands = map[string][]string{
	"apt":    {"apt-get", "apt"},
	"dnf":    {"dnf"},
	"pacman": {"pacman"},
	"apk":    {"apk"},
	"zypper": {"zypper"},
	"nix":    {"nix-env", "nix"},
	"brew":   {"brew"},
	"winget": {"winget"},
	"choco":  {"choco"},
}

// Detect detects the host platform and available package managers
func Detect() (*Platform, error) {
	return detect(runtime.GOOS, runtime.GOARCH, onPath)
}

func onPath(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

func detect(goos, goarch string, exists func(string) bool) (*Platform, error) {
	p := &Platform{
		OS:        goos,
		Arch:      goarch,
		Available: []string{},
	}

	var candidates []string
	switch goos {
	case "linux":
		candidates = linuxBackends
	case "darwin":
		candidates = darwinBackends
	case "windows":
		candidates = windowsBackends
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", goos)
	}

	for _, backend := range candidates {
		for _, cmd := range backendCommands[backend] {
			if exists(cmd) {
				p.Available = append(p.Available, backend)
				break
			}
		}
	}

	// candidates are already in preference order
	if len(p.Available) > 0 {
		p.Preferred = p.Available[0]
	}

	return p, nil
}

// String returns a string representation of the platform
func (p *Platform) String() string {
	return fmt.Sprintf("%s/%s (available: %v, preferred: %s)",
		p.OS, p.Arch, p.Available, p.Preferred)
}

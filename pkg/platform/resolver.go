// pkg/platform/resolver.go
package platform

// ResolveBackend picks the package manager an install hint should target.
//
// Priority:
//  1. Explicitly requested backend
//  2. Platform preferred backend
//  3. The conventional backend for the OS
func ResolveBackend(p *Platform, requested string) string {
	if requested != "" {
		return requested
	}
	if p == nil {
		return "apt"
	}
	if p.Preferred != "" {
		return p.Preferred
	}

	switch p.OS {
	case "darwin":
		return "brew"
	case "windows":
		return "winget"
	default:
		return "apt"
	}
}

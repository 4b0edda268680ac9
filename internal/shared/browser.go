package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// browserCommand builds the command that hands authURL to the desktop's URL handler on goos.
// Windows goes through rundll32 so the query string's '&' separators are not parsed by cmd.exe.
func browserCommand(goos, authURL string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", authURL), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", authURL), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", authURL), nil
	default:
		return nil, fmt.Errorf("no browser launcher for %s, open the consent page manually", goos)
	}
}

// OpenConsentPage starts the system browser on a Spotify authorization URL without waiting for it.
func OpenConsentPage(authURL string) error {
	cmd, err := browserCommand(runtime.GOOS, authURL)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", cmd.Path, err)
	}
	return nil
}

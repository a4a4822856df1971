package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openCommand builds the platform command that hands url to the default browser.
func openCommand(goos, url string) (*exec.Cmd, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty url", ErrInvalidInput)
	}
	switch goos {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// OpenURL opens a playlist's external page in the default system browser without waiting for it.
func OpenURL(url string) error {
	cmd, err := openCommand(runtime.GOOS, url)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

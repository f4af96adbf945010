package cli

import (
	"fmt"
	"os/exec"
	"runtime"
)

// BrowserCommand returns the command that opens url in the system browser
func BrowserCommand(goos, url string) (*exec.Cmd, error) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", url), nil
	case "darwin":
		return exec.Command("open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, fmt.Errorf("no browser launcher for %s", goos)
	}
}

// LaunchBrowser starts the system browser on url without waiting for it
func LaunchBrowser(url string) error {
	cmd, err := BrowserCommand(runtime.GOOS, url)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	go cmd.Wait()
	return nil
}

// Package browser opens the panel web UI.
package browser

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Open opens url with $BROWSER when set, otherwise the OS default handler.
func Open(url string) error {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("browser: refusing to open non-http url %q", url)
	}
	if b := os.Getenv("BROWSER"); b != "" {
		return exec.Command(b, url).Start()
	}
	name, args, err := command(runtime.GOOS)
	if err != nil {
		return err
	}
	return exec.Command(name, append(args, url)...).Start()
}

// command returns the launcher for goos.
func command(goos string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", nil, nil
	case "linux", "freebsd", "openbsd":
		return "xdg-open", nil, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}, nil
	default:
		return "", nil, fmt.Errorf("unsupported OS: %s", goos)
	}
}

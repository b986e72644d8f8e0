package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"taskdeck/internal/config"
)

// errNoPassword is returned when no password source is available.
var errNoPassword = errors.New("password required (use --password or TASKDECK_PASSWORD)")

// readPassword returns the password from the flag, the environment, or a
// no-echo prompt on the terminal, in that order.
func readPassword(cfg *config.Config, flagValue, prompt string, errOut io.Writer) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if cfg.Password != "" {
		return cfg.Password, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNoPassword
	}
	fmt.Fprint(errOut, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(errOut)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// passwordFromFlagOrEnv reports whether the password was supplied
// without prompting.
func passwordFromFlagOrEnv(cfg *config.Config, flagValue string) bool {
	return flagValue != "" || cfg.Password != ""
}

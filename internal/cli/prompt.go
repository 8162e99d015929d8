package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yolodolo42/erdwallet/internal/ui"
	"golang.org/x/term"
)

const minPasswordLen = 8

// terminalFd returns the descriptor of in when it is an interactive terminal.
func terminalFd(in io.Reader) (int, bool) {
	f, ok := in.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

func (a *app) isInteractive() bool {
	_, ok := terminalFd(a.in)
	return ok
}

// readLine reads one trimmed line of visible input.
func (a *app) readLine(prompt string) (string, error) {
	fmt.Fprint(a.errOut, prompt)
	if a.lines == nil {
		a.lines = bufio.NewReader(a.in)
	}
	line, err := a.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads a line without echo on a terminal, or a plain line
// when input is piped.
func (a *app) promptSecret(prompt string) (string, error) {
	fd, ok := terminalFd(a.in)
	if !ok {
		return a.readLine(prompt)
	}

	fmt.Fprint(a.errOut, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(a.errOut)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	defer clear(raw)
	return strings.TrimSpace(string(raw)), nil
}

// readPassword asks for an existing password.
func (a *app) readPassword(prompt string) (string, error) {
	pw, err := a.readSecret(prompt)
	if err != nil {
		return "", err
	}
	if pw == "" {
		return "", errors.New("password is required")
	}
	return pw, nil
}

// readNewPassword asks for a password twice and enforces a minimum length.
func (a *app) readNewPassword(prompt string) (string, error) {
	pw, err := a.readSecret(prompt)
	if err != nil {
		return "", err
	}
	if len(pw) < minPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	confirm, err := a.readSecret("Confirm password: ")
	if err != nil {
		return "", err
	}
	if pw != confirm {
		return "", errors.New("passwords do not match")
	}
	return pw, nil
}

// confirm asks a yes/no question. Anything but y/yes is a no.
func (a *app) confirm(question string) (bool, error) {
	answer, err := a.readLine(ui.WarningStyle.Render(question) + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

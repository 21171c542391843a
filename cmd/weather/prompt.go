package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/i474232898/weather-cli/internal/weather"
)

var errNoInput = errors.New("no input provided")

func (a *app) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", errNoInput
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// prompt asks for a non-empty value.
func (a *app) prompt(label string) (string, error) {
	for {
		a.out.promptf("%s: ", label)
		v, err := a.readLine()
		if err != nil {
			return "", err
		}
		if v != "" {
			return v, nil
		}
	}
}

// promptSecret is prompt without echo when a secret reader is set.
func (a *app) promptSecret(label string) (string, error) {
	if a.readSecret == nil {
		return a.prompt(label)
	}
	for {
		a.out.promptf("%s: ", label)
		v, err := a.readSecret()
		if err != nil {
			return "", err
		}
		if v = strings.TrimSpace(v); v != "" {
			return v, nil
		}
	}
}

// terminalSecretReader reads a line from f with echo off, or returns nil when
// f is not a terminal.
func terminalSecretReader(f *os.File, out io.Writer) func() (string, error) {
	if !isatty.IsTerminal(f.Fd()) {
		return nil
	}
	return func() (string, error) {
		b, err := term.ReadPassword(int(f.Fd()))
		// The user's newline was not echoed.
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// confirm asks a yes/no question; anything but y/yes is no.
func (a *app) confirm(question string) (bool, error) {
	a.out.promptf("%s [y/N]: ", question)
	v, err := a.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(v) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// chooseLocation lists candidates and reads a 1-based choice.
func (a *app) chooseLocation(locs []weather.Location) (int, error) {
	if len(locs) == 1 {
		return 0, nil
	}
	for i, l := range locs {
		a.out.info(fmt.Sprintf("%2d) %s", i+1, l.String()))
	}
	for {
		a.out.promptf("Select location [1-%d]: ", len(locs))
		v, err := a.readLine()
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(v)
		if err == nil && n >= 1 && n <= len(locs) {
			return n - 1, nil
		}
		a.errOut.failure("Please enter a number from the list.")
	}
}

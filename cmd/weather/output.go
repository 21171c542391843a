package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/i474232898/weather-cli/internal/weather"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

var conditionColors = map[weather.Condition]string{
	weather.ConditionClear:  "\x1b[1;38;5;11m",
	weather.ConditionCloudy: "\x1b[1;38;5;7m",
	weather.ConditionRain:   "\x1b[1;38;5;12m",
	weather.ConditionSnow:   "\x1b[1;38;5;15m",
	weather.ConditionStorm:  "\x1b[1;38;5;13m",
	weather.ConditionWind:   "\x1b[1;38;5;14m",
	weather.ConditionMist:   "\x1b[1;38;5;8m",
}

func useColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer, color bool) *printer {
	return &printer{w: w, color: color}
}

func (p *printer) paint(code, s string) string {
	if !p.color || code == "" {
		return s
	}
	return code + s + ansiReset
}

func (p *printer) info(msg string) {
	fmt.Fprintln(p.w, msg)
}

func (p *printer) success(msg string) {
	fmt.Fprintln(p.w, p.paint(ansiGreen, msg))
}

func (p *printer) failure(msg string) {
	fmt.Fprintln(p.w, p.paint(ansiRed, msg))
}

func (p *printer) promptf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// weather prints "Description, 12°C", colored by condition.
func (p *printer) weather(w weather.Weather) {
	line := fmt.Sprintf("%s, %s", w.Description, w.Temperature)
	fmt.Fprintln(p.w, p.paint(conditionColors[w.Condition()], line))
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/trainplan/internal/config"
	"github.com/julianstephens/trainplan/internal/logger"
	"github.com/julianstephens/trainplan/internal/metrics"
	"github.com/julianstephens/trainplan/internal/planner"
	"github.com/julianstephens/trainplan/internal/storage"
)

// Context is handed to every command's Run method
type Context struct {
	Store       storage.Provider
	Calibration config.Calibration
	Metrics     *metrics.Metrics
	MetricsFile string
	Out         io.Writer
	In          io.Reader
	Now         func() time.Time
	Base        context.Context

	// Confirm asks a yes/no question. Tests replace it.
	Confirm func(title, description string) (bool, error)
}

// Planner builds a service over the context's store
func (c *Context) Planner() *planner.Service {
	return planner.New(planner.Deps{
		History:       c.Store,
		Efforts:       c.Store,
		Profile:       c.Store,
		PlanWriter:    c.Store,
		PlanReader:    c.Store,
		ActivityPlans: c.Store,
		Schedule:      c.Store,
		Calibration:   c.Calibration,
		Metrics:       c.Metrics,
		Now:           c.Now,
	})
}

// Ctx is the context passed to store and planner calls
func (c *Context) Ctx() context.Context {
	if c.Base == nil {
		return context.Background()
	}
	return c.Base
}

func (c *Context) Stdout() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Stdin() io.Reader {
	if c.In == nil {
		return os.Stdin
	}
	return c.In
}

func (c *Context) Today() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Ask runs Confirm, falling back to an interactive huh prompt
func (c *Context) Ask(title, description string) (bool, error) {
	if c.Confirm != nil {
		return c.Confirm(title, description)
	}
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).Run()
	if err != nil {
		return false, fmt.Errorf("interactive form error: %w", err)
	}
	return ok, nil
}

// FlushMetrics writes the metrics textfile when one was requested. Failures
// are logged, never returned.
func (c *Context) FlushMetrics() {
	if c.MetricsFile == "" || c.Metrics == nil {
		return
	}
	if err := c.Metrics.WriteTextfile(c.MetricsFile); err != nil {
		logger.Warn("Failed to write metrics file", "path", c.MetricsFile, "error", err)
	}
}

// ReadYAML decodes a YAML (or JSON) document from path; "-" reads stdin.
// Unknown fields are rejected.
func (c *Context) ReadYAML(path string, v interface{}) error {
	return c.readYAML(path, v, true)
}

// ReadYAMLLoose is ReadYAML without the unknown-field check, for callers
// that read only part of a document.
func (c *Context) ReadYAMLLoose(path string, v interface{}) error {
	return c.readYAML(path, v, false)
}

func (c *Context) readYAML(path string, v interface{}, strict bool) error {
	var r io.Reader
	if path == "-" {
		r = c.Stdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(strict)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// PrintJSON writes v as indented JSON
func (c *Context) PrintJSON(v interface{}) error {
	enc := json.NewEncoder(c.Stdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Stdout(), format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Stdout(), args...)
}

// Output styles
var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	LabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	OKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	WarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	BlockStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

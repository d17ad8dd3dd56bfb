// Package actions implements the part of the GitHub Actions runner protocol
// used by the step: console lines, workflow commands, step outputs and the
// job summary.
package actions

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
)

var ErrStepFailed = errors.New("step failed")

// Step writes to the step log and the files provided by the runner. It is
// not safe for concurrent use.
type Step struct {
	out         io.Writer
	outputPath  string
	summaryPath string
	failed      bool
}

// NewStep returns a Step writing console lines to out. The output and summary
// files are taken from GITHUB_OUTPUT and GITHUB_STEP_SUMMARY.
func NewStep(out io.Writer, getenv func(string) string) *Step {
	return &Step{
		out:         out,
		outputPath:  getenv("GITHUB_OUTPUT"),
		summaryPath: getenv("GITHUB_STEP_SUMMARY"),
	}
}

func (s *Step) Println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Step) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format+"\n", a...)
}

// SetOutput publishes a step output. Without GITHUB_OUTPUT the deprecated
// set-output command is printed instead.
func (s *Step) SetOutput(name, value string) error {
	if s.outputPath == "" {
		s.command("set-output", "name="+escapeProperty(name), value)
		return nil
	}
	delimiter := "ghadelimiter_" + uuid.NewString()
	if strings.Contains(name, delimiter) || strings.Contains(value, delimiter) {
		return fmt.Errorf("output %s: value contains the delimiter", name)
	}
	return appendFile(s.outputPath, fmt.Sprintf("%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter))
}

// Error prints an error annotation
func (s *Step) Error(msg string) {
	s.command("error", "", msg)
}

// Mask hides value in the rest of the job log
func (s *Step) Mask(value string) {
	if value == "" {
		return
	}
	s.command("add-mask", "", value)
}

// Fail marks the step as failed, a non-empty msg is printed as an error
func (s *Step) Fail(msg string) {
	s.failed = true
	if msg != "" {
		s.Error(msg)
	}
}

func (s *Step) Failed() bool {
	return s.failed
}

// Err returns ErrStepFailed once Fail was called
func (s *Step) Err() error {
	if s.failed {
		return ErrStepFailed
	}
	return nil
}

// AddSummary appends markdown to the job summary. It is a no-op outside of
// a runner.
func (s *Step) AddSummary(markdown string) error {
	if s.summaryPath == "" {
		return nil
	}
	if !strings.HasSuffix(markdown, "\n") {
		markdown += "\n"
	}
	return appendFile(s.summaryPath, markdown)
}

func (s *Step) command(name, props, msg string) {
	cmd := "::" + name
	if props != "" {
		cmd += " " + props
	}
	_, _ = fmt.Fprintf(s.out, "%s::%s\n", cmd, escapeData(msg))
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	_, err = f.WriteString(content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}

func escapeProperty(s string) string {
	s = escapeData(s)
	s = strings.ReplaceAll(s, ":", "%3A")
	return strings.ReplaceAll(s, ",", "%2C")
}

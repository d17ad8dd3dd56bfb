package model

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

type ResultErrDetail struct {
	Path    string // security.activities.sca.enabled
	Code    string // missing_required | unknown_field | type_mismatch | conflicting_values | validation_error
	Message string
	Pos     ResultErrPosition
}

func (d ResultErrDetail) Attr(name string) slog.Attr {
	return slog.GroupAttrs(
		name,
		slog.String("code", d.Code),
		slog.String("path", d.Path),
		slog.String("message", d.Message),
		slog.String("file", d.Pos.Filename),
		slog.Int("line", d.Pos.Line),
		slog.Int("column", d.Pos.Column),
	)
}

type ResultErrPosition struct {
	Filename string
	Line     int
	Column   int
}

var (
	reIncomplete  = regexp.MustCompile(`(?i)incomplete value`)
	reNotAllowed  = regexp.MustCompile(`(?i)not allowed|unknown field`)
	reConflict    = regexp.MustCompile(`(?i)conflicting values|cannot unify|incompatible`)
	reExpectedGot = regexp.MustCompile(`(?i)expected .* got .*`)
)

// ResultErrDetails splits an error returned by LoadResult into one detail
// per distinct position. Errors which do not come from CUE give no details.
func ResultErrDetails(err error) []ResultErrDetail {
	if err == nil {
		return nil
	}

	seen := make(map[ResultErrPosition]struct{})

	var out []ResultErrDetail
	for _, e := range cueerrors.Errors(err) {
		raw, args := e.Msg()
		raw = fmt.Sprintf(raw, args...)
		path := normalizePath(e.Path())
		code, msg := classify(raw, path)
		pos := position(e)
		if _, ok := seen[pos]; ok {
			continue
		}

		out = append(out, ResultErrDetail{
			Path:    path,
			Code:    code,
			Message: msg,
			Pos:     pos,
		})
		seen[pos] = struct{}{}
	}
	return out
}

func position(err cueerrors.Error) ResultErrPosition {
	for _, r := range cueerrors.Positions(err) {
		if r.Filename() == "" {
			continue
		}
		return ResultErrPosition{
			Filename: r.Filename(),
			Line:     r.Line(),
			Column:   r.Column(),
		}
	}
	var zero ResultErrPosition
	return zero
}

func normalizePath(p []string) string {
	if len(p) == 0 {
		return ""
	}
	// Remove leading definition (#Result)
	if strings.HasPrefix(p[0], "#") {
		p = p[1:]
	}
	return strings.Join(p, ".")
}

func classify(raw, path string) (code, msg string) {
	switch {
	case reNotAllowed.MatchString(raw):
		return "unknown_field", fmt.Sprintf("Field %s is not allowed", last(path))
	case reIncomplete.MatchString(raw):
		return "missing_required", fmt.Sprintf("Field %s is required", last(path))
	case reConflict.MatchString(raw):
		return "conflicting_values", fmt.Sprintf("Conflicting values for %s", last(path))
	case reExpectedGot.MatchString(raw):
		return "type_mismatch", fmt.Sprintf("Field %s has wrong type/value", last(path))
	default:
		return "validation_error", raw
	}
}

func last(p string) string {
	if p == "" {
		return p
	}
	if i := strings.LastIndexByte(p, '.'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Package describe provides the description sources that back the
// disclosure tree's lazy fetch capability.
package describe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"api-doc-explorer/internal/disclosure"
)

// ErrUnavailable marks a transport or protocol failure of a source.
var ErrUnavailable = errors.New("description source unavailable")

// Target identifies what a description is requested for. Location and
// Pointer are empty for operation-level targets such as alternatives.
type Target struct {
	Method   string
	Route    string
	Summary  string
	Location disclosure.Location
	Path     []string
	Name     string
	VarType  string

	// Embedded is the description carried by the OpenAPI document itself.
	Embedded string
}

// Pointer is the JSON pointer of the parameter within its location.
func (t Target) Pointer() string {
	if t.Location == "" {
		return ""
	}
	full := append(append([]string(nil), t.Path...), t.Name)
	return disclosure.PathKey(full)
}

// String renders the target for logs.
func (t Target) String() string {
	if t.Location == "" {
		return fmt.Sprintf("%s %s", t.Method, t.Route)
	}
	return fmt.Sprintf("%s %s %s%s", t.Method, t.Route, t.Location, t.Pointer())
}

// Source resolves descriptions. A nil text with a nil error means the source
// has no description for the target.
type Source interface {
	Describe(ctx context.Context, target Target) (*string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, target Target) (*string, error)

func (f SourceFunc) Describe(ctx context.Context, target Target) (*string, error) {
	return f(ctx, target)
}

// Bind turns a source and a target into a leaf fetch function.
func Bind(src Source, target Target) disclosure.FetchFunc {
	return func(ctx context.Context) (*string, error) {
		return src.Describe(ctx, target)
	}
}

// Embedded serves the description carried by the OpenAPI document.
type Embedded struct{}

func (Embedded) Describe(_ context.Context, target Target) (*string, error) {
	return textOrNil(target.Embedded), nil
}

// Chain asks each source in order and returns the first description found.
// Failing sources are skipped; if no source had a description and at least
// one failed, the joined failures are returned.
type Chain []Source

func (c Chain) Describe(ctx context.Context, target Target) (*string, error) {
	var errs []error
	for _, src := range c {
		text, err := src.Describe(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			errs = append(errs, err)
			continue
		}
		if text != nil {
			return text, nil
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, nil
}

func textOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Package viewer assembles the disclosure sessions that make up the page of
// one API endpoint: a parameter tree per location plus the alternative
// operations available on the same route.
package viewer

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"api-doc-explorer/internal/describe"
	"api-doc-explorer/internal/disclosure"
	"api-doc-explorer/internal/types"
)

// OperationType is the VarType of alternative entries.
const OperationType = "operation"

// Option configures an EndpointView.
type Option func(*options)

type options struct {
	source    describe.Source
	logger    *slog.Logger
	expanded  []string
	onFailure func(*disclosure.FetchError)
}

// WithSource sets where leaf descriptions come from. The default serves the
// descriptions embedded in the OpenAPI document.
func WithSource(src describe.Source) Option {
	return func(o *options) { o.source = src }
}

// WithLogger sets the logger shared by every session of the view.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithExpanded marks nodes expanded at build time. Each entry is a location
// followed by a JSON pointer, e.g. "body/owner/address" or "query".
func WithExpanded(paths ...string) Option {
	return func(o *options) { o.expanded = append(o.expanded, paths...) }
}

// WithFailureHandler receives every failed fetch in addition to the view's
// own failure log.
func WithFailureHandler(fn func(*disclosure.FetchError)) Option {
	return func(o *options) { o.onFailure = fn }
}

// EndpointView is the disclosure state of one endpoint page.
type EndpointView struct {
	endpoint     types.Endpoint
	logger       *slog.Logger
	locations    []disclosure.Location
	sections     map[disclosure.Location]*disclosure.Coordinator
	alternatives *disclosure.FlatCollection

	mu       sync.Mutex
	failures []*disclosure.FetchError
}

// New builds the view of endpoint. siblings may contain every endpoint of
// the document; those sharing endpoint's route become its alternatives.
func New(endpoint types.Endpoint, siblings []types.Endpoint, opts ...Option) (*EndpointView, error) {
	o := options{
		source: describe.Embedded{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}

	v := &EndpointView{
		endpoint: endpoint,
		logger:   o.logger.With("endpoint", endpoint.Key()),
		sections: make(map[disclosure.Location]*disclosure.Coordinator),
	}
	expanded, err := parseExpanded(o.expanded)
	if err != nil {
		return nil, err
	}
	coordOpts := []disclosure.Option{
		disclosure.WithLogger(v.logger),
		disclosure.WithFailureHandler(func(fe *disclosure.FetchError) {
			v.recordFailure(fe)
			if o.onFailure != nil {
				o.onFailure(fe)
			}
		}),
	}

	grouped := v.descriptors(o.source)
	for _, loc := range disclosure.Locations {
		leaves, ok := grouped[loc]
		if !ok {
			continue
		}
		tree, err := disclosure.Build(leaves, disclosure.WithRootName(string(loc)))
		if err != nil {
			v.Close()
			return nil, fmt.Errorf("%s %s parameters: %w", endpoint.Key(), loc, err)
		}
		state := disclosure.Initialize(tree, disclosure.WithExpandedPaths(expanded[loc]...))
		coord, err := disclosure.NewCoordinator(tree, state, coordOpts...)
		if err != nil {
			v.Close()
			return nil, err
		}
		v.locations = append(v.locations, loc)
		v.sections[loc] = coord
	}

	v.alternatives, err = disclosure.NewFlatCollection(alternativeEntries(endpoint, siblings, o.source), coordOpts...)
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("%s alternatives: %w", endpoint.Key(), err)
	}
	return v, nil
}

func (v *EndpointView) descriptors(src describe.Source) map[disclosure.Location][]disclosure.LeafDescriptor {
	ep := v.endpoint
	grouped := make(map[disclosure.Location][]disclosure.LeafDescriptor)

	for _, p := range ep.Parameters {
		loc, err := disclosure.ParseLocation(p.In)
		if err != nil {
			v.logger.Debug("skipping parameter", "name", p.Name, "in", p.In)
			continue
		}
		target := describe.Target{
			Method: ep.Method, Route: ep.Path, Summary: ep.Summary,
			Location: loc, Name: p.Name, VarType: p.Type, Embedded: p.Description,
		}
		grouped[loc] = append(grouped[loc], disclosure.LeafDescriptor{
			Location:  loc,
			Name:      p.Name,
			VarType:   p.Type,
			AddedDate: p.AddedDate,
			Fetch:     describe.Bind(src, target),
		})
	}

	for _, f := range ep.Body {
		target := describe.Target{
			Method: ep.Method, Route: ep.Path, Summary: ep.Summary,
			Location: disclosure.BodyParam, Path: f.Path, Name: f.Name, VarType: f.Type, Embedded: f.Description,
		}
		grouped[disclosure.BodyParam] = append(grouped[disclosure.BodyParam], disclosure.LeafDescriptor{
			Location:  disclosure.BodyParam,
			Path:      f.Path,
			Name:      f.Name,
			VarType:   f.Type,
			AddedDate: f.AddedDate,
			Fetch:     describe.Bind(src, target),
		})
	}
	return grouped
}

func alternativeEntries(endpoint types.Endpoint, siblings []types.Endpoint, src describe.Source) []disclosure.LeafDescriptor {
	var entries []disclosure.LeafDescriptor
	for _, other := range siblings {
		if other.Path != endpoint.Path || other.Method == endpoint.Method {
			continue
		}
		embedded := other.Description
		if embedded == "" {
			embedded = other.Summary
		}
		target := describe.Target{Method: other.Method, Route: other.Path, Summary: other.Summary, Embedded: embedded}
		entries = append(entries, disclosure.LeafDescriptor{
			Name:    other.Key(),
			VarType: OperationType,
			Fetch:   describe.Bind(src, target),
		})
	}
	return entries
}

// ParsePath splits "location/pointer" into a location and a node path.
// A bare location addresses the section root.
func ParsePath(s string) (disclosure.Location, []string, error) {
	head, pointer, found := strings.Cut(s, "/")
	loc, err := disclosure.ParseLocation(head)
	if err != nil {
		return "", nil, err
	}
	if !found {
		return loc, nil, nil
	}
	path, err := disclosure.ParsePathKey("/" + pointer)
	if err != nil {
		return "", nil, err
	}
	return loc, path, nil
}

func parseExpanded(paths []string) (map[disclosure.Location][]string, error) {
	out := make(map[disclosure.Location][]string)
	for _, p := range paths {
		loc, path, err := ParsePath(p)
		if err != nil {
			return nil, fmt.Errorf("expanded path %q: %w", p, err)
		}
		out[loc] = append(out[loc], disclosure.PathKey(path))
	}
	return out, nil
}

func (v *EndpointView) recordFailure(fe *disclosure.FetchError) {
	v.mu.Lock()
	v.failures = append(v.failures, fe)
	v.mu.Unlock()
}

// Endpoint returns the endpoint the view was built from.
func (v *EndpointView) Endpoint() types.Endpoint { return v.endpoint }

// Locations lists the locations that have parameters, in display order.
func (v *EndpointView) Locations() []disclosure.Location {
	return append([]disclosure.Location(nil), v.locations...)
}

// Section returns the session of one location.
func (v *EndpointView) Section(loc disclosure.Location) (*disclosure.Coordinator, bool) {
	c, ok := v.sections[loc]
	return c, ok
}

// Alternatives returns the other operations on the route.
func (v *EndpointView) Alternatives() *disclosure.FlatCollection { return v.alternatives }

// Sessions returns every coordinator of the view, alternatives last.
func (v *EndpointView) Sessions() []*disclosure.Coordinator {
	out := make([]*disclosure.Coordinator, 0, len(v.locations)+1)
	for _, loc := range v.locations {
		out = append(out, v.sections[loc])
	}
	if v.alternatives != nil {
		out = append(out, v.alternatives.Coordinator())
	}
	return out
}

// Toggle flips the node at path within loc.
func (v *EndpointView) Toggle(loc disclosure.Location, path []string) error {
	c, err := v.section(loc)
	if err != nil {
		return err
	}
	_, err = c.Toggle(path)
	return err
}

// RequestDescription starts or joins the fetch of the leaf at path within loc.
func (v *EndpointView) RequestDescription(loc disclosure.Location, path []string) (*disclosure.Settlement, error) {
	c, err := v.section(loc)
	if err != nil {
		return nil, err
	}
	_, settle, err := c.RequestDescription(path)
	return settle, err
}

func (v *EndpointView) section(loc disclosure.Location) (*disclosure.Coordinator, error) {
	c, ok := v.sections[loc]
	if !ok {
		return nil, &disclosure.PathNotFoundError{Path: []string{string(loc)}}
	}
	return c, nil
}

// Failures returns the fetch failures reported so far.
func (v *EndpointView) Failures() []*disclosure.FetchError {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]*disclosure.FetchError(nil), v.failures...)
}

// Close disposes every session. Fetches still in flight are discarded.
func (v *EndpointView) Close() {
	for _, c := range v.sections {
		c.Dispose()
	}
	if v.alternatives != nil {
		v.alternatives.Dispose()
	}
}

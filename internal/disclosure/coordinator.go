package disclosure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Coordinator owns the current State root of one view session and fills
// leaf descriptions on demand.
//
// Thread Safety:
//
//	All mutating calls are expected from a single logical owner. Fetch
//	settlements arrive on their own goroutines, so root replacement is
//	serialized by mu. The trees themselves are immutable and may be read
//	concurrently once obtained.
type Coordinator struct {
	id        string
	tree      *TreeNode
	logger    *slog.Logger
	onFailure func(*FetchError)

	ctx    context.Context
	cancel context.CancelFunc

	// flight holds at most one fetch per leaf key. Keys are forgotten
	// under mu in the same step that records the settlement.
	flight singleflight.Group

	mu       sync.Mutex
	state    *State
	disposed bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithFailureHandler registers the channel that receives failed fetches.
// It is called once per failed fetch, regardless of how many callers were
// coalesced onto it, and never while internal locks are held.
func WithFailureHandler(fn func(*FetchError)) Option {
	return func(c *Coordinator) { c.onFailure = fn }
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(c *Coordinator) { c.id = id }
}

// NewCoordinator starts a session over tree. A nil state is initialized with
// defaults; a non-nil state must mirror tree and have no Loading leaves.
func NewCoordinator(tree *TreeNode, state *State, opts ...Option) (*Coordinator, error) {
	if tree == nil {
		return nil, fmt.Errorf("nil tree")
	}
	if state == nil {
		state = Initialize(tree)
	}
	if !SameShape(tree, state) {
		return nil, ErrShapeMismatch
	}
	if hasLoading(state) {
		return nil, ErrLoadingSeed
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		id:     uuid.NewString(),
		tree:   tree,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctx:    ctx,
		cancel: cancel,
		state:  state,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func hasLoading(s *State) bool {
	if s.status == StatusLoading {
		return true
	}
	for _, child := range s.children {
		if hasLoading(child) {
			return true
		}
	}
	return false
}

// ID returns the session id used in logs.
func (c *Coordinator) ID() string { return c.id }

// Tree returns the static node tree.
func (c *Coordinator) Tree() *TreeNode { return c.tree }

// State returns the current root.
func (c *Coordinator) State() *State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Toggle flips the expanded flag of the node at path and returns the new root.
func (c *Coordinator) Toggle(path []string) (*State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil, ErrDisposed
	}
	next, err := WithToggledChildren(c.state, path)
	if err != nil {
		return nil, err
	}
	c.state = next
	return next, nil
}

// RequestDescription ensures the description of the leaf at path is loaded
// or loading. It returns the root after any Loading transition, and a
// Settlement that resolves to the root current when the fetch settles.
//
// A Loaded leaf is served from the tree without a fetch. A leaf with a fetch
// already in flight joins that fetch. Otherwise the leaf is marked Loading
// and its Fetch is started. Failed leaves are retried.
func (c *Coordinator) RequestDescription(path []string) (*State, *Settlement, error) {
	node, ok := c.tree.Lookup(path)
	if !ok {
		return nil, nil, &PathNotFoundError{Path: append([]string(nil), path...)}
	}
	if node.descriptor == nil {
		return nil, nil, ErrNotLeaf
	}
	leaf := *node.descriptor
	key := string(leaf.Key())

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil, nil, ErrDisposed
	}

	current, _ := c.state.Lookup(path)
	switch current.status {
	case StatusLoaded:
		requestTotal.WithLabelValues(pathCacheHit).Inc()
		return c.state, resolvedSettlement(c.state, current.description), nil
	case StatusLoading:
		requestTotal.WithLabelValues(pathCoalesced).Inc()
		c.logger.Debug("joining in-flight fetch", "session", c.id, "leaf", key)
	default:
		next, err := withStatus(c.state, path, StatusLoading)
		if err != nil {
			return nil, nil, err
		}
		c.state = next
		requestTotal.WithLabelValues(pathFetch).Inc()
		c.logger.Debug("starting fetch", "session", c.id, "leaf", key)
	}

	path = append([]string(nil), path...)
	ch := c.flight.DoChan(key, func() (interface{}, error) {
		return c.fetch(path, leaf), nil
	})
	return c.state, awaitFlight(ch), nil
}

// Dispose ends the session. In-flight fetches see a canceled context and
// their settlements are dropped without touching the tree.
func (c *Coordinator) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.disposed = true
	c.cancel()
	c.logger.Debug("session disposed", "session", c.id)
}

// Disposed reports whether Dispose has been called.
func (c *Coordinator) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

type flightResult struct {
	state   *State
	text    *string
	err     *FetchError
	dropped bool
}

// fetch runs inside the singleflight call for leaf.
func (c *Coordinator) fetch(path []string, leaf LeafDescriptor) flightResult {
	key := leaf.Key()
	start := time.Now()
	text, err := c.invoke(leaf)
	fetchDuration.Observe(time.Since(start).Seconds())

	c.mu.Lock()
	c.flight.Forget(string(key))
	if c.disposed {
		c.mu.Unlock()
		droppedSettlements.Inc()
		return flightResult{dropped: true}
	}

	var fetchErr *FetchError
	outcome := Succeeded(text)
	if err != nil {
		fetchErr = &FetchError{Key: key, Path: path, Err: err}
		outcome = Failed()
	}
	if next, applyErr := WithDescription(c.state, path, outcome); applyErr == nil {
		c.state = next
	}
	state := c.state
	c.mu.Unlock()

	switch {
	case fetchErr != nil:
		fetchTotal.WithLabelValues(outcomeFailed).Inc()
		c.logger.Warn("description fetch failed", "session", c.id, "leaf", string(key), "error", err)
		if c.onFailure != nil {
			c.onFailure(fetchErr)
		}
	case text == nil:
		fetchTotal.WithLabelValues(outcomeEmpty).Inc()
		c.logger.Debug("no description available", "session", c.id, "leaf", string(key))
	default:
		fetchTotal.WithLabelValues(outcomeLoaded).Inc()
		c.logger.Debug("description loaded", "session", c.id, "leaf", string(key),
			"duration", time.Since(start))
	}
	return flightResult{state: state, text: text, err: fetchErr}
}

func (c *Coordinator) invoke(leaf LeafDescriptor) (text *string, err error) {
	if leaf.Fetch == nil {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			text, err = nil, fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	return leaf.Fetch(c.ctx)
}

// Settlement is the eventual result of a RequestDescription call.
type Settlement struct {
	done    chan struct{}
	state   *State
	text    *string
	err     error
	dropped bool
}

func resolvedSettlement(state *State, text *string) *Settlement {
	s := &Settlement{done: make(chan struct{}), state: state, text: text}
	close(s.done)
	return s
}

func awaitFlight(ch <-chan singleflight.Result) *Settlement {
	s := &Settlement{done: make(chan struct{})}
	go func() {
		defer close(s.done)
		res := <-ch
		r, _ := res.Val.(flightResult)
		s.state, s.text, s.dropped = r.state, r.text, r.dropped
		if r.err != nil {
			s.err = r.err
		}
	}()
	return s
}

// Done is closed once the settlement has resolved.
func (s *Settlement) Done() <-chan struct{} { return s.done }

// Wait blocks until the fetch settles or ctx is done. It returns the root
// current at settlement time. A failed fetch still resolves to a state (with
// the leaf Failed); see Err. If the session was disposed first, Wait
// returns ErrDisposed.
func (s *Settlement) Wait(ctx context.Context) (*State, error) {
	select {
	case <-s.done:
		if s.dropped {
			return nil, ErrDisposed
		}
		return s.state, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Text returns the fetched description once Done is closed.
func (s *Settlement) Text() (string, bool) {
	select {
	case <-s.done:
	default:
		return "", false
	}
	if s.text == nil {
		return "", false
	}
	return *s.text, true
}

// Err returns the *FetchError of a failed fetch once Done is closed.
func (s *Settlement) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// ============================================================================
// backend/internal/resolver/resolver.go
// Per-request resolution of subject and class references
// ============================================================================

package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"schoolstats/backend/internal/records"
)

// ErrNotFound may be returned by a Lookup for a missing entity. Lookups can
// also report a missing entity with a codes.NotFound gRPC status.
var ErrNotFound = errors.New("entity not found")

// Lookup fetches a single entity by id.
type Lookup[T any] func(ctx context.Context, id string) (T, error)

// IsNotFound reports whether err means the entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || status.Code(err) == codes.NotFound
}

// IsTransient reports whether err came from a deadline or cancellation rather
// than from the store answering the lookup.
func IsTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	switch status.Code(err) {
	case codes.DeadlineExceeded, codes.Canceled:
		return true
	}
	return false
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTimeout bounds every lookup issued by the Resolver.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// Resolver turns bare-id references into embedded ones. It memoizes every
// answered lookup (hits and misses) for its own lifetime, so one Resolver
// should be created per reporting request. Lookups that time out or are
// cancelled are not memoized and are retried by the next caller. It is safe
// for concurrent use.
type Resolver struct {
	subjects *cache[records.Subject]
	classes  *cache[records.Class]
	timeout  time.Duration
	lookups  atomic.Int64

	mu       sync.Mutex
	warnings []string
	seen     map[string]struct{}

	// timed-out lookups, reported unless a retry succeeds
	pending      map[string]string
	pendingOrder []string
}

// New creates a Resolver over the given lookups.
func New(subjects Lookup[records.Subject], classes Lookup[records.Class], opts ...Option) *Resolver {
	r := &Resolver{
		subjects: newCache("subject", subjects),
		classes:  newCache("class", classes),
		seen:     make(map[string]struct{}),
		pending:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subject resolves a subject reference. The returned bool is false when the
// reference is absent or could not be resolved; the input ref is then returned.
func (r *Resolver) Subject(ctx context.Context, ref records.SubjectRef) (records.SubjectRef, bool) {
	return resolve(ctx, r, r.subjects, ref)
}

// Class resolves a class reference, see Subject.
func (r *Resolver) Class(ctx context.Context, ref records.ClassRef) (records.ClassRef, bool) {
	return resolve(ctx, r, r.classes, ref)
}

// SubjectName returns the resolved subject name, or records.UnknownSubject.
func (r *Resolver) SubjectName(ctx context.Context, ref records.SubjectRef) string {
	resolved, ok := r.Subject(ctx, ref)
	if !ok {
		return records.UnknownSubject
	}
	s, _ := resolved.Resolved()
	if s.Name == "" {
		return records.UnknownSubject
	}
	return s.Name
}

// Lookups returns the number of lookups actually issued.
func (r *Resolver) Lookups() int {
	return int(r.lookups.Load())
}

// Warnings returns one note per reference that could not be resolved, in the
// order the failures happened. Timed-out lookups that later succeeded are not
// reported.
func (r *Resolver) Warnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.warnings...)
	listed := make(map[string]struct{}, len(r.pending))
	for _, key := range r.pendingOrder {
		msg, ok := r.pending[key]
		if _, dup := listed[key]; !ok || dup {
			continue
		}
		listed[key] = struct{}{}
		out = append(out, msg)
	}
	return out
}

func (r *Resolver) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.seen[msg]; dup {
		return
	}
	r.seen[msg] = struct{}{}
	r.warnings = append(r.warnings, msg)
}

func (r *Resolver) deferWarn(key, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[key]; !ok {
		r.pendingOrder = append(r.pendingOrder, key)
	}
	r.pending[key] = msg
}

func (r *Resolver) clearPending(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, key)
}

// ============================================================================
// Memoized lookups
// ============================================================================

type outcome[T any] struct {
	value     T
	ok        bool
	transient bool
}

type cache[T any] struct {
	kind   string
	lookup Lookup[T]
	group  singleflight.Group

	mu   sync.Mutex
	memo map[string]outcome[T]
}

func newCache[T any](kind string, lookup Lookup[T]) *cache[T] {
	return &cache[T]{kind: kind, lookup: lookup, memo: make(map[string]outcome[T])}
}

func (c *cache[T]) get(id string) (outcome[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, hit := c.memo[id]
	return o, hit
}

func (c *cache[T]) put(id string, o outcome[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memo[id] = o
}

func resolve[T any](ctx context.Context, r *Resolver, c *cache[T], ref records.Ref[T]) (records.Ref[T], bool) {
	if _, ok := ref.Resolved(); ok {
		return ref, true
	}
	if ref.IsZero() {
		return ref, false
	}

	id := ref.ID()
	o, hit := c.get(id)
	if !hit {
		// concurrent callers asking for the same id share one lookup
		ran := false
		v, _, _ := c.group.Do(id, func() (interface{}, error) {
			if o, hit := c.get(id); hit {
				return o, nil
			}
			ran = true
			o := fetch(ctx, r, c, id)
			if !o.transient {
				c.put(id, o)
			}
			return o, nil
		})
		o = v.(outcome[T])

		// the shared call ran under another caller's deadline
		if o.transient && !ran && ctx.Err() == nil {
			o = fetch(ctx, r, c, id)
			if !o.transient {
				c.put(id, o)
			}
		}
	}

	if !o.ok {
		return ref, false
	}
	return records.Embed(o.value), true
}

func fetch[T any](ctx context.Context, r *Resolver, c *cache[T], id string) outcome[T] {
	if c.lookup == nil {
		r.warn("%s %s: no lookup available", c.kind, id)
		return outcome[T]{}
	}

	lookupCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	key := c.kind + " " + id
	r.lookups.Add(1)
	v, err := c.lookup(lookupCtx, id)
	if err != nil {
		if IsTransient(err) {
			r.deferWarn(key, fmt.Sprintf("%s %s lookup failed: %v", c.kind, id, err))
			return outcome[T]{transient: true}
		}
		r.clearPending(key)
		if IsNotFound(err) {
			r.warn("%s %s not found", c.kind, id)
		} else {
			r.warn("%s %s lookup failed: %v", c.kind, id, err)
		}
		return outcome[T]{}
	}
	r.clearPending(key)
	if records.Embed(v).ID() == "" {
		r.warn("%s %s not found", c.kind, id)
		return outcome[T]{}
	}
	return outcome[T]{value: v, ok: true}
}

package loop

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/njchilds90/apoptosim/reaction"
)

// Program is the compiled structure of a main/loop pair. It depends only on
// the equations of the two systems and the shared set, never on parameter
// or initial values, so it can be reused by any simulator whose systems
// have the same fingerprint.
type Program struct {
	Plan     *Plan
	MainBody *Body
	LoopBody *Body
	System   *System
}

// Compile plans, generates and assembles a program.
func Compile(ctx context.Context, main, loop *reaction.Compiled, shared []string) (prog *Program, err error) {
	_, span := tracer.Start(ctx, "loop.Compile", trace.WithAttributes(
		attribute.String("loop.main", main.Name),
		attribute.String("loop.loop", loop.Name),
		attribute.Int("loop.shared", len(shared)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		compileTotal.WithLabelValues(result(err)).Inc()
		span.End()
	}()

	plan, err := NewPlan(main, loop, shared)
	if err != nil {
		return nil, err
	}
	mb, err := generateMainBody(main)
	if err != nil {
		return nil, err
	}
	lb, err := GenerateBody(loop, plan)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("loop.y0", plan.Layout.Y0),
		attribute.Int("loop.ys", plan.Layout.Ys),
		attribute.Int("loop.p0", plan.Layout.P0),
		attribute.Int("loop.ps", plan.Layout.Ps),
	)
	return &Program{
		Plan:     plan,
		MainBody: mb,
		LoopBody: lb,
		System:   Assemble(plan, mb, lb),
	}, nil
}

// Fingerprint identifies a main/loop/shared triple by its compiled content.
func Fingerprint(main, loop *reaction.Compiled, shared []string) string {
	h := sha256.New()
	writeSystem(h, main)
	writeSystem(h, loop)
	for _, s := range shared {
		io.WriteString(h, "shared:"+s+"\n")
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeSystem(w io.Writer, c *reaction.Compiled) {
	io.WriteString(w, "system:"+c.Name+"\n")
	for i, v := range c.Variables {
		io.WriteString(w, "d "+v.Name()+" = "+c.Equations[i].String()+"\n")
	}
	for _, p := range c.Parameters {
		io.WriteString(w, "p "+p.Name()+"\n")
	}
}

// Cache memoizes programs by fingerprint. Concurrent requests for the same
// fingerprint share one compilation. Entries are immutable.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Program
	flight  singleflight.Group

	hits   int64
	misses int64
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: map[string]*Program{}}
}

// Get returns the cached program for the triple, compiling it on a miss.
// Failed compilations are not cached.
func (c *Cache) Get(ctx context.Context, main, loop *reaction.Compiled, shared []string) (*Program, error) {
	key := Fingerprint(main, loop, shared)

	c.mu.RLock()
	prog, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		atomic.AddInt64(&c.hits, 1)
		cacheRequests.WithLabelValues("hit").Inc()
		return prog, nil
	}
	atomic.AddInt64(&c.misses, 1)
	cacheRequests.WithLabelValues("miss").Inc()

	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		c.mu.RLock()
		prog, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return prog, nil
		}
		prog, err := Compile(ctx, main, loop, shared)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = prog
		c.mu.Unlock()
		return prog, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Program), nil
}

// Len returns the number of cached programs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

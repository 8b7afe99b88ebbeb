package loop

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/njchilds90/apoptosim/ode"
	"github.com/njchilds90/apoptosim/reaction"
	"github.com/njchilds90/apoptosim/symbolic"
	"github.com/njchilds90/apoptosim/table"
)

// Simulator solves a main network coupled to N replicates of a loop network.
// Default values come from the simulator's own systems; only the program
// may be shared through a Cache.
type Simulator struct {
	main   *reaction.Compiled
	loop   *reaction.Compiled
	prog   *Program
	logger *slog.Logger
}

type options struct {
	logger *slog.Logger
	cache  *Cache
}

// Option configures a Simulator.
type Option func(*options)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCache compiles through c instead of compiling directly.
func WithCache(c *Cache) Option {
	return func(o *options) { o.cache = c }
}

// New compiles both networks and the loop program. Every shared symbol must
// be a variable of main.
func New(main, loop *reaction.Network, shared []*symbolic.Sym, opts ...Option) (*Simulator, error) {
	mc, err := reaction.Compile(main)
	if err != nil {
		return nil, fmt.Errorf("compile main %s: %w", main.Name(), err)
	}
	lc, err := reaction.Compile(loop)
	if err != nil {
		return nil, fmt.Errorf("compile loop %s: %w", loop.Name(), err)
	}
	names := make([]string, len(shared))
	for i, s := range shared {
		names[i] = s.Name()
	}
	return NewCompiled(context.Background(), mc, lc, names, opts...)
}

// NewCompiled builds a Simulator from already compiled systems.
func NewCompiled(ctx context.Context, main, loop *reaction.Compiled, shared []string, opts ...Option) (*Simulator, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	var (
		prog *Program
		err  error
	)
	if o.cache != nil {
		prog, err = o.cache.Get(ctx, main, loop, shared)
	} else {
		prog, err = Compile(ctx, main, loop, shared)
	}
	if err != nil {
		return nil, err
	}
	l := prog.Plan.Layout
	o.logger.Debug("loop program compiled",
		slog.String("main", main.Name),
		slog.String("loop", loop.Name),
		slog.Int("y0", l.Y0),
		slog.Int("ys", l.Ys),
		slog.Int("p0", l.P0),
		slog.Int("ps", l.Ps),
		slog.Any("shared", l.Shared),
	)
	return &Simulator{main: main, loop: loop, prog: prog, logger: o.logger}, nil
}

// Program returns the compiled program.
func (s *Simulator) Program() *Program { return s.prog }

// Systems returns the compiled main and loop systems.
func (s *Simulator) Systems() (main, loop *reaction.Compiled) { return s.main, s.loop }

// Layout returns the slot layout.
func (s *Simulator) Layout() Layout { return s.prog.Plan.Layout }

// SolveOptions configures one simulation.
type SolveOptions struct {
	MainValues reaction.Values
	LoopValues LoopValues
	Replicates int // 0 infers N from the sequence overrides
	SaveAt     []float64
	Solver     *ode.Solver
	Options    *ode.Options // tolerances and step limits; SaveAt is taken from above
	Output     Policy
}

// CreateInitials returns the initial state and parameter vectors.
func (s *Simulator) CreateInitials(opts SolveOptions) (y, p []float64, err error) {
	return Initials(s.main, s.loop, s.prog.Plan, opts.MainValues, opts.LoopValues, opts.Replicates)
}

// CreateProblem returns the integrator problem over [0, last save point].
func (s *Simulator) CreateProblem(opts SolveOptions) (*ode.Problem, error) {
	if len(opts.SaveAt) == 0 {
		return nil, ErrNoSavePoints
	}
	y, p, err := s.CreateInitials(opts)
	if err != nil {
		return nil, err
	}
	t0 := 0.0
	if opts.SaveAt[0] < 0 {
		t0 = opts.SaveAt[0]
	}
	return NewProblem(s.prog.System, [2]float64{t0, opts.SaveAt[len(opts.SaveAt)-1]}, y, p)
}

// Solve builds the problem, integrates it and reshapes the output. All
// model errors surface before the first step; integrator errors are
// returned unchanged.
func (s *Simulator) Solve(ctx context.Context, opts SolveOptions) (tb *table.Table, err error) {
	runID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "loop.Solve", trace.WithAttributes(
		attribute.String("loop.run_id", runID),
		attribute.String("loop.output", string(opts.Output)),
		attribute.Int("loop.save_points", len(opts.SaveAt)),
	))
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		solveTotal.WithLabelValues(result(err)).Inc()
		solveDuration.Observe(time.Since(start).Seconds())
		span.End()
	}()

	policy, err := ParsePolicy(string(opts.Output))
	if err != nil {
		return nil, err
	}
	prob, err := s.CreateProblem(opts)
	if err != nil {
		return nil, err
	}
	l := s.Layout()
	n, _ := l.Replicates(len(prob.Y0), len(prob.P))
	replicateCount.Observe(float64(n))
	span.SetAttributes(attribute.Int("loop.replicates", n))

	iopts := ode.DefaultOptions()
	if opts.Options != nil {
		cp := *opts.Options
		iopts = &cp
	}
	iopts.SaveAt = opts.SaveAt

	logger := s.logger.With(slog.String("run_id", runID))
	logger.Debug("loop solve started", slog.Int("replicates", n), slog.Int("state", len(prob.Y0)))
	sol, err := ode.Solve(ctx, prob, opts.Solver, iopts)
	if err != nil {
		logger.Warn("loop solve failed", slog.String("error", err.Error()))
		return nil, err
	}
	logger.Debug("loop solve finished",
		slog.Int("steps", sol.Stats.Steps),
		slog.Int("rejected", sol.Stats.Rejected),
		slog.Duration("elapsed", time.Since(start)),
	)
	return Reassemble(sol, l, policy)
}

// SolveAlone integrates a single network through the same machinery. The
// output holds every variable of the network.
func SolveAlone(ctx context.Context, n *reaction.Network, values reaction.Values, saveAt []float64, solver *ode.Solver, opts *ode.Options) (*table.Table, error) {
	c, err := reaction.Compile(n)
	if err != nil {
		return nil, err
	}
	sys, err := Standalone(c)
	if err != nil {
		return nil, err
	}
	if len(saveAt) == 0 {
		return nil, ErrNoSavePoints
	}
	y, p, err := c.Initials(values)
	if err != nil {
		return nil, err
	}
	prob, err := NewProblem(sys, [2]float64{0, saveAt[len(saveAt)-1]}, y, p)
	if err != nil {
		return nil, err
	}
	iopts := ode.DefaultOptions()
	if opts != nil {
		cp := *opts
		iopts = &cp
	}
	iopts.SaveAt = saveAt
	sol, err := ode.Solve(ctx, prob, solver, iopts)
	if err != nil {
		return nil, err
	}
	return Reassemble(sol, sys.Layout(), Ignore)
}

// Package ensemble runs batches of stochastic cell simulations over a grid
// of seeds, cell volumes and mitochondria counts and stores each result.
package ensemble

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/njchilds90/apoptosim/gillespie"
	"github.com/njchilds90/apoptosim/models"
	"github.com/njchilds90/apoptosim/reaction"
	"github.com/njchilds90/apoptosim/store"
	"github.com/njchilds90/apoptosim/table"
)

var jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "apoptosim_ensemble_jobs_total",
	Help: "Ensemble jobs by outcome",
}, []string{"outcome"})

// Job is one stochastic run.
type Job struct {
	Seed         uint64
	Volume       float64
	Mitochondria int
}

// Key names the job's result in the store.
func (j Job) Key() string {
	return fmt.Sprintf("ARM%d/%.3f/%d", j.Mitochondria, j.Volume, j.Seed)
}

// Grid returns the cartesian product of the factors, seeds varying fastest.
func Grid(seeds []uint64, volumes []float64, counts []int) []Job {
	jobs := make([]Job, 0, len(seeds)*len(volumes)*len(counts))
	for _, n := range counts {
		for _, v := range volumes {
			for _, s := range seeds {
				jobs = append(jobs, Job{Seed: s, Volume: v, Mitochondria: n})
			}
		}
	}
	return jobs
}

// SeedRange returns the seeds in [from, to).
func SeedRange(from, to uint64) []uint64 {
	var out []uint64
	for s := from; s < to; s++ {
		out = append(out, s)
	}
	return out
}

// GeomSpace returns n values evenly spaced on a log scale from a to b.
func GeomSpace(a, b float64, n int) []float64 {
	if n == 1 {
		return []float64{b}
	}
	out := make([]float64, n)
	la, lb := math.Log(a), math.Log(b)
	for i := range out {
		out[i] = math.Exp(la + (lb-la)*float64(i)/float64(n-1))
	}
	out[0], out[n-1] = a, b
	return out
}

// Config configures a Runner.
type Config struct {
	Workers             int      `json:"workers" yaml:"workers" validate:"gte=0"`
	TMax                float64  `json:"t_max" yaml:"t_max" validate:"gt=0"`
	Steps               int      `json:"steps" yaml:"steps" validate:"gte=1"`
	LigandConcentration float64  `json:"ligand_concentration" yaml:"ligand_concentration" validate:"gte=0"`
	Save                []string `json:"save" yaml:"save"`
}

// DefaultConfig samples the apoptosis markers every second for 15 hours.
func DefaultConfig() Config {
	return Config{
		TMax:                15 * 3600,
		Steps:               15 * 3600,
		LigandConcentration: 1000,
		Save:                []string{"cytoplasm.C3_A", "cytoplasm.C8_A", "cytoplasm.Apop"},
	}
}

// Summary counts the outcomes of a batch.
type Summary struct {
	Ran     int64
	Skipped int64
}

// Runner executes jobs concurrently. Models are built once per
// (mitochondria, volume) pair and shared read-only between jobs.
type Runner struct {
	store  *store.Store
	cfg    Config
	logger *slog.Logger

	flight singleflight.Group
	built  sync.Map // key -> *gillespie.Model
}

// NewRunner returns a runner writing into st.
func NewRunner(st *store.Store, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{store: st, cfg: cfg, logger: logger}
}

// Run executes jobs with at most cfg.Workers in flight; zero means one per
// job. Jobs whose key is already stored are skipped. The first failure
// cancels the remaining jobs.
func (r *Runner) Run(ctx context.Context, jobs []Job) (Summary, error) {
	var ran, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	if r.cfg.Workers > 0 {
		g.SetLimit(r.cfg.Workers)
	}
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			did, err := r.runOne(gctx, job)
			switch {
			case err != nil:
				jobsTotal.WithLabelValues("error").Inc()
				return fmt.Errorf("job %s: %w", job.Key(), err)
			case did:
				jobsTotal.WithLabelValues("ran").Inc()
				ran.Add(1)
			default:
				jobsTotal.WithLabelValues("skipped").Inc()
				skipped.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()
	return Summary{Ran: ran.Load(), Skipped: skipped.Load()}, err
}

func (r *Runner) runOne(ctx context.Context, job Job) (bool, error) {
	key := job.Key()
	if ok, err := r.store.Has(ctx, key); err != nil || ok {
		return false, err
	}
	m, err := r.model(job.Mitochondria, job.Volume)
	if err != nil {
		return false, err
	}
	start := time.Now()
	tb, err := m.Run(ctx, gillespie.RunOptions{
		TMax:  r.cfg.TMax,
		Steps: r.cfg.Steps,
		Seed:  job.Seed,
		Save:  r.cfg.Save,
	})
	if err != nil {
		return false, err
	}
	if err := r.store.Put(ctx, key, tb); err != nil {
		return false, err
	}
	r.logger.Info("ensemble job stored",
		slog.String("key", key),
		slog.Duration("elapsed", time.Since(start)),
	)
	return true, nil
}

// model builds a cell with one mitochondrion of 1/count of the Albeck
// fraction and clones it count times.
func (r *Runner) model(count int, volume float64) (*gillespie.Model, error) {
	if count < 1 {
		return nil, gillespie.ErrNoReplicates
	}
	key := fmt.Sprintf("%d/%g", count, volume)
	if m, ok := r.built.Load(key); ok {
		return m.(*gillespie.Model), nil
	}
	v, err, _ := r.flight.Do(key, func() (interface{}, error) {
		one, err := gillespie.FromNetwork(models.NewARM(1), reaction.Values{
			"L_concentration":              r.cfg.LigandConcentration,
			"volume":                       volume,
			"mitochondria_volume_fraction": models.AlbeckVolumeFraction / float64(count),
		})
		if err != nil {
			return nil, err
		}
		m, err := gillespie.Replicate(one, gillespie.ReplicateOptions{
			Prefix: models.MitochondrionPrefix(0),
			Name:   models.MitochondrionPrefix,
			Count:  count,
		})
		if err != nil {
			return nil, err
		}
		r.built.Store(key, m)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*gillespie.Model), nil
}

// Load returns the stored result of job.
func (r *Runner) Load(ctx context.Context, job Job) (*table.Table, error) {
	return r.store.Get(ctx, job.Key())
}

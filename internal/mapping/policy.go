package mapping

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"vgrid/internal/intervalset"
	"vgrid/internal/logging"
)

// Policy decides what happens to a key present in only one operand.
type Policy int

const (
	// PolicyPassThrough keeps one-sided keys unchanged (union-like).
	PolicyPassThrough Policy = iota
	// PolicyDropUnmatched drops one-sided keys and omits empty results
	// (intersect/join-like).
	PolicyDropUnmatched
	// PolicyLeft keeps left-only keys and drops right-only keys
	// (difference-like).
	PolicyLeft
	// PolicyEach transforms every key of a single operand independently
	// (map/filter).
	PolicyEach
)

func (p Policy) String() string {
	switch p {
	case PolicyPassThrough:
		return "pass_through"
	case PolicyDropUnmatched:
		return "drop_unmatched"
	case PolicyLeft:
		return "left"
	case PolicyEach:
		return "each"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Option tunes how mapping operations run.
type Option func(*options)

type options struct {
	workers  int
	logger   *slog.Logger
	join     []intervalset.JoinOption
	coalesce []intervalset.CoalesceOption
}

// WithWorkers bounds the number of keys processed concurrently. Values below
// one select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLogger routes debug output about per-key processing.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithJoinOptions forwards options to the per-key joins.
func WithJoinOptions(opts ...intervalset.JoinOption) Option {
	return func(o *options) { o.join = append(o.join, opts...) }
}

// WithCoalesceOptions forwards options to the per-key coalesce.
func WithCoalesceOptions(opts ...intervalset.CoalesceOption) Option {
	return func(o *options) { o.coalesce = append(o.coalesce, opts...) }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	o.logger = logging.NewComponentLogger(o.logger, "mapping")
	return o
}

type keyOp func(key Key, left, right intervalset.Set) (intervalset.Set, error)

type task struct {
	key         Key
	left, right intervalset.Set
	apply       bool
}

type slot struct {
	set  intervalset.Set
	keep bool
}

// combine aligns a and b per key, applies op where the policy asks for it and
// fans the results back into a fresh mapping. For PolicyEach b is ignored.
func combine(name string, policy Policy, a, b Mapping, op keyOp, o options) (Mapping, error) {
	tasks := plan(policy, a, b)
	results := make([]slot, len(tasks))

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(o.workers)
	for idx, t := range tasks {
		if !t.apply {
			results[idx] = slot{set: t.left, keep: true}
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := op(t.key, t.left, t.right)
			if err != nil {
				return fmt.Errorf("%s: key %s: %w", name, t.key, err)
			}
			keep := policy != PolicyDropUnmatched || !out.Empty()
			results[idx] = slot{set: out, keep: keep}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Mapping{}, err
	}

	out := make(map[Key]intervalset.Set, len(tasks))
	for idx, r := range results {
		if r.keep {
			out[tasks[idx].key] = r.set
		}
	}
	if dropped := countKeys(a, b, policy) - len(out); dropped > 0 {
		o.logger.Debug("mapping keys dropped",
			logging.String(logging.FieldOperation, name),
			logging.String("policy", policy.String()),
			logging.Int("dropped", dropped),
			logging.Int("kept", len(out)))
	}
	return Mapping{sets: out}, nil
}

// plan lists the work for every key in Compare order according to policy.
func plan(policy Policy, a, b Mapping) []task {
	if policy == PolicyEach {
		keys := a.Keys()
		tasks := make([]task, 0, len(keys))
		for _, k := range keys {
			tasks = append(tasks, task{key: k, left: a.sets[k], apply: true})
		}
		return tasks
	}

	keys := New(a.sets)
	for k, s := range b.sets {
		if !keys.Has(k) {
			keys.sets[k] = s
		}
	}
	tasks := make([]task, 0, keys.Len())
	for _, k := range keys.Keys() {
		left, inA := a.sets[k]
		right, inB := b.sets[k]
		switch {
		case inA && inB:
			tasks = append(tasks, task{key: k, left: left, right: right, apply: true})
		case policy == PolicyPassThrough && inA:
			tasks = append(tasks, task{key: k, left: left})
		case policy == PolicyPassThrough && inB:
			tasks = append(tasks, task{key: k, left: right})
		case policy == PolicyLeft && inA:
			tasks = append(tasks, task{key: k, left: left})
		}
	}
	return tasks
}

func countKeys(a, b Mapping, policy Policy) int {
	if policy == PolicyEach {
		return a.Len()
	}
	n := a.Len()
	for k := range b.sets {
		if !a.Has(k) {
			n++
		}
	}
	return n
}

// Package idgen generates assignment identifiers. The strategy is
// configurable: the branded LH-<year>-<seq> format backed by a persistent
// per-year counter, or a uuid suffix when global uniqueness matters more
// than the visible format.
package idgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lancehub-labs/lancehub-go/internal/platform/env"
)

const (
	StrategySequence = "sequence"
	StrategyUUID     = "uuid"
)

type Generator interface {
	NextID(ctx context.Context) (string, error)
}

// SequenceAllocator hands out monotonic per-year sequence numbers. The sql
// store implements this with an atomic upsert, making generated ids
// collision-free across processes.
type SequenceAllocator interface {
	NextIDSeq(ctx context.Context, year int) (int64, error)
}

type Config struct {
	Strategy string
	Prefix   string
}

func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Strategy: strings.ToLower(strings.TrimSpace(env.String("ASSIGNMENT_ID_STRATEGY", StrategySequence))),
		Prefix:   strings.TrimSpace(env.String("ASSIGNMENT_ID_PREFIX", "LH")),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Strategy {
	case StrategySequence, StrategyUUID:
	default:
		return fmt.Errorf("ASSIGNMENT_ID_STRATEGY must be one of: sequence, uuid (got %q)", c.Strategy)
	}
	if c.Prefix == "" {
		return errors.New("ASSIGNMENT_ID_PREFIX is required")
	}
	return nil
}

func New(cfg Config, seqs SequenceAllocator) (Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Strategy {
	case StrategyUUID:
		return &uuidGenerator{prefix: cfg.Prefix}, nil
	default:
		if seqs == nil {
			return nil, errors.New("sequence allocator is required for the sequence strategy")
		}
		return &sequenceGenerator{prefix: cfg.Prefix, seqs: seqs, now: time.Now}, nil
	}
}

type sequenceGenerator struct {
	prefix string
	seqs   SequenceAllocator
	now    func() time.Time
}

func (g *sequenceGenerator) NextID(ctx context.Context) (string, error) {
	year := g.now().UTC().Year()
	seq, err := g.seqs.NextIDSeq(ctx, year)
	if err != nil {
		return "", fmt.Errorf("allocate sequence: %w", err)
	}
	return fmt.Sprintf("%s-%d-%03d", g.prefix, year, seq), nil
}

type uuidGenerator struct {
	prefix string
}

func (g *uuidGenerator) NextID(ctx context.Context) (string, error) {
	return g.prefix + "-" + uuid.NewString(), nil
}

// Copyright (C) 2024 Vortex Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package scan implements the asynchronous scan driver of spec.md §4.3:
// given an opened file and a Config, it partitions the requested row
// range, pushes per-field predicates into the layout tree, prunes
// chunks against statistics, and streams canonical projected struct
// arrays back to the caller. It is modeled on sneller's
// ion/blockfmt/prefetch.go concurrency-and-coalescing shape, reimplemented
// with golang.org/x/sync/errgroup in place of the teacher's hand-rolled
// WaitGroup/atomic bookkeeping.
package scan

import "github.com/vortex-io/vortex/expr"

// defaultPartitionRows is PARTITION_SIZE from spec.md §4.3: big enough
// to amortize one I/O round trip, small enough that many partitions can
// be in flight at once.
const defaultPartitionRows = 65536

const (
	defaultIOConcurrency       = 8
	defaultSegmentCacheBytes   = 256 << 20 // 256 MiB
	executionConcurrencyFactor = 2
)

// RowRange is a half-open row range [Lo, Hi). The zero value means "the
// whole file" wherever a Config carries one.
type RowRange struct {
	Lo, Hi int
	isSet  bool
}

// NewRowRange builds an explicit, bounded RowRange.
func NewRowRange(lo, hi int) RowRange { return RowRange{Lo: lo, Hi: hi, isSet: true} }

// IsSet reports whether r was built with NewRowRange, as opposed to
// being the zero value (which Config treats as "unbounded").
func (r RowRange) IsSet() bool { return r.isSet }

// Config is the scan configuration of spec.md §6: plain fields set by
// functional options, mirroring how sneller's plan.Rules/plan.Env are
// built, rather than a config-file format (out of scope per §1).
type Config struct {
	// Projection is the ordered sequence of field names the scan
	// returns; nil means every field, in the file's own order.
	Projection []string
	// Filter is the predicate pushed into the layout tree; nil means
	// no filtering.
	Filter expr.Node
	// RowRange bounds the scan to [Lo, Hi); the zero value scans the
	// whole file.
	RowRange RowRange
	// SplitByRowCount overrides PARTITION_SIZE; zero means the default.
	SplitByRowCount int
	// IOConcurrency bounds how many segment reads the I/O driver issues
	// at once.
	IOConcurrency int
	// ExecutionConcurrency bounds how many partitions decode/evaluate
	// concurrently; zero means 2x IOConcurrency (spec.md §4.3).
	ExecutionConcurrency int
	// SegmentCacheBytes is the LRU segment cache's byte budget; zero
	// disables caching.
	SegmentCacheBytes int64
}

// Option mutates a Config under construction.
type Option func(*Config)

// WithProjection sets the ordered output field names.
func WithProjection(names ...string) Option {
	return func(c *Config) { c.Projection = append([]string(nil), names...) }
}

// WithFilter sets the pushdown predicate.
func WithFilter(e expr.Node) Option {
	return func(c *Config) { c.Filter = e }
}

// WithRowRange bounds the scan to [lo, hi).
func WithRowRange(lo, hi int) Option {
	return func(c *Config) { c.RowRange = NewRowRange(lo, hi) }
}

// WithSplitByRowCount overrides the partition size hint.
func WithSplitByRowCount(n int) Option {
	return func(c *Config) { c.SplitByRowCount = n }
}

// WithIOConcurrency bounds concurrent segment reads.
func WithIOConcurrency(n int) Option {
	return func(c *Config) { c.IOConcurrency = n }
}

// WithExecutionConcurrency bounds concurrent partition execution.
func WithExecutionConcurrency(n int) Option {
	return func(c *Config) { c.ExecutionConcurrency = n }
}

// WithSegmentCacheBytes sets the segment cache's byte budget.
func WithSegmentCacheBytes(n int64) Option {
	return func(c *Config) { c.SegmentCacheBytes = n }
}

// NewConfig builds a Config from opts, filling in spec.md §4.3's
// defaults for anything left unset.
func NewConfig(opts ...Option) Config {
	cfg := Config{
		SplitByRowCount:   defaultPartitionRows,
		IOConcurrency:     defaultIOConcurrency,
		SegmentCacheBytes: defaultSegmentCacheBytes,
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.ExecutionConcurrency <= 0 {
		cfg.ExecutionConcurrency = executionConcurrencyFactor * cfg.IOConcurrency
	}
	return cfg
}

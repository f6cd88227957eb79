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

package scan

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vortex-io/vortex/array"
	"github.com/vortex-io/vortex/array/encoding"
	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/expr"
	"github.com/vortex-io/vortex/layout"
	"github.com/vortex-io/vortex/scalar"
	"github.com/vortex-io/vortex/vxerr"
)

func trueScalar() scalar.Scalar { return scalar.Bool(true, false) }

// Driver runs one scan of a FileReader's row range against a Config:
// it partitions the range, prunes and reads each partition concurrently
// (bounded by Config.ExecutionConcurrency, itself issuing segment reads
// bounded by Config.IOConcurrency through an ioGate and a
// CachingSegmentSource), and reassembles the results in partition
// order. It is the concurrency shape of the teacher's
// ion/blockfmt/prefetch.go, rebuilt on golang.org/x/sync/errgroup
// instead of the teacher's hand-rolled WaitGroup/atomic bookkeeping.
type Driver struct {
	reader *FileReader
	cfg    Config
	src    layout.SegmentSource
	id     uuid.UUID
}

// NewDriver builds a Driver over reader, wiring raw through the I/O
// gate, segment decompression, and LRU cache the Config describes, in
// that order: the gate bounds concurrent reads of compressed bytes,
// decompression happens once per segment, and the cache holds
// decompressed bytes so a cache hit never re-pays a decompression cost.
func NewDriver(reader *FileReader, raw layout.SegmentSource, cfg Config) *Driver {
	gated := newIOGate(raw, cfg.IOConcurrency)
	decompressed := newDecompressingSource(gated, reader.Segments())
	cached := decompressed
	if cfg.SegmentCacheBytes > 0 {
		cached = NewCachingSegmentSource(decompressed, cfg.SegmentCacheBytes)
	}
	return &Driver{reader: reader, cfg: cfg, src: cached, id: uuid.New()}
}

// ID returns the scan's correlation id, attached to every error this
// Driver wraps so a log line can tie failures back to one scan.
func (d *Driver) ID() uuid.UUID { return d.id }

// partitionRange is one [lo, hi) slab of rows a Driver scans as a unit.
type partitionRange struct {
	lo, hi int
}

func splitPartitions(lo, hi, size int) []partitionRange {
	if size <= 0 {
		size = defaultPartitionRows
	}
	var out []partitionRange
	for p := lo; p < hi; p += size {
		end := p + size
		if end > hi {
			end = hi
		}
		out = append(out, partitionRange{lo: p, hi: end})
	}
	return out
}

// projectionNode builds the expr.Node a Scan evaluates to produce its
// projected output: Identity for "every field" (nil/empty Projection),
// otherwise an ordered Pack of GetItem(Identity, name), one per
// requested field in the caller's own order -- spec.md §8 scenario 3
// requires field reordering to come through unchanged.
func projectionNode(names []string) expr.Node {
	if len(names) == 0 {
		return expr.Identity{}
	}
	fields := make([]expr.PackField, len(names))
	for i, name := range names {
		fields[i] = expr.PackField{Name: name, Expr: expr.GetItem{Child: expr.Identity{}, Name: name}}
	}
	return expr.Pack{Fields: fields}
}

// projectedDType mirrors layout's unexported equivalent: the DType a
// projectionNode produces when evaluated against a row of dt.
func projectedDType(dt dtype.Type, proj expr.Node) dtype.Type {
	pack, ok := proj.(expr.Pack)
	if !ok {
		return dt
	}
	fields := make([]dtype.Field, len(pack.Fields))
	for i, pf := range pack.Fields {
		f, _ := dt.FieldByName(pf.Name)
		fields[i] = f
	}
	return dtype.NewStruct(fields, dt.Nullable())
}

// drainStream drains s into a single canonical array of type dt,
// mirroring layout's unexported drainToOne: zero arrays yield an empty
// canonical array of dt, one array passes through unchanged, and more
// than one concatenates via a Chunked encoding.
func drainStream(ctx context.Context, s layout.ArrayStream, dt dtype.Type) (array.Array, error) {
	var parts []array.Array
	for {
		a, err := s.Next(ctx)
		if err != nil {
			if layout.EOF(err) {
				break
			}
			return array.Array{}, err
		}
		parts = append(parts, a)
	}
	switch len(parts) {
	case 0:
		return encoding.EmptyCanonical(dt)
	case 1:
		return parts[0], nil
	default:
		return encoding.NewChunkedArray(parts)
	}
}

// partitionResult is one partition's outcome, threaded through a
// buffered channel so partitions can complete out of order while still
// being handed to the caller in order.
type partitionResult struct {
	arr array.Array
	err error
}

// Iterator yields a Driver's partitions strictly in ascending row
// order, even though the partitions producing them may finish in any
// order -- spec.md §4.3's reassembly-queue guarantee. Each array Next
// returns spans exactly one partition's surviving, projected rows.
type Iterator struct {
	cancel  context.CancelFunc
	results []chan partitionResult
	next    int
	wg      *sync.WaitGroup
	doneErr error
}

// Run starts scanning in the background and returns an Iterator over
// the results. Cancelling ctx (or the context a caller derives and
// later cancels via Iterator.Close) stops issuing new reads; partitions
// already delivered to the caller remain valid, per spec.md §5.
func (d *Driver) Run(ctx context.Context) *Iterator {
	ctx, cancel := context.WithCancel(ctx)

	lo, hi := 0, d.reader.RowCount()
	if d.cfg.RowRange.IsSet() {
		lo, hi = d.cfg.RowRange.Lo, d.cfg.RowRange.Hi
	}
	parts := splitPartitions(lo, hi, d.cfg.SplitByRowCount)

	proj := projectionNode(d.cfg.Projection)
	outDType := projectedDType(d.reader.DType(), proj)

	results := make([]chan partitionResult, len(parts))
	for i := range results {
		results[i] = make(chan partitionResult, 1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInt(d.cfg.ExecutionConcurrency, 1))

	for i, p := range parts {
		i, p := i, p
		g.Go(func() error {
			arr, err := d.runPartition(gctx, p, proj, outDType)
			if err != nil {
				err = vxerr.Wrap(vxerr.IoError, err, "scan %s: partition [%d,%d)", d.id, p.lo, p.hi)
			}
			results[i] <- partitionResult{arr: arr, err: err}
			return err
		})
	}

	var wg sync.WaitGroup
	wg.Add(1)
	it := &Iterator{cancel: cancel, results: results, wg: &wg}
	go func() {
		defer wg.Done()
		it.doneErr = g.Wait()
	}()
	return it
}

func (d *Driver) runPartition(ctx context.Context, p partitionRange, proj expr.Node, outDType dtype.Type) (array.Array, error) {
	root := d.reader.Root()
	mask, err := root.FilterMask(ctx, p.lo, p.hi, d.filterOrTrue(), d.src)
	if err != nil {
		return array.Array{}, err
	}
	stream, err := root.Scan(ctx, p.lo, p.hi, proj, mask, d.src)
	if err != nil {
		return array.Array{}, err
	}
	return drainStream(ctx, stream, outDType)
}

func (d *Driver) filterOrTrue() expr.Node {
	if d.cfg.Filter != nil {
		return d.cfg.Filter
	}
	return expr.Literal{Value: trueScalar()}
}

// Next returns the next partition's canonical projected array, in
// ascending row order, or (Array{}, false, nil) once the scan is
// exhausted. A non-nil error means that partition failed and the scan
// has been aborted; no further partitions will be delivered once an
// error is returned.
func (it *Iterator) Next(ctx context.Context) (array.Array, bool, error) {
	if it.next >= len(it.results) {
		return array.Array{}, false, nil
	}
	select {
	case r := <-it.results[it.next]:
		it.next++
		if r.err != nil {
			it.next = len(it.results)
			return array.Array{}, false, r.err
		}
		return r.arr, true, nil
	case <-ctx.Done():
		return array.Array{}, false, ctx.Err()
	}
}

// Close cancels any still-running partitions and waits for them to
// unwind, releasing their segment cache references.
func (it *Iterator) Close() error {
	it.cancel()
	it.wg.Wait()
	return it.doneErr
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

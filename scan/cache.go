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
	"container/list"
	"context"
	"sync"

	"github.com/vortex-io/vortex/layout"
)

// CachingSegmentSource wraps an inner SegmentSource with an LRU cache
// bounded by a byte budget (spec.md §4.3's "cache's eviction policy is
// LRU with a configurable byte budget"), the in-memory counterpart of
// the teacher's ion/blockfmt/prefetch.go inflight-byte-budget bookkeeping.
// Read is safe for concurrent use: lookups, insertions and evictions
// all take the same short-lived exclusive mutex (a hit moves its entry
// in the LRU list), so cache lookups do not run in parallel with each
// other; reads of the inner source happen outside the mutex.
type CachingSegmentSource struct {
	inner  layout.SegmentSource
	budget int64

	mu    sync.Mutex
	lru   *list.List // of *cacheEntry, front = most recently used
	index map[layout.SegmentID]*list.Element
	used  int64
}

type cacheEntry struct {
	id   layout.SegmentID
	data []byte
}

// NewCachingSegmentSource wraps inner with an LRU cache capped at
// budgetBytes. A non-positive budget disables caching: every Read
// passes straight through to inner.
func NewCachingSegmentSource(inner layout.SegmentSource, budgetBytes int64) *CachingSegmentSource {
	return &CachingSegmentSource{
		inner:  inner,
		budget: budgetBytes,
		lru:    list.New(),
		index:  make(map[layout.SegmentID]*list.Element),
	}
}

func (c *CachingSegmentSource) Read(ctx context.Context, ids []layout.SegmentID) (map[layout.SegmentID][]byte, error) {
	out := make(map[layout.SegmentID][]byte, len(ids))
	var miss []layout.SegmentID

	if c.budget > 0 {
		c.mu.Lock()
		for _, id := range ids {
			if el, ok := c.index[id]; ok {
				c.lru.MoveToFront(el)
				out[id] = el.Value.(*cacheEntry).data
				continue
			}
			miss = append(miss, id)
		}
		c.mu.Unlock()
	} else {
		miss = ids
	}

	if len(miss) == 0 {
		return out, nil
	}
	fetched, err := c.inner.Read(ctx, miss)
	if err != nil {
		return nil, err
	}
	if c.budget > 0 {
		c.mu.Lock()
		for id, data := range fetched {
			c.insertLocked(id, data)
		}
		c.mu.Unlock()
	}
	for id, data := range fetched {
		out[id] = data
	}
	return out, nil
}

// insertLocked adds (id, data) to the cache, evicting least-recently-used
// entries until the byte budget is respected. Callers must hold c.mu.
func (c *CachingSegmentSource) insertLocked(id layout.SegmentID, data []byte) {
	if el, ok := c.index[id]; ok {
		c.lru.MoveToFront(el)
		return
	}
	if int64(len(data)) > c.budget {
		return
	}
	for c.used+int64(len(data)) > c.budget && c.lru.Len() > 0 {
		back := c.lru.Back()
		entry := back.Value.(*cacheEntry)
		c.lru.Remove(back)
		delete(c.index, entry.id)
		c.used -= int64(len(entry.data))
	}
	c.index[id] = c.lru.PushFront(&cacheEntry{id: id, data: data})
	c.used += int64(len(data))
}

// Len reports the number of segments currently cached, for tests.
func (c *CachingSegmentSource) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

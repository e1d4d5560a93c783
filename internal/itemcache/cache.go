// Package itemcache holds batches of full provider-side completion objects
// so that only a compact handle needs to cross the protocol boundary.
//
// Each batch is stored in a slot identified by a monotonically increasing
// id. The cache keeps at most a fixed number of slots; storing a batch
// beyond that capacity evicts the oldest slot. Eviction is strictly first
// in, first out by insertion order. Reading a slot does not refresh it.
//
// A lookup against an evicted slot, an unknown slot, or an out of range
// index reports absent; it is never an error.
//
// # Thread Safety
//
// Cache is safe for concurrent use. Insertion and eviction happen under the
// same lock so concurrent readers never observe a half-applied store.
package itemcache

import (
	"container/list"
	"sync"
)

// DefaultCapacity is the number of slots kept when no capacity is given.
const DefaultCapacity = 5

// SlotID identifies one stored batch. Valid ids start at 1.
type SlotID int64

// Cache is a capacity-bounded FIFO store of item batches.
type Cache[T any] struct {
	mu       sync.Mutex
	capacity int
	nextID   SlotID
	slots    map[SlotID]*list.Element
	order    *list.List // front = oldest
	disposed bool
}

type slot[T any] struct {
	id    SlotID
	items []T
}

// New creates a cache holding at most capacity slots.
// A capacity below 1 selects DefaultCapacity.
func New[T any](capacity int) *Cache[T] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Cache[T]{
		capacity: capacity,
		slots:    make(map[SlotID]*list.Element),
		order:    list.New(),
	}
}

// Store inserts a batch under the next slot id and returns that id.
// The oldest slot is evicted when the cache is over capacity.
// Store on a disposed cache keeps nothing and returns 0.
func (c *Cache[T]) Store(items []T) SlotID {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return 0
	}

	c.nextID++
	id := c.nextID
	elem := c.order.PushBack(&slot[T]{id: id, items: items})
	c.slots[id] = elem

	for c.order.Len() > c.capacity {
		c.evictOldest()
	}
	return id
}

// Get returns the item at index within the slot, or false if the slot is
// not live or the index is out of bounds.
func (c *Cache[T]) Get(id SlotID, index int) (T, bool) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.slots[id]
	if !ok {
		return zero, false
	}
	s := elem.Value.(*slot[T]) //nolint:errcheck // list only contains *slot[T]
	if index < 0 || index >= len(s.items) {
		return zero, false
	}
	return s.items[index], true
}

// Has reports whether the slot is still live.
func (c *Cache[T]) Has(id SlotID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.slots[id]
	return ok
}

// Len returns the number of live slots.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the maximum number of live slots.
func (c *Cache[T]) Capacity() int {
	return c.capacity
}

// LastID returns the most recently assigned slot id, or 0 if none.
func (c *Cache[T]) LastID() SlotID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextID
}

// Dispose releases every slot. The cache must not be used afterwards;
// later calls to Store keep nothing and Get always reports absent.
func (c *Cache[T]) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.slots = make(map[SlotID]*list.Element)
	c.order.Init()
	c.disposed = true
}

// evictOldest removes the first inserted live slot.
// Must be called with lock held.
func (c *Cache[T]) evictOldest() {
	elem := c.order.Front()
	if elem == nil {
		return
	}
	c.order.Remove(elem)
	s := elem.Value.(*slot[T]) //nolint:errcheck // list only contains *slot[T]
	delete(c.slots, s.id)
}

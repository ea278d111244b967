/*
Copyright 2011 Google Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package lru implements a bounded, order-preserving cache keyed by
// string, used by the chain manager to hold recently-touched chain
// objects in memory (spec: chain cache, default capacity 20).
package lru

import (
	"container/list"
	"sync"
)

// Cache is an LRU cache of a fixed value type V, safe for concurrent
// access even though the vault engine itself only ever touches it from
// its single cooperative executor.
type Cache[V any] struct {
	maxEntries int

	lk    sync.Mutex
	ll    *list.List
	cache map[string]*list.Element
}

type entry[V any] struct {
	key   string
	value V
}

// New returns a new cache with the provided maximum number of entries.
func New[V any](maxEntries int) *Cache[V] {
	return &Cache[V]{
		maxEntries: maxEntries,
		ll:         list.New(),
		cache:      make(map[string]*list.Element),
	}
}

// Add inserts or replaces key's value, promoting it to most-recently-used,
// evicting the oldest entry if the cache is over capacity. A save that
// rewrites a chain calls Add again with the new chain object, which is
// how the cache is invalidated: there is no separate Remove-then-Add.
func (c *Cache[V]) Add(key string, value V) {
	c.lk.Lock()
	defer c.lk.Unlock()

	if ee, ok := c.cache[key]; ok {
		c.ll.MoveToFront(ee)
		ee.Value.(*entry[V]).value = value
		return
	}

	ele := c.ll.PushFront(&entry[V]{key, value})
	c.cache[key] = ele

	if c.ll.Len() > c.maxEntries {
		c.removeOldest()
	}
}

// Get fetches key's value, promoting it to most-recently-used. ok is
// false if the key isn't present.
func (c *Cache[V]) Get(key string) (value V, ok bool) {
	c.lk.Lock()
	defer c.lk.Unlock()
	if ele, hit := c.cache[key]; hit {
		c.ll.MoveToFront(ele)
		return ele.Value.(*entry[V]).value, true
	}
	return value, false
}

// Remove evicts key, if present.
func (c *Cache[V]) Remove(key string) {
	c.lk.Lock()
	defer c.lk.Unlock()
	if ele, hit := c.cache[key]; hit {
		c.ll.Remove(ele)
		delete(c.cache, key)
	}
}

// RemoveOldest evicts the least-recently-used entry, if any.
func (c *Cache[V]) RemoveOldest() {
	c.lk.Lock()
	defer c.lk.Unlock()
	c.removeOldest()
}

// note: must hold c.lk
func (c *Cache[V]) removeOldest() {
	ele := c.ll.Back()
	if ele == nil {
		return
	}
	c.ll.Remove(ele)
	delete(c.cache, ele.Value.(*entry[V]).key)
}

// Len returns the number of items currently cached.
func (c *Cache[V]) Len() int {
	c.lk.Lock()
	defer c.lk.Unlock()
	return c.ll.Len()
}

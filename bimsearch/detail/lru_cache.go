package detail

import (
	"container/list"

	"github.com/krew-solutions/bimsearch-go/bimsearch/element"
)

type lruEntry struct {
	key   element.Identity
	value element.Record
}

type lruCache struct {
	items map[element.Identity]*list.Element
	order *list.List
	size  int
}

func newLruCache(size int) *lruCache {
	return &lruCache{
		items: make(map[element.Identity]*list.Element, size),
		order: list.New(),
		size:  size,
	}
}

func (c *lruCache) add(key element.Identity, value element.Record) {
	if elem, ok := c.items[key]; ok {
		elem.Value = lruEntry{key: key, value: value}
		c.order.MoveToBack(elem)
		return
	}
	elem := c.order.PushBack(lruEntry{key: key, value: value})
	c.items[key] = elem
	if len(c.items) > c.size {
		front := c.order.Front()
		c.order.Remove(front)
		delete(c.items, front.Value.(lruEntry).key)
	}
}

func (c *lruCache) get(key element.Identity) (element.Record, bool) {
	elem, ok := c.items[key]
	if !ok {
		return element.Record{}, false
	}
	c.order.MoveToBack(elem)
	return elem.Value.(lruEntry).value, true
}

func (c *lruCache) remove(key element.Identity) {
	elem, ok := c.items[key]
	if !ok {
		return
	}
	delete(c.items, key)
	c.order.Remove(elem)
}

func (c *lruCache) clear() {
	c.items = make(map[element.Identity]*list.Element, c.size)
	c.order.Init()
}

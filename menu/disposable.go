package menu

import "sync"

type Disposable interface {
	Dispose()
}

type DisposeFunc func()

func (f DisposeFunc) Dispose() {
	f()
}

// DisposableCollection disposes its items in reverse order of addition.
type DisposableCollection struct {
	mtx   sync.Mutex
	items []Disposable
}

func (c *DisposableCollection) Push(d Disposable) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.items = append(c.items, d)
}

func (c *DisposableCollection) Dispose() {
	c.mtx.Lock()
	items := c.items
	c.items = nil
	c.mtx.Unlock()

	for i := len(items) - 1; i >= 0; i-- {
		items[i].Dispose()
	}
}

func (c *DisposableCollection) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return len(c.items)
}

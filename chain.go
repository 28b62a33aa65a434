// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

const (
	chainStep1 = iota // waiting for the outer node to yield an inner promise
	chainStep2        // waiting for the inner node
)

// chainNode flattens a node whose value is itself a promise. In STEP1
// it owns the outer node; once that settles it swaps in the extracted
// inner node and enters STEP2, forwarding registration and get.
//
// When the chain has been told its owner slot, entering STEP2 instead
// overwrites the slot with the inner node and destroys the chain in
// the same step. Recursive binds therefore hold a constant number of
// nodes regardless of iteration count.
type chainNode struct {
	ev         event
	state      int
	inner      node
	consumer   *event
	self       *node
	registered bool
}

func newChain(outer node) *chainNode {
	c := &chainNode{inner: outer}
	outer.setSelfPointer(&c.inner)
	return c
}

// activate registers the chain on its outer node. Deferred until a
// consumer reveals the loop; the graph is lazy up to that point.
func (c *chainNode) activate(l *Loop) {
	if c.registered {
		return
	}
	c.registered = true
	c.ev.init(l, c)
	c.inner.onReady(&c.ev)
}

func (c *chainNode) onReady(ev *event) {
	if c.state == chainStep2 {
		c.inner.onReady(ev)
		return
	}
	c.consumer = ev
	if ev != nil {
		c.activate(ev.loop)
	}
}

func (c *chainNode) setSelfPointer(self *node) {
	if c.state == chainStep2 {
		// Too late to collapse this node; let the inner one learn
		// its new owner instead.
		c.inner.setSelfPointer(self)
		return
	}
	c.self = self
}

func (c *chainNode) get(out *result) {
	if c.state != chainStep2 {
		panic("prom: internal error: get on a chain that has not settled its outer node")
	}
	c.inner.get(out)
}

func (c *chainNode) innerForTrace() node {
	return c.inner
}

// fire runs when the outer node settles: extract the inner node,
// switch to STEP2, and either collapse into the owner slot or keep
// forwarding.
func (c *chainNode) fire() droppable {
	var r result
	c.inner.get(&r)
	c.inner.drop()

	var inner node
	if r.err != nil {
		inner = newImmediateBroken(r.err)
	} else {
		pc, ok := r.value.(nodeCarrier)
		if !ok {
			panic("prom: internal error: chained value is not a promise")
		}
		inner = pc.intoNode()
	}

	c.state = chainStep2
	if c.self != nil {
		// Shorten the chain: the owner slot takes the inner node
		// directly and this chain is dropped by the loop after fire.
		c.inner = nil
		*c.self = inner
		inner.setSelfPointer(c.self)
		if c.consumer != nil {
			inner.onReady(c.consumer)
			c.consumer = nil
		}
		return c
	}

	c.inner = inner
	inner.setSelfPointer(&c.inner)
	if c.consumer != nil {
		inner.onReady(c.consumer)
	}
	return nil
}

func (c *chainNode) drop() {
	c.ev.disarm()
	c.consumer = nil
	c.self = nil
	if c.inner != nil {
		c.inner.drop()
		c.inner = nil
	}
}

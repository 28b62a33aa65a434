// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

// transformNode applies a success continuation and/or an error
// continuation to its dependency's result. It is passive: readiness
// registration passes straight through to the dependency, and the
// continuations run inside get when the consumer's event fires.
type transformNode struct {
	baseNode
	dep node
	f   func(any) (any, error)   // nil: identity
	e   func(error) (any, error) // nil: propagate
}

func (n *transformNode) onReady(ev *event) {
	n.dep.onReady(ev)
}

func (n *transformNode) get(out *result) {
	var dr result
	n.dep.get(&dr)
	switch {
	case dr.err != nil:
		if n.e == nil {
			out.addError(dr.err)
		} else {
			apply(out, func() (any, error) { return n.e(dr.err) })
		}
	case n.f == nil:
		out.setValue(dr.value)
	default:
		apply(out, func() (any, error) { return n.f(dr.value) })
	}
	// The dependency is released before the continuations so that
	// objects the continuations own outlive anything the dependency
	// still references.
	n.dropDependency()
	n.f = nil
	n.e = nil
}

// apply runs a continuation, converting a panic into a Failed error in
// the output carrier. The loop never unwinds through user code.
func apply(out *result, call func() (any, error)) {
	defer func() {
		if v := recover(); v != nil {
			out.addError(recoverToError(v))
		}
	}()
	v, err := call()
	if err != nil {
		out.addError(err)
		return
	}
	out.setValue(v)
}

func (n *transformNode) dropDependency() {
	if n.dep != nil {
		n.dep.drop()
		n.dep = nil
	}
}

func (n *transformNode) innerForTrace() node {
	return n.dep
}

func (n *transformNode) drop() {
	n.dropDependency()
	n.f = nil
	n.e = nil
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package prom provides a single-threaded cooperative event loop and the
// composable promise graph it evaluates.
//
// Deferred computations are vertices of a directed acyclic graph whose
// leaves are immediate values or externally fulfilled adapters. Nothing
// runs until something is waiting: readiness propagates by arming events
// on the loop, one event per consumer per node.
//
// # Architecture
//
//   - Scheduling: three intrusive event queues per [Loop]. Continuations
//     ([Then], [Bind]) arm depth-first so straight-line promise code runs
//     without interleaving; explicit yields ([EvalLater]) arm
//     breadth-first; [EvalLast] runs when nothing else remains.
//   - Ownership: a [Promise] is a single-owner handle. Cancellation is
//     dropping the handle ([Promise.Cancel]); combinators consume their
//     operands and propagate cancellation to dependencies.
//   - Blocking: [Promise.Wait] and [Promise.Poll] spin the loop from a
//     [WaitScope], the per-thread capability for blocking calls.
//   - Fibers: [StartFiber] runs a function on its own stack; inside it,
//     Wait suspends the fiber on node readiness instead of spinning.
//   - Coroutines: [Async] evaluates a [code.hybscloud.com/kont] Expr-world
//     computation against the loop, mapping the [Await] effect onto node
//     readiness via [code.hybscloud.com/kont.StepExpr] suspensions.
//   - Cross-thread: each loop exposes an [Executor]; other threads submit
//     work with [ExecuteSync]/[ExecuteAsync]. State transitions are
//     serialized by the target executor's mutex; DONE is published with an
//     atomic release store ([code.hybscloud.com/atomix]).
//   - External producers: [Inlet] feeds values from one producer
//     goroutine through a bounded lock-free SPSC queue
//     ([code.hybscloud.com/lfq]), returning
//     [code.hybscloud.com/iox.ErrWouldBlock] on backpressure.
//
// # Example
//
//	loop, ws := prom.New()
//	p := prom.Then(prom.Resolved(1), func(x int) (int, error) { return x + 2, nil })
//	p = prom.Then(p, func(x int) (int, error) { return x * 3, nil })
//	v, _ := p.Wait(ws)
//	// v == 9
//	_ = loop
package prom

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

import (
	"fmt"
	"strings"
)

// traceLimit bounds a trace walk; a longer chain indicates a collapse
// bug rather than a deeper graph.
const traceLimit = 64

// Trace dumps the promise's node chain for debugging, outermost first,
// one node per line. The promise is not consumed.
func (p Promise[T]) Trace() string {
	if p.n == nil || *p.n == nil {
		return "(consumed promise)"
	}
	return traceNode(*p.n)
}

func traceNode(nd node) string {
	var b strings.Builder
	depth := 0
	for nd != nil && depth < traceLimit {
		fmt.Fprintf(&b, "%T\n", nd)
		nd = nd.innerForTrace()
		depth++
	}
	if depth == traceLimit {
		b.WriteString("(trace truncated)\n")
	}
	return b.String()
}

// traceDepth counts the nodes reachable through inner-for-trace.
func traceDepth(nd node) int {
	depth := 0
	for nd != nil && depth < traceLimit {
		nd = nd.innerForTrace()
		depth++
	}
	return depth
}

// SPDX-License-Identifier: GPL-3.0-or-later

package classify

import (
	"github.com/rbmk-project/dpiprobe/probe"
	"github.com/rbmk-project/dpiprobe/wire"
)

// viewKey identifies a probe within a family.
type viewKey struct {
	transport wire.Transport
	port      uint16
	kind      probe.Kind
}

// View contains the results of a single protocol family, indexed
// by transport, port, and kind.
type View struct {
	// Family is the family of the results.
	Family probe.Family

	results map[viewKey]probe.Result
}

// NewView returns the [View] of the given family. When several results
// share the same transport, port, and kind, the first one wins.
func NewView(family probe.Family, results []probe.Result) View {
	view := View{Family: family, results: make(map[viewKey]probe.Result)}
	for _, result := range results {
		if result.Family != family {
			continue
		}
		key := viewKey{transport: result.Transport, port: result.Port, kind: result.Kind}
		if _, found := view.results[key]; !found {
			view.results[key] = result
		}
	}
	return view
}

// Len returns the number of indexed results.
func (v View) Len() int {
	return len(v.results)
}

// Lookup returns the result for the given transport, port, and kind.
func (v View) Lookup(transport wire.Transport, port uint16, kind probe.Kind) (probe.Result, bool) {
	result, found := v.results[viewKey{transport: transport, port: port, kind: kind}]
	return result, found
}

// OK returns whether the given probe exists and succeeded.
func (v View) OK(transport wire.Transport, port uint16, kind probe.Kind) bool {
	result, found := v.Lookup(transport, port, kind)
	return found && result.Status == probe.StatusSuccess
}

// Failed returns whether the given probe exists and did not succeed.
//
// A missing probe is neither OK nor Failed.
func (v View) Failed(transport wire.Transport, port uint16, kind probe.Kind) bool {
	result, found := v.Lookup(transport, port, kind)
	return found && result.Status != probe.StatusSuccess
}

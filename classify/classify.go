// SPDX-License-Identifier: GPL-3.0-or-later

package classify

import (
	"fmt"
	"io"
	"strings"

	"github.com/rbmk-project/dpiprobe/probe"
)

// Families contains the families we diagnose, in output order.
var Families = []probe.Family{probe.FamilyDNS, probe.FamilySSH, probe.FamilyTLS}

// Diagnosis is the conclusion about a protocol family.
type Diagnosis struct {
	// Family is the diagnosed family.
	Family probe.Family

	// Rule is the name of the matching rule, empty if none matched.
	Rule string

	// Conclusion is the human readable conclusion.
	Conclusion string
}

// String implements [fmt.Stringer].
func (d Diagnosis) String() string {
	return fmt.Sprintf("%s: %s", d.Family, d.Conclusion)
}

// Classify returns at most one [Diagnosis] per family in [Families]
// order, skipping families without results. For each family, the first
// matching rule wins; otherwise the conclusion is [ConclusionInconclusive].
func Classify(results []probe.Result, rules []Rule) []Diagnosis {
	var out []Diagnosis
	for _, family := range Families {
		view := NewView(family, results)
		if view.Len() <= 0 {
			continue
		}
		out = append(out, diagnose(view, rules))
	}
	return out
}

func diagnose(view View, rules []Rule) Diagnosis {
	for _, rule := range rules {
		if rule.Family == view.Family && rule.Match(view) {
			return Diagnosis{Family: view.Family, Rule: rule.Name, Conclusion: rule.Conclusion}
		}
	}
	return Diagnosis{Family: view.Family, Conclusion: ConclusionInconclusive}
}

// Write writes the analysis section for the given diagnoses to w.
func Write(w io.Writer, diagnoses []Diagnosis) error {
	var sb strings.Builder
	rule := strings.Repeat("=", 70)
	fmt.Fprintf(&sb, "%s\nANALYSIS\n%s\n", rule, rule)
	for _, diagnosis := range diagnoses {
		fmt.Fprintf(&sb, "%s\n", diagnosis)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

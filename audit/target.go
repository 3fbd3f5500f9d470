// Package audit orchestrates the per-domain delegation and address checks
// against real authoritative servers and reports the outcome as structured
// results.
package audit

import "strings"

// Target is one domain to audit, along with the delegation the operator
// expects to find. Either expectation may be nil: a nil ExpectedNS means
// "don't check the nameserver set", and likewise for ExpectedIPs.
type Target struct {
	Domain      string   `json:"domain_name"`
	ExpectedNS  []string `json:"ns,omitempty"`
	ExpectedIPs []string `json:"ip,omitempty"`
}

// Normalize appends a trailing dot to every expected nameserver name that
// lacks one, so later case-insensitive comparisons against wire-format names
// (which are always trailing-dot) aren't tripped up by operator input typed
// without one.
func (t *Target) Normalize() {
	for i, ns := range t.ExpectedNS {
		if !strings.HasSuffix(ns, ".") {
			t.ExpectedNS[i] = ns + "."
		}
	}
}

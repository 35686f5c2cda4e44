// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package safety screens text entering and leaving the knowledge base.
//
// The gate is synchronous and local. It never makes a network call,
// so it sits outside the resilience layer. Blocked text is a normal
// filtering outcome, not an error: ingestion skips blocked chunks and
// retrieval drops blocked hits, both reflected in counts and flags
// rather than failures.
package safety

import (
	"fmt"
	"strings"
)

// Decision is the outcome of screening one piece of text.
type Decision int

const (
	// DecisionAllowed passes the text through unchanged.
	DecisionAllowed Decision = iota
	// DecisionFlagged passes the text through tagged for review.
	DecisionFlagged
	// DecisionBlocked keeps the text out of the index or result.
	DecisionBlocked
)

func (d Decision) String() string {
	switch d {
	case DecisionAllowed:
		return "allowed"
	case DecisionFlagged:
		return "flagged"
	case DecisionBlocked:
		return "blocked"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Verdict pairs a decision with the reason behind it. Allowed
// verdicts carry no reason.
type Verdict struct {
	Decision Decision
	Reason   string
}

// Rule is a custom screening predicate. Returning an allowed verdict
// defers to the remaining rules and term lists.
type Rule func(text string) Verdict

// Gate screens text against blocked and flagged term lists plus any
// custom rules. Matching is case-insensitive substring containment.
// The zero-value gate allows everything.
type Gate struct {
	blocked []string
	flagged []string
	rules   []Rule
}

// Option configures a Gate.
type Option func(*Gate)

// WithBlockedTerms adds terms whose presence blocks the text.
func WithBlockedTerms(terms ...string) Option {
	return func(g *Gate) {
		for _, term := range terms {
			if term != "" {
				g.blocked = append(g.blocked, strings.ToLower(term))
			}
		}
	}
}

// WithFlaggedTerms adds terms whose presence flags the text.
func WithFlaggedTerms(terms ...string) Option {
	return func(g *Gate) {
		for _, term := range terms {
			if term != "" {
				g.flagged = append(g.flagged, strings.ToLower(term))
			}
		}
	}
}

// WithRule adds a custom screening rule. Rules run before the term
// lists, in the order they were added.
func WithRule(rule Rule) Option {
	return func(g *Gate) {
		if rule != nil {
			g.rules = append(g.rules, rule)
		}
	}
}

// NewGate creates a gate from the given options.
func NewGate(opts ...Option) *Gate {
	gate := &Gate{}
	for _, opt := range opts {
		opt(gate)
	}
	return gate
}

// Screen evaluates text and returns a verdict. A blocked outcome from
// any rule or term wins over flagged; flagged wins over allowed.
func (g *Gate) Screen(text string) Verdict {
	if g == nil {
		return Verdict{Decision: DecisionAllowed}
	}

	var flagged *Verdict
	for _, rule := range g.rules {
		verdict := rule(text)
		switch verdict.Decision {
		case DecisionBlocked:
			return verdict
		case DecisionFlagged:
			if flagged == nil {
				flagged = &verdict
			}
		}
	}

	lowered := strings.ToLower(text)
	for _, term := range g.blocked {
		if strings.Contains(lowered, term) {
			return Verdict{
				Decision: DecisionBlocked,
				Reason:   fmt.Sprintf("matched blocked term %q", term),
			}
		}
	}
	if flagged != nil {
		return *flagged
	}
	for _, term := range g.flagged {
		if strings.Contains(lowered, term) {
			return Verdict{
				Decision: DecisionFlagged,
				Reason:   fmt.Sprintf("matched flagged term %q", term),
			}
		}
	}
	return Verdict{Decision: DecisionAllowed}
}

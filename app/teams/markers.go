package teams

import (
	"regexp"
	"strings"
)

type Decision int

const (
	// DecisionMissing means neither of the role's markers was found.
	DecisionMissing Decision = iota
	DecisionApproved
	DecisionRejected
	// DecisionConflicting means both markers were found.
	DecisionConflicting
)

func (d Decision) String() string {
	switch d {
	case DecisionApproved:
		return "approved"
	case DecisionRejected:
		return "rejected"
	case DecisionConflicting:
		return "conflicting"
	default:
		return "missing"
	}
}

// Approved is fail-closed: only an unambiguous approval counts.
func (d Decision) Approved() bool {
	return d == DecisionApproved
}

func (d Decision) Ambiguous() bool {
	return d == DecisionMissing || d == DecisionConflicting
}

type markerPatterns struct {
	approved *regexp.Regexp
	rejected *regexp.Regexp
}

var patterns = buildPatterns()

func buildPatterns() map[RoleID]markerPatterns {
	out := make(map[RoleID]markerPatterns, len(roles))
	for id, spec := range roles {
		out[id] = markerPatterns{
			approved: markerRegexp(spec.approvedMarker),
			rejected: markerRegexp(spec.rejectedMarker),
		}
	}
	return out
}

// Underscore is a word character, so \b keeps COMPLIANCE_APPROVED from matching inside
// a longer token.
func markerRegexp(marker string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(marker) + `\b`)
}

// ParseDecision finds the role's approval markers anywhere in message.
func ParseDecision(role RoleID, message string) Decision {
	p, ok := patterns[role]
	if !ok {
		return DecisionMissing
	}

	approved := p.approved.MatchString(message)
	rejected := p.rejected.MatchString(message)
	switch {
	case approved && rejected:
		return DecisionConflicting
	case approved:
		return DecisionApproved
	case rejected:
		return DecisionRejected
	default:
		return DecisionMissing
	}
}

// StripMarkers removes the role's markers and surrounding whitespace.
func StripMarkers(role RoleID, message string) string {
	p, ok := patterns[role]
	if !ok {
		return strings.TrimSpace(message)
	}
	message = p.approved.ReplaceAllString(message, "")
	message = p.rejected.ReplaceAllString(message, "")
	return strings.TrimSpace(message)
}

package teams

import "fmt"

// RoleID identifies one of the fixed participants of the review loop.
type RoleID int

const (
	Writer RoleID = iota + 1
	ComplianceReviewer
	CustomerServiceReviewer
)

// DefaultMaxRounds caps the review loop when the caller does not choose a limit.
const DefaultMaxRounds = 5

// Order is the fixed invocation order within a round.
var Order = []RoleID{Writer, ComplianceReviewer, CustomerServiceReviewer}

type roleSpec struct {
	key            string
	name           string
	alias          string
	system         string
	approvedMarker string
	rejectedMarker string
}

var roles = map[RoleID]roleSpec{
	Writer: {
		key:   "writer",
		name:  "Writer",
		alias: "LetterWriter",
		system: "You are a professional insurance letter drafting specialist with 15+ years of experience. " +
			"Create and refine clear, professional, and compliant insurance letters. " +
			"Guidelines: Use professional but warm tone, include required legal disclaimers, " +
			"personalize with customer information, follow industry best practices, ensure clarity and avoid jargon. " +
			"When refining, incorporate feedback from compliance and customer service reviews.",
		approvedMarker: "WRITER_APPROVED",
		rejectedMarker: "WRITER_NEEDS_IMPROVEMENT",
	},
	ComplianceReviewer: {
		key:  "compliance",
		name: "ComplianceReviewer",
		system: "You are an insurance compliance specialist ensuring all letters meet regulatory requirements. " +
			"Review letters for: legal compliance, required disclaimers, accuracy of information, " +
			"professional tone, missing required elements, state-specific regulations. " +
			"Provide specific feedback for improvements needed.",
		approvedMarker: "COMPLIANCE_APPROVED",
		rejectedMarker: "COMPLIANCE_REJECTED",
	},
	CustomerServiceReviewer: {
		key:  "customer_service",
		name: "CustomerServiceReviewer",
		system: "You are a customer service specialist ensuring letters are customer-friendly and effective. " +
			"Review for: clear communication, empathetic tone, easy to understand language, " +
			"appropriate level of detail, customer satisfaction potential, emotional impact. " +
			"Suggest improvements to enhance customer experience and reduce potential complaints.",
		approvedMarker: "CUSTOMER_SERVICE_APPROVED",
		rejectedMarker: "CUSTOMER_SERVICE_REJECTED",
	},
}

func (r RoleID) Valid() bool {
	_, ok := roles[r]
	return ok
}

// String returns the agent name used in conversations, e.g. "ComplianceReviewer".
func (r RoleID) String() string {
	if s, ok := roles[r]; ok {
		return s.name
	}
	return fmt.Sprintf("RoleID(%d)", int(r))
}

// Key is the short config/metrics label of the role.
func (r RoleID) Key() string {
	return roles[r].key
}

func (r RoleID) Markers() (approved, rejected string) {
	s := roles[r]
	return s.approvedMarker, s.rejectedMarker
}

func ParseRole(s string) (RoleID, error) {
	for id, spec := range roles {
		if s == spec.key || s == spec.name || (spec.alias != "" && s == spec.alias) {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown role: %q", s)
}

func (r RoleID) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *RoleID) UnmarshalText(b []byte) error {
	id, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = id
	return nil
}

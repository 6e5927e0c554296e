package teams

import (
	"fmt"
	"strings"
)

type Member struct {
	Role   RoleID
	System string
	Rules  []string
}

// Prompt builds the role's instructions. guidance is optional reference material
// (e.g. retrieved compliance guidelines) appended as CONTEXT.
func (m *Member) Prompt(guidance string) string {
	approved, rejected := m.Role.Markers()

	var sb strings.Builder
	sb.WriteString(m.System)
	if len(m.Rules) > 0 {
		sb.WriteString("\nRULES:\n- ")
		sb.WriteString(strings.Join(m.Rules, "\n- "))
	}
	sb.WriteString(fmt.Sprintf("\n\nAt the end of your response, state: '%s' if you approve, "+
		"or '%s' with the specific issues that must be addressed. Use exactly one of them.", approved, rejected))
	if guidance != "" {
		sb.WriteString("\n\nCONTEXT:\n")
		sb.WriteString(guidance)
	}
	return sb.String()
}

type Team struct {
	Members map[RoleID]*Member
}

// MemberOverride customizes one role; an empty System keeps the built-in instructions.
type MemberOverride struct {
	Role   RoleID
	System string
	Rules  []string
}

func NewTeam(overrides ...MemberOverride) *Team {
	members := make(map[RoleID]*Member, len(Order))
	for _, id := range Order {
		members[id] = &Member{Role: id, System: roles[id].system}
	}
	for _, o := range overrides {
		m, ok := members[o.Role]
		if !ok {
			continue
		}
		if o.System != "" {
			m.System = o.System
		}
		m.Rules = append(m.Rules, o.Rules...)
	}
	return &Team{Members: members}
}

func (t *Team) GetMember(role RoleID) *Member {
	if t == nil {
		return nil
	}
	return t.Members[role]
}

// Instructions returns the role prompt, falling back to the built-in one.
func (t *Team) Instructions(role RoleID, guidance string) string {
	if m := t.GetMember(role); m != nil {
		return m.Prompt(guidance)
	}
	m := Member{Role: role, System: roles[role].system}
	return m.Prompt(guidance)
}

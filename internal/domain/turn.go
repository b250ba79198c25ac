package domain

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// WireRole is the role name clients see for assistant turns.
const WireRoleAssistant = "gemini"

// ParseRole maps provider role names onto a Role.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "user":
		return RoleUser, true
	case "model", "assistant", "gemini":
		return RoleAssistant, true
	}
	return "", false
}

func (r Role) Wire() string {
	if r == RoleAssistant {
		return WireRoleAssistant
	}
	return string(r)
}

// Turn is one entry of a conversation history.
type Turn struct {
	Role    Role
	Content string
}

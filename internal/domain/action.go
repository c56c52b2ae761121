package domain

import (
	"fmt"
	"strings"
)

// ReviewAction is the closed set of outcomes an admin can apply to a flag.
type ReviewAction int

const (
	ActionDelete ReviewAction = iota + 1
	ActionWarn
	ActionBan
	ActionIgnore
)

var actionNames = map[ReviewAction]string{
	ActionDelete: "delete",
	ActionWarn:   "warn",
	ActionBan:    "ban",
	ActionIgnore: "ignore",
}

// ReviewActionNames lists the accepted wire names, in declaration order.
func ReviewActionNames() []string {
	return []string{"delete", "warn", "ban", "ignore"}
}

func ParseReviewAction(s string) (ReviewAction, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for a, name := range actionNames {
		if name == key {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

func (a ReviewAction) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return fmt.Sprintf("ReviewAction(%d)", int(a))
}

// Outcome is the human readable result of applying the action.
func (a ReviewAction) Outcome() string {
	switch a {
	case ActionDelete:
		return "Message deleted"
	case ActionWarn:
		return "User warned"
	case ActionBan:
		return "User banned"
	case ActionIgnore:
		return "Flag ignored"
	}
	return "unknown"
}

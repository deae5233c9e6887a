package command

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Permission is the access level of a caller. Levels are ordered.
type Permission int

const (
	Everyone Permission = iota
	Member
	Admin
)

func (p Permission) String() string {
	switch p {
	case Everyone:
		return "everyone"
	case Member:
		return "member"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("permission(%d)", int(p))
	}
}

func ParsePermission(s string) (Permission, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "everyone", "":
		return Everyone, nil
	case "member":
		return Member, nil
	case "admin":
		return Admin, nil
	default:
		return Everyone, fmt.Errorf("unknown permission %q", s)
	}
}

// TokenAuthorizer resolves bearer tokens to permission levels. Unknown and
// empty tokens resolve to Everyone.
type TokenAuthorizer struct {
	admins  mapset.Set[string]
	members mapset.Set[string]
}

func NewTokenAuthorizer(adminTokens, memberTokens []string) *TokenAuthorizer {
	return &TokenAuthorizer{
		admins:  nonEmptySet(adminTokens),
		members: nonEmptySet(memberTokens),
	}
}

func (a *TokenAuthorizer) Permission(token string) Permission {
	token = strings.TrimSpace(token)
	switch {
	case token == "":
		return Everyone
	case a.admins.Contains(token):
		return Admin
	case a.members.Contains(token):
		return Member
	default:
		return Everyone
	}
}

func nonEmptySet(tokens []string) mapset.Set[string] {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, token := range tokens {
		if token = strings.TrimSpace(token); token != "" {
			set.Add(token)
		}
	}
	return set
}

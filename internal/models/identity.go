package models

import "fmt"

// IdentityKind tags the active [Identity] variant.
type IdentityKind int

const (
	NoIdentity IdentityKind = iota
	LocalIdentity
	ExternalIdentity
)

func (k IdentityKind) String() string {
	switch k {
	case LocalIdentity:
		return "local"
	case ExternalIdentity:
		return "external"
	default:
		return "none"
	}
}

// Identity is the currently authenticated actor: nobody, a local account, or an external provider session.
type Identity struct {
	kind  IdentityKind
	value string
}

// Local returns the identity of a local account. An empty username yields None.
func Local(username string) Identity {
	if username == "" {
		return Identity{}
	}
	return Identity{kind: LocalIdentity, value: username}
}

// External returns the identity of an external provider session. An empty token yields None.
func External(sessionToken string) Identity {
	if sessionToken == "" {
		return Identity{}
	}
	return Identity{kind: ExternalIdentity, value: sessionToken}
}

func (i Identity) Kind() IdentityKind { return i.kind }
func (i Identity) IsNone() bool       { return i.kind == NoIdentity }

// Username returns the local username when the identity is Local.
func (i Identity) Username() (string, bool) {
	if i.kind != LocalIdentity {
		return "", false
	}
	return i.value, true
}

// SessionToken returns the provider session token when the identity is External.
func (i Identity) SessionToken() (string, bool) {
	if i.kind != ExternalIdentity {
		return "", false
	}
	return i.value, true
}

// String never includes the session token.
func (i Identity) String() string {
	switch i.kind {
	case LocalIdentity:
		return fmt.Sprintf("local:%s", i.value)
	case ExternalIdentity:
		return "external:<session>"
	default:
		return "none"
	}
}

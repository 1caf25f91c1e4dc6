package domain

import "github.com/google/uuid"

// IdentityPolicy holds the reserved identities of a deployment: the
// administrator authorized to update compliance records, and the service's
// own operating identity. Neither may appear as the target of a transfer or
// compliance update.
type IdentityPolicy struct {
	Admin  uuid.UUID
	System uuid.UUID
}

// IsAdmin reports whether id is the designated administrator.
func (p IdentityPolicy) IsAdmin(id uuid.UUID) bool {
	return id != uuid.Nil && id == p.Admin
}

// ValidateTarget checks that id is a well-formed, non-privileged identity.
// Reserved identities are rejected to prevent self-dealing or binding shares
// to privileged accounts.
func (p IdentityPolicy) ValidateTarget(id uuid.UUID) error {
	if id == uuid.Nil {
		return NewError(CodeInvalidInput, "identity is required")
	}
	if id == p.Admin {
		return NewError(CodeInvalidInput, "identity cannot be the administrator")
	}
	if id == p.System {
		return NewError(CodeInvalidInput, "identity cannot be the service account")
	}
	return nil
}

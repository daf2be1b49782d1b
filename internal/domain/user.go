package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUnset Role = ""
	RoleGuest Role = "guest"
	RoleHost  Role = "host"
	RoleAdmin Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUnset, RoleGuest, RoleHost, RoleAdmin:
		return Role(s), true
	default:
		return "", false
	}
}

type UserStatus string

const (
	StatusNone      UserStatus = ""
	StatusRequested UserStatus = "requested"
)

func ParseUserStatus(s string) (UserStatus, bool) {
	switch UserStatus(s) {
	case StatusNone, StatusRequested:
		return UserStatus(s), true
	default:
		return "", false
	}
}

// User is keyed by Email; ID is the store handle only.
type User struct {
	ID        string     `json:"_id" bson:"_id"`
	Email     string     `json:"email" bson:"email"`
	Name      string     `json:"name,omitempty" bson:"name,omitempty"`
	Image     string     `json:"image,omitempty" bson:"image,omitempty"`
	Role      Role       `json:"role,omitempty" bson:"role,omitempty"`
	Status    UserStatus `json:"status,omitempty" bson:"status,omitempty"`
	Timestamp int64      `json:"timestamp,omitempty" bson:"timestamp,omitempty"`
}

// UserPatch is the decoded body of a user save or role change. Pointer fields
// distinguish "absent" from "empty".
type UserPatch struct {
	Name   *string `json:"name,omitempty"`
	Image  *string `json:"image,omitempty"`
	Role   *string `json:"role,omitempty"`
	Status *string `json:"status,omitempty"`
}

// Field names accepted by the merge functions below. Anything else in a
// client payload is dropped.
const (
	FieldName      = "name"
	FieldImage     = "image"
	FieldRole      = "role"
	FieldStatus    = "status"
	FieldTimestamp = "timestamp"
)

// RegistrationFields builds the fields persisted when a user is first saved.
// A client may only register itself as a guest; any other role is ignored.
func (p UserPatch) RegistrationFields(now time.Time) (map[string]any, error) {
	set := map[string]any{}
	if p.Name != nil {
		set[FieldName] = strings.TrimSpace(*p.Name)
	}
	if p.Image != nil {
		set[FieldImage] = strings.TrimSpace(*p.Image)
	}
	if p.Role != nil && Role(*p.Role) == RoleGuest {
		set[FieldRole] = string(RoleGuest)
	}
	if p.Status != nil {
		st, ok := ParseUserStatus(*p.Status)
		if !ok {
			return nil, Invalid("unknown status %q", *p.Status)
		}
		set[FieldStatus] = string(st)
	}
	set[FieldTimestamp] = now.UnixMilli()
	return set, nil
}

// RequestsHost reports whether the patch asks for host status, the only
// change an existing user may apply to itself.
func (p UserPatch) RequestsHost() bool {
	return p.Status != nil && UserStatus(*p.Status) == StatusRequested
}

// RoleChangeFields builds the admin-applied role/status merge.
func (p UserPatch) RoleChangeFields(now time.Time) (map[string]any, error) {
	set := map[string]any{}
	if p.Role != nil {
		role, ok := ParseRole(*p.Role)
		if !ok {
			return nil, Invalid("unknown role %q", *p.Role)
		}
		set[FieldRole] = string(role)
	}
	if p.Status != nil {
		st, ok := ParseUserStatus(*p.Status)
		if !ok {
			return nil, Invalid("unknown status %q", *p.Status)
		}
		set[FieldStatus] = string(st)
	}
	if len(set) == 0 {
		return nil, Invalid("nothing to update")
	}
	set[FieldTimestamp] = now.UnixMilli()
	return set, nil
}

// NormalizeEmail normalizes email addresses (lowercase and trim)
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail performs basic email validation
func IsValidEmail(email string) bool {
	normalized := NormalizeEmail(email)
	parts := strings.Split(normalized, "@")
	if len(parts) != 2 {
		return false
	}
	local, domain := parts[0], parts[1]
	return len(local) > 0 && len(domain) > 2 && strings.Contains(domain, ".")
}

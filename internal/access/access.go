// Package access maps a role to what its holder may see and do.
package access

import "github.com/Bekawhite/DigitalLab/types"

// Scope is the set of lab results a caller may read.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeOwnResults
	ScopeAllResults
)

func (s Scope) String() string {
	switch s {
	case ScopeOwnResults:
		return "own_results"
	case ScopeAllResults:
		return "all_results"
	default:
		return "none"
	}
}

// Policy is the capability set derived from a role.
type Policy struct {
	Role   types.Role
	UserID int
	Scope  Scope

	CanUpload           bool
	CanListPatients     bool
	CanDownload         bool
	ShowPatientIdentity bool
	ShowRecipients      bool
	GroupByStatus       bool
}

// For returns the policy of a user with the given role. Unknown roles get
// ScopeNone and no capabilities.
func For(role types.Role, userID int) Policy {
	p := Policy{Role: role, UserID: userID}
	switch role {
	case types.RolePatient:
		p.Scope = ScopeOwnResults
		p.CanDownload = true
		p.ShowRecipients = true
	case types.RoleDoctor:
		p.Scope = ScopeAllResults
		p.CanDownload = true
		p.ShowPatientIdentity = true
		p.ShowRecipients = true
	case types.RoleLabTech:
		p.Scope = ScopeAllResults
		p.CanDownload = true
		p.CanUpload = true
		p.CanListPatients = true
		p.ShowPatientIdentity = true
		p.GroupByStatus = true
	default:
		p.Scope = ScopeNone
	}
	return p
}

// Anonymous is the policy of a caller without a session.
func Anonymous() Policy {
	return Policy{Scope: ScopeNone}
}

// CanReadResults reports whether the policy grants any result visibility.
func (p Policy) CanReadResults() bool {
	return p.Scope != ScopeNone
}

// MenuItem is one navigation entry.
type MenuItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

var (
	menuHome      = MenuItem{Label: "Home", Path: "/"}
	menuRegister  = MenuItem{Label: "Register", Path: "/auth/register"}
	menuLogin     = MenuItem{Label: "Login", Path: "/auth/login"}
	menuDashboard = MenuItem{Label: "Dashboard", Path: "/dashboard"}
	menuUpload    = MenuItem{Label: "Upload Result", Path: "/results"}
	menuLogout    = MenuItem{Label: "Logout", Path: "/auth/logout"}
)

// Menu returns the navigation entries shown to the policy holder.
func (p Policy) Menu() []MenuItem {
	switch {
	case p.Scope == ScopeNone:
		return []MenuItem{menuHome, menuRegister, menuLogin}
	case p.CanUpload:
		return []MenuItem{menuHome, menuUpload, menuDashboard, menuLogout}
	default:
		return []MenuItem{menuHome, menuDashboard, menuLogout}
	}
}

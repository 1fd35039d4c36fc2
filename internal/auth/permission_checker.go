package auth

import "github.com/frahmantamala/correspondence-management/internal/core/user"

// GrantSource is one way a user can hold a permission.
type GrantSource interface {
	Name() string
	Grants(p *user.Principal, permission string) bool
}

// AdminSource grants everything to administrators, whichever way the
// account was made one.
type AdminSource struct{}

func (AdminSource) Name() string { return "admin" }

func (AdminSource) Grants(p *user.Principal, _ string) bool {
	return p.LegacyRole == RoleAdmin || p.RoleName == RoleAdmin
}

type RoleSource struct{}

func (RoleSource) Name() string { return "role" }

func (RoleSource) Grants(p *user.Principal, permission string) bool {
	return p.RoleGrants(permission)
}

// LegacyFlagSource maps the per-user boolean columns onto permissions.
type LegacyFlagSource struct {
	Flags map[string]func(*user.Principal) bool
}

func NewLegacyFlagSource() LegacyFlagSource {
	return LegacyFlagSource{Flags: map[string]func(*user.Principal) bool{
		PermChangeMessageStatus: func(p *user.Principal) bool { return p.CanChangeStatus },
		PermManagePermissions:   func(p *user.Principal) bool { return p.CanManageStatusPermissions },
	}}
}

func (LegacyFlagSource) Name() string { return "legacy_flag" }

func (s LegacyFlagSource) Grants(p *user.Principal, permission string) bool {
	flag, ok := s.Flags[permission]
	return ok && flag(p)
}

func DefaultSources() []GrantSource {
	return []GrantSource{AdminSource{}, RoleSource{}, NewLegacyFlagSource()}
}

// Resolver answers capability questions from an ordered list of sources.
// Nothing is cached; every call looks at the principal as loaded.
type Resolver struct {
	sources []GrantSource
}

func NewResolver(sources ...GrantSource) *Resolver {
	if len(sources) == 0 {
		sources = DefaultSources()
	}
	return &Resolver{sources: sources}
}

func (r *Resolver) HasPermission(p *user.Principal, permission string) bool {
	_, ok := r.GrantedBy(p, permission)
	return ok
}

// GrantedBy reports the first source granting permission.
func (r *Resolver) GrantedBy(p *user.Principal, permission string) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, src := range r.sources {
		if src.Grants(p, permission) {
			return src.Name(), true
		}
	}
	return "", false
}

func (r *Resolver) HasAnyPermission(p *user.Principal, permissions ...string) bool {
	for _, perm := range permissions {
		if r.HasPermission(p, perm) {
			return true
		}
	}
	return false
}

func (r *Resolver) IsAdmin(p *user.Principal) bool {
	return p != nil && AdminSource{}.Grants(p, "")
}

func (r *Resolver) HasStatusPermission(p *user.Principal) bool {
	return r.HasPermission(p, PermChangeMessageStatus)
}

func (r *Resolver) HasStatusManagementPermission(p *user.Principal) bool {
	return r.HasPermission(p, PermManagePermissions)
}

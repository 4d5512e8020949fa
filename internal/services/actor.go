package services

// Actor is the resolved caller identity passed explicitly into every engine
// call. It replaces the ambient current-user cache of earlier designs; no
// service reads identity from global state.
type Actor struct {
	UserID      uint   // Tenant account id for admin/master callers
	CollectorID uint   // Set when the caller logged in as a collector
	TenantID    uint   // Owning tenant all reads and writes are scoped to
	Role        string // models.RoleMaster, RoleAdmin or RoleCollector
	Name        string // Display name, recorded on payments as collected_by
}

// IsCollector returns true when the acting caller is a field collector
func (a Actor) IsCollector() bool {
	return a.CollectorID != 0
}

// Resolved returns true when the actor carries a usable identity
func (a Actor) Resolved() bool {
	return a.UserID != 0 || a.CollectorID != 0
}

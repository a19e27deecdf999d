package domain

// ActorRole tags the kind of principal performing an operation.
type ActorRole string

const (
	ActorRoleMerchant ActorRole = "MERCHANT"
	ActorRoleAdmin    ActorRole = "ADMIN"
)

// Actor is the resolved identity behind a request. The HTTP layer
// authenticates credentials and passes the resolved actor explicitly
// into every core operation; the core switches on Role and never reads
// ambient request state.
type Actor struct {
	ID   string
	Role ActorRole
}

// IsMerchant reports whether the actor is a merchant principal.
func (a Actor) IsMerchant() bool { return a.Role == ActorRoleMerchant }

// IsAdmin reports whether the actor is an administrator principal.
func (a Actor) IsAdmin() bool { return a.Role == ActorRoleAdmin }

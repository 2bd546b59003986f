package ports

import "context"

// CustomerSnapshot is the denormalized display data attached to orders in
// role-scoped listings.
type CustomerSnapshot struct {
	DisplayName string `json:"displayName"`
	Contact     string `json:"contact"`
}

// IdentityDirectory resolves a customer reference to its display snapshot.
// It fronts the external identity collaborator; lookups are best-effort and
// the query service tolerates failures by listing without decoration.
type IdentityDirectory interface {
	Customer(ctx context.Context, ref string) (CustomerSnapshot, error)
}

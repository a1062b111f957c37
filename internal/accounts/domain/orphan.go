package domain

import "time"

// Orphan is an identity provider account left behind when registration
// failed and the compensating delete failed too. The reconciler retries the
// delete until the record is resolved.
type Orphan struct {
	ID          string
	IdentityRef string
	Email       string
	Reason      string
	Attempts    int
	LastError   string
	CreatedAt   time.Time
	ResolvedAt  *time.Time
}

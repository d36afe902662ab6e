// Package identity resolves free-text participant names against the
// registered identity set.
package identity

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"fieldreport/api/internal/store"
)

// Registry is the slice of the store the resolver needs.
type Registry interface {
	ListIdentities(ctx context.Context) ([]store.Identity, error)
}

type Resolver struct {
	registry Registry
}

func NewResolver(registry Registry) *Resolver {
	return &Resolver{registry: registry}
}

// ResolveSignature maps a display name to a registered identity's stored
// signature image reference. Matching is exact after trimming and
// lower-casing, against the full name (falling back to the username when the
// full name is blank) and the username. The registry is scanned in
// identity-ID order so duplicate names resolve deterministically. A match
// without a stored signature is a miss.
func (r *Resolver) ResolveSignature(ctx context.Context, displayName string) (string, bool, error) {
	needle := strings.ToLower(strings.TrimSpace(displayName))
	if needle == "" {
		return "", false, nil
	}

	identities, err := r.registry.ListIdentities(ctx)
	if err != nil {
		return "", false, fmt.Errorf("list identities: %w", err)
	}
	sort.Slice(identities, func(i, j int) bool { return identities[i].ID < identities[j].ID })

	for _, identity := range identities {
		fullName := strings.TrimSpace(identity.FullName)
		if fullName == "" {
			fullName = identity.Username
		}
		if strings.ToLower(fullName) != needle && strings.ToLower(identity.Username) != needle {
			continue
		}
		if identity.SignatureRef == "" {
			continue
		}
		return identity.SignatureRef, true, nil
	}
	return "", false, nil
}

// ResolveByID looks a signature up through the explicit identity reference,
// the preferred path when an order carries one.
func (r *Resolver) ResolveByID(ctx context.Context, identityID string) (string, bool, error) {
	if identityID == "" {
		return "", false, nil
	}
	identities, err := r.registry.ListIdentities(ctx)
	if err != nil {
		return "", false, fmt.Errorf("list identities: %w", err)
	}
	for _, identity := range identities {
		if identity.ID == identityID && identity.SignatureRef != "" {
			return identity.SignatureRef, true, nil
		}
	}
	return "", false, nil
}

// Package group is a thin convenience layer over identity and resolver for
// a locator shared among several people holding one secret key: a fresh
// identity constructor, and a resolve helper that delegates to a standard
// Resolver with the group's own key acting as both author and decrypter.
package group

import (
	"context"

	"github.com/sage-x-project/nostrlocator/identity"
	"github.com/sage-x-project/nostrlocator/payload"
	"github.com/sage-x-project/nostrlocator/resolver"
)

// Identity is a secret/public key pair meant to be distributed to every
// member of a group, rather than held by a single person.
type Identity struct {
	Signer identity.Signer
}

// NewIdentity generates a fresh random identity for a new group.
func NewIdentity() (*Identity, error) {
	signer, err := identity.GenerateLocalSigner()
	if err != nil {
		return nil, err
	}
	return &Identity{Signer: signer}, nil
}

// NewIdentityFromInput loads a group's existing secret key from a hex or
// bech32 nsec string.
func NewIdentityFromInput(input string) (*Identity, error) {
	signer, err := identity.NewLocalSignerFromInput(input)
	if err != nil {
		return nil, err
	}
	return &Identity{Signer: signer}, nil
}

// Resolve looks up the group's own locator record: the group's public key
// is both the author and the decryption key, so it works across Public,
// Self, Targeted-to-self, and Wrapped-including-self publish modes with no
// special wire behavior.
func (g *Identity) Resolve(ctx context.Context, r *resolver.Resolver, identifier string, opts resolver.Options) (*payload.Payload, error) {
	target := identity.PublicKeyHex(g.Signer.PublicKey())
	return r.Resolve(ctx, target, g.Signer, identifier, opts)
}

// ResolveLatest delegates to the resolver's resolve_latest using the
// group's own identity as both target and decryption key.
func (g *Identity) ResolveLatest(ctx context.Context, r *resolver.Resolver, opts resolver.Options) (*payload.Payload, error) {
	target := identity.PublicKeyHex(g.Signer.PublicKey())
	return r.ResolveLatest(ctx, target, g.Signer, opts)
}

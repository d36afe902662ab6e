package identity

import (
	"context"
	"testing"

	"fieldreport/api/internal/store"
)

type fakeRegistry struct {
	identities []store.Identity
}

func (f *fakeRegistry) ListIdentities(context.Context) ([]store.Identity, error) {
	return f.identities, nil
}

func TestResolveSignature(t *testing.T) {
	registry := &fakeRegistry{identities: []store.Identity{
		{ID: "usr_02", FullName: "Ana Rivera", Username: "arivera", SignatureRef: "signatures/arivera.png"},
		{ID: "usr_01", FullName: "Ana Rivera", Username: "ana.r", SignatureRef: "signatures/ana-r.png"},
		{ID: "usr_03", FullName: "", Username: "mmora", SignatureRef: "signatures/mmora.png"},
		{ID: "usr_04", FullName: "Luis Campos", Username: "lcampos", SignatureRef: ""},
	}}
	resolver := NewResolver(registry)

	tests := []struct {
		name      string
		input     string
		wantRef   string
		wantFound bool
	}{
		{"empty input", "", "", false},
		{"unknown name", "no-such-person", "", false},
		{"near miss is not a match", "Ana River", "", false},
		{"exact full name", "Ana Rivera", "signatures/ana-r.png", true},
		{"case and whitespace insensitive", "  ana rivera  ", "signatures/ana-r.png", true},
		{"username match", "arivera", "signatures/arivera.png", true},
		{"username fallback for blank full name", "mmora", "signatures/mmora.png", true},
		{"match without stored signature", "Luis Campos", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, found, err := resolver.ResolveSignature(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("ResolveSignature() error = %v", err)
			}
			if found != tt.wantFound || ref != tt.wantRef {
				t.Errorf("ResolveSignature(%q) = (%q, %v), want (%q, %v)", tt.input, ref, found, tt.wantRef, tt.wantFound)
			}
		})
	}
}

func TestResolveSignatureDeterministicOrder(t *testing.T) {
	// Registry enumeration order must not matter: the lowest identity ID wins.
	registry := &fakeRegistry{identities: []store.Identity{
		{ID: "usr_09", FullName: "Sam Ortega", Username: "sortega9", SignatureRef: "signatures/nine.png"},
		{ID: "usr_01", FullName: "Sam Ortega", Username: "sortega1", SignatureRef: "signatures/one.png"},
	}}
	resolver := NewResolver(registry)

	ref, found, err := resolver.ResolveSignature(context.Background(), "Sam Ortega")
	if err != nil || !found {
		t.Fatalf("ResolveSignature() = (%q, %v, %v)", ref, found, err)
	}
	if ref != "signatures/one.png" {
		t.Errorf("expected lowest-ID identity to win, got %q", ref)
	}
}

func TestResolveByID(t *testing.T) {
	registry := &fakeRegistry{identities: []store.Identity{
		{ID: "usr_01", FullName: "Ana Rivera", Username: "arivera", SignatureRef: "signatures/arivera.png"},
		{ID: "usr_02", FullName: "Luis Campos", Username: "lcampos", SignatureRef: ""},
	}}
	resolver := NewResolver(registry)

	if ref, found, _ := resolver.ResolveByID(context.Background(), "usr_01"); !found || ref != "signatures/arivera.png" {
		t.Errorf("ResolveByID(usr_01) = (%q, %v)", ref, found)
	}
	if _, found, _ := resolver.ResolveByID(context.Background(), "usr_02"); found {
		t.Error("identity without signature should not resolve")
	}
	if _, found, _ := resolver.ResolveByID(context.Background(), ""); found {
		t.Error("empty ID should not resolve")
	}
}

package model

import "testing"

func TestProviderValidate(t *testing.T) {
	p := Provider{ID: "p1", Rating: 4.2}
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.Rating = 5.5
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for rating above 5")
	}
	p = Provider{Rating: 3}
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestOffersService(t *testing.T) {
	p := Provider{ID: "p1", ServicesOffered: []string{"Plomberie générale", "électricité"}}
	if !p.OffersService("plomberie") {
		t.Error("expected containment match on plomberie")
	}
	if !p.OffersService("Électricité") {
		t.Error("expected case-insensitive match on électricité")
	}
	if p.OffersService("maçonnerie") {
		t.Error("unexpected match on maçonnerie")
	}
	if p.OffersService("") {
		t.Error("empty service type must not match")
	}
}

func TestCoversAny(t *testing.T) {
	p := Provider{ID: "p1", CoverageAreas: []string{"bonamoussadi", "makepe"}}
	if !p.CoversAny([]string{"akwa", "Bonamoussadi"}) {
		t.Error("expected coverage match")
	}
	if p.CoversAny([]string{"deido"}) {
		t.Error("unexpected coverage match")
	}
}

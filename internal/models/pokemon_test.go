package models

import "testing"

func TestHeightCm(t *testing.T) {
	p := Pokemon{Height: 7}
	if got := p.HeightCm(); got != 70 {
		t.Fatalf("HeightCm=%d want 70", got)
	}
}

func TestWeightKg(t *testing.T) {
	p := Pokemon{Weight: 69}
	if got := p.WeightKg().String(); got != "6.9" {
		t.Fatalf("WeightKg=%s want 6.9", got)
	}
	p = Pokemon{Weight: 1000}
	if got := p.WeightKg().String(); got != "100" {
		t.Fatalf("WeightKg=%s want 100", got)
	}
}

func TestPrimaryType(t *testing.T) {
	var p Pokemon
	if got := p.PrimaryType(); got != nil {
		t.Fatalf("PrimaryType=%v want nil for empty types", *got)
	}
	p.SetTypes([]string{"grass", "poison"})
	got := p.PrimaryType()
	if got == nil || *got != "grass" {
		t.Fatalf("PrimaryType=%v want grass", got)
	}
}

func TestTypeRoundTrip(t *testing.T) {
	var p Pokemon
	p.SetTypes([]string{"electric"})
	p.SetAbilities([]string{"static", "lightning-rod"})
	if types := p.TypeList(); len(types) != 1 || types[0] != "electric" {
		t.Fatalf("TypeList=%v", types)
	}
	if abilities := p.AbilityList(); len(abilities) != 2 || abilities[1] != "lightning-rod" {
		t.Fatalf("AbilityList=%v", abilities)
	}
}

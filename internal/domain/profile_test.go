package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestProfileByName(t *testing.T) {
	p, err := ProfileByName("normal")
	if err != nil {
		t.Fatalf("ProfileByName(normal): %v", err)
	}
	if p.Name != "normal" {
		t.Errorf("Name = %q, want normal", p.Name)
	}

	p, err = ProfileByName("turbo")
	if err != nil {
		t.Fatalf("ProfileByName(turbo): %v", err)
	}
	if p.ScanInterval >= ProfileNormal.ScanInterval {
		t.Errorf("turbo ScanInterval %v not faster than normal %v", p.ScanInterval, ProfileNormal.ScanInterval)
	}

	if _, err := ProfileByName("yolo"); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("ProfileByName(yolo) err = %v, want ErrUnknownProfile", err)
	}
}

func TestProfileValidate(t *testing.T) {
	for _, p := range []ConfigProfile{ProfileNormal, ProfileTurbo} {
		if err := p.Validate(); err != nil {
			t.Errorf("profile %q: %v", p.Name, err)
		}
	}

	cases := []struct {
		name   string
		mutate func(*ConfigProfile)
	}{
		{"tp2 not above tp1", func(p *ConfigProfile) { p.TakeProfitPct2 = p.TakeProfitPct1 }},
		{"zero tp1", func(p *ConfigProfile) { p.TakeProfitPct1 = decimal.Zero }},
		{"zero stop loss", func(p *ConfigProfile) { p.StopLossPct = decimal.Zero }},
		{"negative fee", func(p *ConfigProfile) { p.TransactionFee = decimal.NewFromFloat(-0.01) }},
		{"base above cap", func(p *ConfigProfile) { p.BasePositionSize = p.MaxPositionSize.Add(decimal.NewFromInt(1)) }},
	}
	for _, tc := range cases {
		p := ProfileNormal
		tc.mutate(&p)
		if err := p.Validate(); !errors.Is(err, ErrInvalidProfile) {
			t.Errorf("%s: err = %v, want ErrInvalidProfile", tc.name, err)
		}
	}
}

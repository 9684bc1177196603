package service

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	apperrors "github.com/copytrade-backend/internal/errors"
	"github.com/copytrade-backend/internal/models"
	"github.com/copytrade-backend/internal/types"
)

const testTarget = "0x742d35cc6b25cc8f2f3b1b5d0d2e0e5c9e1d2c3a"

func validRuleInput() RuleInput {
	return RuleInput{
		UserID:            "user-1",
		TargetAddress:     testTarget,
		CopyMethod:        types.CopyFixedAmount,
		CopyAmount:        100,
		MaxPositionSize:   1000,
		DelaySeconds:      30,
		MinLiquidity:      50000,
		SlippageTolerance: 1,
	}
}

func newRuleFixture(t *testing.T) (*RuleService, *mockRuleRepo) {
	t.Helper()
	profiles := newMockProfileRepo()
	profiles.profiles["addr-1"] = &models.AddressProfile{
		ID:      "addr-1",
		Address: testTarget,
		Chain:   types.ChainEthereum,
	}
	rules := newMockRuleRepo()
	return NewRuleService(rules, profiles), rules
}

func TestCreateRule(t *testing.T) {
	svc, repo := newRuleFixture(t)

	got, err := svc.CreateRule(context.Background(), validRuleInput())
	if err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}

	if got.Rule.ID == "" {
		t.Error("rule has no id")
	}
	if !got.Rule.IsActive {
		t.Error("new rule should be active")
	}
	if got.Rule.CreatedAt.IsZero() || got.Rule.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
	if got.Rule.CreatedAt.Location() != time.UTC {
		t.Error("timestamps should be UTC")
	}
	if got.Risk.Tier == "" {
		t.Error("risk assessment missing")
	}
	if len(repo.rules) != 1 {
		t.Errorf("stored rules = %d, want 1", len(repo.rules))
	}
}

func TestCreateRuleValidation(t *testing.T) {
	svc, _ := newRuleFixture(t)

	tests := []struct {
		name   string
		mutate func(*RuleInput)
	}{
		{"bad address", func(in *RuleInput) { in.TargetAddress = "0x123" }},
		{"empty user", func(in *RuleInput) { in.UserID = "" }},
		{"unknown method", func(in *RuleInput) { in.CopyMethod = "MARTINGALE" }},
		{"zero copy amount", func(in *RuleInput) { in.CopyAmount = 0 }},
		{"negative copy amount", func(in *RuleInput) { in.CopyAmount = -5 }},
		{"max position below minimum", func(in *RuleInput) { in.MaxPositionSize = 50 }},
		{"negative delay", func(in *RuleInput) { in.DelaySeconds = -1 }},
		{"delay above five minutes", func(in *RuleInput) { in.DelaySeconds = 301 }},
		{"zero slippage", func(in *RuleInput) { in.SlippageTolerance = 0 }},
		{"slippage above ten", func(in *RuleInput) { in.SlippageTolerance = 10.5 }},
		{"liquidity below floor", func(in *RuleInput) { in.MinLiquidity = 999 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validRuleInput()
			tt.mutate(&input)

			_, err := svc.CreateRule(context.Background(), input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !apperrors.IsUserError(err) {
				t.Errorf("expected a 4xx error, got %v", err)
			}
		})
	}
}

func TestCreateRuleNeverConstructsOnNonPositiveAmount(t *testing.T) {
	svc, repo := newRuleFixture(t)
	properties := gopter.NewProperties(nil)

	properties.Property("non-positive copy amounts never create a rule", prop.ForAll(
		func(copyAmount float64) bool {
			input := validRuleInput()
			input.CopyAmount = copyAmount

			_, err := svc.CreateRule(context.Background(), input)
			return err != nil && len(repo.rules) == 0
		},
		gen.Float64Range(-1e6, 0),
	))

	properties.TestingRun(t)
}

func TestCreateRuleUnknownTarget(t *testing.T) {
	svc, _ := newRuleFixture(t)

	input := validRuleInput()
	input.TargetAddress = "0x0000000000000000000000000000000000000042"

	_, err := svc.CreateRule(context.Background(), input)
	if err == nil {
		t.Fatal("expected not found error")
	}
	if apperrors.Categorize(err).StatusCode != 404 {
		t.Errorf("status = %d, want 404", apperrors.Categorize(err).StatusCode)
	}
}

func TestToggleRule(t *testing.T) {
	svc, _ := newRuleFixture(t)

	created, err := svc.CreateRule(context.Background(), validRuleInput())
	if err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}

	toggled, err := svc.ToggleRule(context.Background(), created.Rule.ID)
	if err != nil {
		t.Fatalf("ToggleRule() error = %v", err)
	}
	if toggled.IsActive {
		t.Error("rule should be inactive after toggle")
	}

	toggled, err = svc.ToggleRule(context.Background(), created.Rule.ID)
	if err != nil {
		t.Fatalf("ToggleRule() error = %v", err)
	}
	if !toggled.IsActive {
		t.Error("rule should be active after second toggle")
	}
}

func TestUpdateRule(t *testing.T) {
	svc, _ := newRuleFixture(t)

	created, err := svc.CreateRule(context.Background(), validRuleInput())
	if err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}

	input := validRuleInput()
	input.CopyAmount = 250
	input.CopyMethod = types.CopyProportional

	updated, err := svc.UpdateRule(context.Background(), created.Rule.ID, input)
	if err != nil {
		t.Fatalf("UpdateRule() error = %v", err)
	}
	if updated.Rule.CopyAmount != 250 {
		t.Errorf("CopyAmount = %v, want 250", updated.Rule.CopyAmount)
	}
	if !updated.Rule.UpdatedAt.After(created.Rule.CreatedAt) && updated.Rule.UpdatedAt != created.Rule.CreatedAt {
		t.Error("UpdatedAt not refreshed")
	}
}

func TestDeleteRule(t *testing.T) {
	svc, repo := newRuleFixture(t)

	created, err := svc.CreateRule(context.Background(), validRuleInput())
	if err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}

	if err := svc.DeleteRule(context.Background(), created.Rule.ID); err != nil {
		t.Fatalf("DeleteRule() error = %v", err)
	}
	if len(repo.rules) != 0 {
		t.Error("rule not removed")
	}

	if err := svc.DeleteRule(context.Background(), created.Rule.ID); err == nil {
		t.Fatal("expected not found deleting twice")
	}
}

func TestAllowsTokenDenyListWins(t *testing.T) {
	rule := &models.CopyTradeRule{
		AllowedTokens:  []string{"PEPE", "LINK"},
		ExcludedTokens: []string{"PEPE"},
	}

	if rule.AllowsToken("PEPE") {
		t.Error("deny-list entry should win over allow-list")
	}
	if !rule.AllowsToken("LINK") {
		t.Error("allow-listed token should pass")
	}
	if rule.AllowsToken("SHIB") {
		t.Error("token outside allow-list should be rejected")
	}

	open := &models.CopyTradeRule{ExcludedTokens: []string{"SHIB"}}
	if !open.AllowsToken("LINK") {
		t.Error("empty allow-list should permit unlisted tokens")
	}
	if open.AllowsToken("SHIB") {
		t.Error("excluded token should be rejected")
	}
}

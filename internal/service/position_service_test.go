package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	apperrors "github.com/copytrade-backend/internal/errors"
	"github.com/copytrade-backend/internal/models"
	"github.com/copytrade-backend/internal/types"
)

func newTestPosition(id string, amount, entryPrice, currentPrice float64) *models.Position {
	p := &models.Position{
		ID:           id,
		UserID:       "user-1",
		RuleID:       "rule-1",
		TokenAddress: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		TokenSymbol:  "WETH",
		EntryPrice:   entryPrice,
		CurrentPrice: currentPrice,
		Amount:       amount,
		OpenedAt:     time.Now().UTC().Add(-time.Hour),
		IsOpen:       true,
		Chain:        types.ChainEthereum,
	}
	p.Recompute()
	return p
}

func newPositionFixture(t *testing.T, positions ...*models.Position) (*PositionService, *mockPositionRepo) {
	t.Helper()
	repo := newMockPositionRepo()
	for _, p := range positions {
		if err := repo.Create(context.Background(), p); err != nil {
			t.Fatalf("failed to seed position: %v", err)
		}
	}
	market := &mockMarket{prices: map[string]float64{
		"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2": 2500,
	}}
	return NewPositionService(repo, market), repo
}

func TestClosePosition(t *testing.T) {
	svc, repo := newPositionFixture(t, newTestPosition("pos-1", 2, 2000, 2400))

	closed, err := svc.ClosePosition(context.Background(), "pos-1")
	if err != nil {
		t.Fatalf("ClosePosition() error = %v", err)
	}

	if closed.IsOpen {
		t.Error("position still open after close")
	}
	if closed.Amount != 0 {
		t.Errorf("Amount = %v, want 0", closed.Amount)
	}
	if closed.ClosedAt == nil {
		t.Error("ClosedAt not set")
	}
	if closed.CloseReason != CloseReasonManual {
		t.Errorf("CloseReason = %v, want %v", closed.CloseReason, CloseReasonManual)
	}
	// Closed at the refreshed quote of 2500: profit 2 * (2500 - 2000)
	if math.Abs(closed.RealizedProfit-1000) > 1e-9 {
		t.Errorf("RealizedProfit = %v, want 1000", closed.RealizedProfit)
	}

	stored, _ := repo.GetByID(context.Background(), "pos-1")
	if stored.IsOpen {
		t.Error("stored position still open")
	}
}

func TestClosePositionAlreadyClosed(t *testing.T) {
	pos := newTestPosition("pos-1", 1, 100, 110)
	pos.IsOpen = false
	svc, _ := newPositionFixture(t, pos)

	_, err := svc.ClosePosition(context.Background(), "pos-1")
	if err == nil {
		t.Fatal("expected error closing a closed position")
	}
	catErr := apperrors.Categorize(err)
	if catErr.Code != "INVALID_STATE" {
		t.Errorf("error code = %v, want INVALID_STATE", catErr.Code)
	}
}

func TestClosePositionNotFound(t *testing.T) {
	svc, _ := newPositionFixture(t)

	_, err := svc.ClosePosition(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected not found error")
	}
	if apperrors.Categorize(err).StatusCode != 404 {
		t.Errorf("status = %d, want 404", apperrors.Categorize(err).StatusCode)
	}
}

func TestPartialClosePosition(t *testing.T) {
	svc, _ := newPositionFixture(t, newTestPosition("pos-1", 10, 100, 120))

	got, err := svc.PartialClosePosition(context.Background(), "pos-1", 40)
	if err != nil {
		t.Fatalf("PartialClosePosition() error = %v", err)
	}

	if !got.IsOpen {
		t.Error("position closed after partial close below 100%")
	}
	if math.Abs(got.Amount-6) > 1e-9 {
		t.Errorf("Amount = %v, want 6", got.Amount)
	}
	// Invariants hold after the mutation
	if math.Abs(got.Value-got.Amount*got.CurrentPrice) > 1e-9 {
		t.Errorf("value invariant broken: value %v, amount*price %v", got.Value, got.Amount*got.CurrentPrice)
	}
	if math.Abs(got.Profit-(got.Value-got.Amount*got.EntryPrice)) > 1e-9 {
		t.Error("profit invariant broken")
	}
}

func TestPartialCloseHundredEqualsClose(t *testing.T) {
	svc, _ := newPositionFixture(t, newTestPosition("a", 3, 50, 60), newTestPosition("b", 3, 50, 60))

	viaPartial, err := svc.PartialClosePosition(context.Background(), "a", 100)
	if err != nil {
		t.Fatalf("PartialClosePosition(100) error = %v", err)
	}
	viaClose, err := svc.ClosePosition(context.Background(), "b")
	if err != nil {
		t.Fatalf("ClosePosition() error = %v", err)
	}

	if viaPartial.IsOpen || viaClose.IsOpen {
		t.Error("expected both positions closed")
	}
	if viaPartial.Amount != 0 || viaClose.Amount != 0 {
		t.Errorf("amounts = %v, %v, want both 0", viaPartial.Amount, viaClose.Amount)
	}
	if math.Abs(viaPartial.RealizedProfit-viaClose.RealizedProfit) > 1e-9 {
		t.Errorf("realized profit differs: %v vs %v", viaPartial.RealizedProfit, viaClose.RealizedProfit)
	}
}

func TestPartialCloseInvalidPercentage(t *testing.T) {
	svc, _ := newPositionFixture(t, newTestPosition("pos-1", 1, 100, 100))

	for _, pct := range []float64{0, -5, 100.01, 150} {
		_, err := svc.PartialClosePosition(context.Background(), "pos-1", pct)
		if err == nil {
			t.Fatalf("expected error for percentage %v", pct)
		}
		if apperrors.Categorize(err).Code != "INVALID_ARGUMENT" {
			t.Errorf("percentage %v: code = %v, want INVALID_ARGUMENT", pct, apperrors.Categorize(err).Code)
		}
	}
}

func TestSetStopLossAndTakeProfit(t *testing.T) {
	svc, _ := newPositionFixture(t, newTestPosition("pos-1", 1, 100, 120))

	got, err := svc.SetStopLoss(context.Background(), "pos-1", 90)
	if err != nil {
		t.Fatalf("SetStopLoss() error = %v", err)
	}
	if got.StopLossPrice == nil || *got.StopLossPrice != 90 {
		t.Errorf("StopLossPrice = %v, want 90", got.StopLossPrice)
	}

	got, err = svc.SetTakeProfit(context.Background(), "pos-1", 150)
	if err != nil {
		t.Fatalf("SetTakeProfit() error = %v", err)
	}
	if got.TakeProfitAt == nil || *got.TakeProfitAt != 150 {
		t.Errorf("TakeProfitAt = %v, want 150", got.TakeProfitAt)
	}

	// Stop-loss above current price is rejected
	if _, err := svc.SetStopLoss(context.Background(), "pos-1", 500); err == nil {
		t.Error("expected error for stop-loss above current price")
	}
	// Take-profit below current price is rejected
	if _, err := svc.SetTakeProfit(context.Background(), "pos-1", 10); err == nil {
		t.Error("expected error for take-profit below current price")
	}
}

func TestSetTriggerOnClosedPosition(t *testing.T) {
	pos := newTestPosition("pos-1", 1, 100, 120)
	pos.IsOpen = false
	svc, _ := newPositionFixture(t, pos)

	_, err := svc.SetStopLoss(context.Background(), "pos-1", 90)
	if err == nil {
		t.Fatal("expected invalid state error")
	}
	if apperrors.Categorize(err).Code != "INVALID_STATE" {
		t.Errorf("code = %v, want INVALID_STATE", apperrors.Categorize(err).Code)
	}
}

func TestPositionInvariantsUnderPriceUpdates(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("value and profit invariants survive any price tick", prop.ForAll(
		func(amount, entryPrice, newPrice float64) bool {
			p := newTestPosition("p", amount, entryPrice, entryPrice)
			p.CurrentPrice = newPrice
			p.Recompute()

			valueOK := math.Abs(p.Value-p.Amount*p.CurrentPrice) < 1e-6
			profitOK := math.Abs(p.Profit-(p.Value-p.Amount*p.EntryPrice)) < 1e-6
			return valueOK && profitOK
		},
		gen.Float64Range(0.001, 1e6),
		gen.Float64Range(0.001, 1e5),
		gen.Float64Range(0.001, 1e5),
	))

	properties.TestingRun(t)
}

package service

import (
	"context"
	"fmt"
	"testing"

	apperrors "github.com/copytrade-backend/internal/errors"
	"github.com/copytrade-backend/internal/provider"
	"github.com/copytrade-backend/internal/types"
)

func TestCreateAddress(t *testing.T) {
	repo := newMockProfileRepo()
	market := &mockMarket{perf: &provider.Performance{
		ROI:         120,
		WinRate:     72,
		TotalTrades: 300,
		RiskScore:   6.5,
		Followers:   1500,
	}}
	svc := NewAddressService(repo, market, nil)

	got, err := svc.CreateAddress(context.Background(), CreateAddressInput{
		Address: "0x742D35Cc6B25Cc8F2f3B1b5D0d2E0e5C9E1D2C3A",
		Chain:   types.ChainEthereum,
	})
	if err != nil {
		t.Fatalf("CreateAddress() error = %v", err)
	}

	if got.Address != "0x742d35cc6b25cc8f2f3b1b5d0d2e0e5c9e1d2c3a" {
		t.Errorf("address not lowercased: %v", got.Address)
	}
	if got.ID == "" {
		t.Error("profile has no id")
	}
	if got.Name == "" {
		t.Error("profile has no derived name")
	}
	if got.ROI != 120 {
		t.Errorf("ROI = %v, want 120 from provider", got.ROI)
	}
}

func TestCreateAddressInvalidFormat(t *testing.T) {
	svc := NewAddressService(newMockProfileRepo(), &mockMarket{}, nil)

	for _, address := range []string{"", "0x123", "742d35cc6b25cc8f2f3b1b5d0d2e0e5c9e1d2c3a", "0xZZZd35cc6b25cc8f2f3b1b5d0d2e0e5c9e1d2c3a"} {
		_, err := svc.CreateAddress(context.Background(), CreateAddressInput{Address: address})
		if err == nil {
			t.Fatalf("expected validation error for %q", address)
		}
		if apperrors.Categorize(err).StatusCode != 400 {
			t.Errorf("address %q: status = %d, want 400", address, apperrors.Categorize(err).StatusCode)
		}
	}
}

func TestCreateAddressDuplicateConflicts(t *testing.T) {
	svc := NewAddressService(newMockProfileRepo(), &mockMarket{}, nil)
	input := CreateAddressInput{Address: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}

	if _, err := svc.CreateAddress(context.Background(), input); err != nil {
		t.Fatalf("first create error = %v", err)
	}

	_, err := svc.CreateAddress(context.Background(), input)
	if err == nil {
		t.Fatal("expected conflict on duplicate address")
	}
	if apperrors.Categorize(err).StatusCode != 409 {
		t.Errorf("status = %d, want 409", apperrors.Categorize(err).StatusCode)
	}
}

func TestCreateAddressProviderFailureFallsBack(t *testing.T) {
	repo := newMockProfileRepo()
	market := &mockMarket{perfErr: fmt.Errorf("upstream down")}
	svc := NewAddressService(repo, market, nil)

	got, err := svc.CreateAddress(context.Background(), CreateAddressInput{
		Address: "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	})
	if err != nil {
		t.Fatalf("CreateAddress() should survive provider failure, got %v", err)
	}
	if got.ROI != 0 || got.TotalTrades != 0 {
		t.Error("metrics should be zeroed when the provider fails")
	}
}

func TestListAddressesDefaults(t *testing.T) {
	repo := newMockProfileRepo()
	svc := NewAddressService(repo, &mockMarket{}, nil)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := svc.CreateAddress(ctx, CreateAddressInput{
			Address: fmt.Sprintf("0x%040x", i+1),
		})
		if err != nil {
			t.Fatalf("seed create error = %v", err)
		}
	}

	got, err := svc.ListAddresses(ctx, ListAddressesInput{})
	if err != nil {
		t.Fatalf("ListAddresses() error = %v", err)
	}

	if len(got.Profiles) != 20 {
		t.Errorf("default page size = %d, want 20", len(got.Profiles))
	}
	if got.Pagination.Page != 1 || got.Pagination.Total != 25 {
		t.Errorf("pagination = %+v, want page 1 of 25", got.Pagination)
	}
	if !got.Pagination.HasNext || got.Pagination.HasPrev {
		t.Errorf("pagination flags = %+v", got.Pagination)
	}

	// Default order is ROI descending
	for i := 1; i < len(got.Profiles); i++ {
		if got.Profiles[i].ROI > got.Profiles[i-1].ROI {
			t.Fatalf("profiles not sorted by ROI descending at index %d", i)
		}
	}
}

func TestGetAddressNotFound(t *testing.T) {
	svc := NewAddressService(newMockProfileRepo(), &mockMarket{}, nil)

	_, err := svc.GetAddress(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected not found error")
	}
	if apperrors.Categorize(err).StatusCode != 404 {
		t.Errorf("status = %d, want 404", apperrors.Categorize(err).StatusCode)
	}
}

func TestGetAddressByAddressRef(t *testing.T) {
	repo := newMockProfileRepo()
	svc := NewAddressService(repo, &mockMarket{}, nil)

	created, err := svc.CreateAddress(context.Background(), CreateAddressInput{
		Address: "0x742d35cc6b25cc8f2f3b1b5d0d2e0e5c9e1d2c3a",
	})
	if err != nil {
		t.Fatalf("CreateAddress() error = %v", err)
	}

	got, err := svc.GetAddress(context.Background(), "0x742D35Cc6B25Cc8F2f3B1b5D0d2E0e5C9E1D2C3A")
	if err != nil {
		t.Fatalf("GetAddress() by address error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("resolved profile %v, want %v", got.ID, created.ID)
	}
}

func TestDeleteAddress(t *testing.T) {
	repo := newMockProfileRepo()
	svc := NewAddressService(repo, &mockMarket{}, nil)

	created, err := svc.CreateAddress(context.Background(), CreateAddressInput{
		Address: "0x742d35cc6b25cc8f2f3b1b5d0d2e0e5c9e1d2c3a",
	})
	if err != nil {
		t.Fatalf("CreateAddress() error = %v", err)
	}

	if err := svc.DeleteAddress(context.Background(), created.ID); err != nil {
		t.Fatalf("DeleteAddress() error = %v", err)
	}
	if err := svc.DeleteAddress(context.Background(), created.ID); err == nil {
		t.Fatal("expected not found on second delete")
	}
}

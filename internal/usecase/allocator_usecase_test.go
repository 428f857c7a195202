package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/corebank/transactor/internal/domain"
	"github.com/corebank/transactor/internal/usecase"
	"github.com/corebank/transactor/internal/usecase/mocks"
)

func TestAllocatorUseCase_Allocate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := mocks.NewMockGatewayPort(ctrl)
	gateway.EXPECT().NumberExists(gomock.Any(), gomock.Any()).Return(false, nil)

	uc := usecase.NewAllocatorUseCase(gateway, 10, zerolog.Nop())

	number, err := uc.Allocate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := domain.ValidateAccountNumber(number); err != nil {
		t.Errorf("expected <year><8 digits> format, got %q: %v", number, err)
	}
}

func TestAllocatorUseCase_RetriesOnCollision(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := mocks.NewMockGatewayPort(ctrl)
	gomock.InOrder(
		gateway.EXPECT().NumberExists(gomock.Any(), gomock.Any()).Return(true, nil),
		gateway.EXPECT().NumberExists(gomock.Any(), gomock.Any()).Return(true, nil),
		gateway.EXPECT().NumberExists(gomock.Any(), gomock.Any()).Return(false, nil),
	)

	uc := usecase.NewAllocatorUseCase(gateway, 10, zerolog.Nop())

	number, err := uc.Allocate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if number == "" {
		t.Error("expected a number after collisions")
	}
}

func TestAllocatorUseCase_Exhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := mocks.NewMockGatewayPort(ctrl)
	gateway.EXPECT().NumberExists(gomock.Any(), gomock.Any()).Return(true, nil).Times(3)

	uc := usecase.NewAllocatorUseCase(gateway, 3, zerolog.Nop())

	_, err := uc.Allocate(context.Background())
	if !errors.Is(err, domain.ErrAllocationExhausted) {
		t.Fatalf("expected ErrAllocationExhausted, got %v", err)
	}
}

func TestAllocatorUseCase_GatewayError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := mocks.NewMockGatewayPort(ctrl)
	gateway.EXPECT().NumberExists(gomock.Any(), gomock.Any()).Return(false, domain.ErrServiceUnavailable)

	uc := usecase.NewAllocatorUseCase(gateway, 3, zerolog.Nop())

	_, err := uc.Allocate(context.Background())
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestAllocatorUseCase_DistinctCandidates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	seen := make(map[string]bool)
	gateway := mocks.NewMockGatewayPort(ctrl)
	gateway.EXPECT().NumberExists(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, candidate string) (bool, error) {
			seen[candidate] = true
			return false, nil
		}).Times(20)

	uc := usecase.NewAllocatorUseCase(gateway, 10, zerolog.Nop())

	for i := 0; i < 20; i++ {
		if _, err := uc.Allocate(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// 20 draws from a 10^8 space colliding would point at a broken
	// generator, not bad luck.
	if len(seen) < 19 {
		t.Errorf("expected distinct candidates, got %d unique of 20", len(seen))
	}
}

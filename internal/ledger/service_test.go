package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/barangaylink/treasury/internal/ledger"
)

func TestService_SetBalance(t *testing.T) {
	type testCase struct {
		name      string
		params    ledger.SetParams
		setupMock func(m *ledger.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			params: ledger.SetParams{
				Amount:  decimal.RequireFromString("100000.00"),
				Notes:   "opening balance",
				ActedBy: "treasurer",
			},
			setupMock: func(m *ledger.MockRepository) {
				m.EXPECT().
					SetBalance(gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name: "NegativeAmount",
			params: ledger.SetParams{
				Amount:  decimal.RequireFromString("-1.00"),
				ActedBy: "treasurer",
			},
			wantErr: ledger.ErrInvalidAmount,
		},
		{
			name: "RepoError",
			params: ledger.SetParams{
				Amount:  decimal.RequireFromString("500.00"),
				ActedBy: "treasurer",
			},
			setupMock: func(m *ledger.MockRepository) {
				m.EXPECT().
					SetBalance(gomock.Any(), gomock.Any()).
					Return(errors.New("db error"))
			},
			wantErr: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := ledger.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := ledger.NewService(repo)
			err := svc.SetBalance(context.Background(), tt.params)

			if tt.wantErr != nil {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestService_Adjust(t *testing.T) {
	type testCase struct {
		name      string
		params    ledger.AdjustParams
		setupMock func(m *ledger.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "AddBecomesManualAddition",
			params: ledger.AdjustParams{
				Delta:     decimal.RequireFromString("2500.00"),
				Direction: ledger.DirectionAdd,
				ActedBy:   "treasurer",
			},
			setupMock: func(m *ledger.MockRepository) {
				m.EXPECT().
					Adjust(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p ledger.EntryParams) error {
						assert.Equal(t, ledger.ActionManualAddition, p.Action)
						return nil
					})
			},
		},
		{
			name: "DeductBecomesManualDeduction",
			params: ledger.AdjustParams{
				Delta:     decimal.RequireFromString("100.00"),
				Direction: ledger.DirectionDeduct,
				ActedBy:   "treasurer",
			},
			setupMock: func(m *ledger.MockRepository) {
				m.EXPECT().
					Adjust(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p ledger.EntryParams) error {
						assert.Equal(t, ledger.ActionManualDeduction, p.Action)
						return nil
					})
			},
		},
		{
			name: "UnknownDirection",
			params: ledger.AdjustParams{
				Delta:     decimal.RequireFromString("500.00"),
				Direction: ledger.Direction("withdraw"),
				ActedBy:   "treasurer",
			},
			wantErr: ledger.ErrInvalidDirection,
		},
		{
			name: "EmptyDirection",
			params: ledger.AdjustParams{
				Delta:   decimal.RequireFromString("500.00"),
				ActedBy: "treasurer",
			},
			wantErr: ledger.ErrInvalidDirection,
		},
		{
			name: "ZeroDelta",
			params: ledger.AdjustParams{
				Delta:     decimal.Zero,
				Direction: ledger.DirectionAdd,
			},
			wantErr: ledger.ErrInvalidAmount,
		},
		{
			name: "NegativeDelta",
			params: ledger.AdjustParams{
				Delta:     decimal.RequireFromString("-5.00"),
				Direction: ledger.DirectionDeduct,
			},
			wantErr: ledger.ErrInvalidAmount,
		},
		{
			name: "InsufficientFunds",
			params: ledger.AdjustParams{
				Delta:     decimal.RequireFromString("999999.00"),
				Direction: ledger.DirectionDeduct,
			},
			setupMock: func(m *ledger.MockRepository) {
				m.EXPECT().
					Adjust(gomock.Any(), gomock.Any()).
					Return(ledger.ErrInsufficientFunds)
			},
			wantErr: ledger.ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := ledger.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := ledger.NewService(repo)
			err := svc.Adjust(context.Background(), tt.params)

			if tt.wantErr != nil {
				require.Error(t, err)

				if errors.Is(tt.wantErr, ledger.ErrInvalidAmount) ||
					errors.Is(tt.wantErr, ledger.ErrInvalidDirection) ||
					errors.Is(tt.wantErr, ledger.ErrInsufficientFunds) {
					assert.ErrorIs(t, err, tt.wantErr)
				}

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestService_Current(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	repo.EXPECT().
		GetBalance(gomock.Any()).
		Return(nil, ledger.ErrNotFound)

	svc := ledger.NewService(repo)

	_, err := svc.Current(context.Background())
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

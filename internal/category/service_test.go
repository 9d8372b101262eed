package category_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/barangaylink/treasury/internal/category"
)

func TestService_Create(t *testing.T) {
	type testCase struct {
		name      string
		params    category.CreateParams
		setupMock func(m *category.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			params: category.CreateParams{
				Kind: category.KindExpense,
				Code: "SUPPLIES",
				Name: "Office Supplies",
			},
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().
					CreateCategory(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, c *category.Category) error {
						assert.Equal(t, category.KindExpense, c.Kind)
						assert.Equal(t, "SUPPLIES", c.Code)
						return nil
					})
			},
		},
		{
			name: "DuplicateCode",
			params: category.CreateParams{
				Kind: category.KindRevenue,
				Code: "CLEARANCE",
				Name: "Barangay Clearance Fees",
			},
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().
					CreateCategory(gomock.Any(), gomock.Any()).
					Return(category.ErrDuplicateCode)
			},
			wantErr: category.ErrDuplicateCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := category.NewMockRepository(ctrl)
			tt.setupMock(repo)

			svc := category.NewService(repo)
			c, err := svc.Create(context.Background(), tt.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.params.Code, c.Code)
		})
	}
}

func TestService_GetByCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := category.NewMockRepository(ctrl)
	repo.EXPECT().
		GetByCode(gomock.Any(), category.KindExpense, "INFRA").
		Return(&category.Category{ID: uuid.New(), Kind: category.KindExpense, Code: "INFRA"}, nil)

	svc := category.NewService(repo)

	c, err := svc.GetByCode(context.Background(), category.KindExpense, "INFRA")
	require.NoError(t, err)
	assert.Equal(t, "INFRA", c.Code)
}

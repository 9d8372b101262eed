package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Parse(t *testing.T) {
	// A realistic export: title block above the header, peso-formatted
	// amounts, trailing totals row without a reference number.
	input := strings.Join([]string{
		"Barangay San Isidro,,,,,,",
		"Expense Log Export,,,,,,",
		",,,,,,",
		"Ref No.,Date,Category,Payee,Description,Amount,Payment Method",
		"LEG-0001,2024-06-01,SUPPLIES,Peña Store,bond paper,\"₱1,250.00\",cash",
		"LEG-0002,06/15/2024,INFRA,Niño Trading,gravel,PHP 8500.50,check",
		"LEG-0003,\"Jul 3, 2024\",SUPPLIES,Sto. Niño Hardware,,300,cash",
		",,,,,,",
		",,,,TOTAL,\"₱10,050.50\",",
	}, "\n")

	rows, err := NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "LEG-0001", rows[0].ReferenceNumber)
	assert.Equal(t, "SUPPLIES", rows[0].CategoryCode)
	assert.Equal(t, "Peña Store", rows[0].Payee)
	assert.Equal(t, "bond paper", rows[0].Description)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("1250.00")))
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), rows[0].ExpenseDate)
	assert.Equal(t, "cash", rows[0].PaymentMethod)

	assert.True(t, rows[1].Amount.Equal(decimal.RequireFromString("8500.50")))
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), rows[1].ExpenseDate)

	assert.Equal(t, time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC), rows[2].ExpenseDate)
	assert.True(t, rows[2].Amount.Equal(decimal.RequireFromString("300")))
	assert.Empty(t, rows[2].Description)
}

func TestParser_Parse_NoHeader(t *testing.T) {
	input := "Some,Other,File\n1,2,3\n"

	_, err := NewParser().Parse(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no expense log header")
}

func TestParser_Parse_RowErrors(t *testing.T) {
	type testCase struct {
		name    string
		row     string
		wantErr string
	}

	header := "Ref No.,Date,Category,Payee,Description,Amount,Payment Method\n"

	tests := []testCase{
		{
			name:    "BadDate",
			row:     "LEG-1,sometime,SUPPLIES,Store,,100,cash",
			wantErr: "unrecognized date",
		},
		{
			name:    "BadAmount",
			row:     "LEG-1,2024-06-01,SUPPLIES,Store,,free,cash",
			wantErr: "unrecognized amount",
		},
		{
			name:    "NegativeAmount",
			row:     "LEG-1,2024-06-01,SUPPLIES,Store,,-50,cash",
			wantErr: "not positive",
		},
		{
			name:    "MissingPayee",
			row:     "LEG-1,2024-06-01,SUPPLIES,,,100,cash",
			wantErr: "missing payee",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().Parse(strings.NewReader(header + tt.row))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseAmount(t *testing.T) {
	type testCase struct {
		in   string
		want string
	}

	tests := []testCase{
		{"₱12,345.67", "12345.67"},
		{"PHP 500.00", "500.00"},
		{"500", "500"},
		{" ₱1,000 ", "1000"},
	}

	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), tt.in)
	}
}

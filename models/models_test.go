package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaymentMethod(t *testing.T) {
	tests := []struct {
		in   string
		want PaymentMethod
	}{
		{"cash", PaymentCash},
		{"CARD", PaymentCard},
		{"transfer", PaymentTransfer},
		{"mobile_wallet", PaymentMobileWallet},
		{"mobile-wallet", PaymentMobileWallet},
		{"Efectivo", PaymentCash},
		{"tarjeta", PaymentCard},
		{" Transferencia ", PaymentTransfer},
		{"Bizum", PaymentMobileWallet},
	}
	for _, tt := range tests {
		got, err := ParsePaymentMethod(tt.in)
		require.NoErrorf(t, err, "ParsePaymentMethod(%q)", tt.in)
		assert.Equal(t, tt.want, got)
		assert.True(t, got.Valid())
	}

	_, err := ParsePaymentMethod("cheque")
	assert.Error(t, err)
	assert.False(t, PaymentMethod("Efectivo").Valid())
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleAdmin, ParseRole(" Admin "))
	assert.Equal(t, RoleEmployee, ParseRole("employee"))
	assert.Equal(t, RoleEmployee, ParseRole("manicurist"))
	assert.Equal(t, RoleEmployee, ParseRole(""))
	assert.True(t, RoleEmployee.Valid())
	assert.False(t, Role("owner").Valid())
}

func TestDay(t *testing.T) {
	d, err := ParseDay("2024-03-09")
	require.NoError(t, err)
	assert.Equal(t, Day("2024-03-09"), d)
	assert.True(t, d.Before("2024-03-10"))
	assert.True(t, d.After("2024-02-29"))
	assert.Equal(t, 2024, d.Time().Year())

	_, err = ParseDay("09/03/2024")
	assert.Error(t, err)

	assert.Equal(t, Day("2024-03-09"), DayOf(time.Date(2024, 3, 9, 23, 59, 0, 0, time.Local)))
}

func TestDay_Scan(t *testing.T) {
	var d Day
	require.NoError(t, d.Scan(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, Day("2024-05-01"), d)

	require.NoError(t, d.Scan("2024-05-02 00:00:00+00:00"))
	assert.Equal(t, Day("2024-05-02"), d)

	require.NoError(t, d.Scan([]byte("2024-05-03")))
	assert.Equal(t, Day("2024-05-03"), d)

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))

	v, err := Day("").Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestIncomePatch(t *testing.T) {
	assert.True(t, IncomePatch{}.Empty())

	name := "Ana"
	price := decimal.RequireFromString("30.00")
	cols := IncomePatch{ClientName: &name, Price: &price}.Columns()
	assert.Equal(t, "Ana", cols["client_name"])
	assert.True(t, price.Equal(cols["price"].(decimal.Decimal)))
	assert.NotContains(t, cols, "date")
}

func TestPlanIncomeMigration(t *testing.T) {
	rows := []IncomeRecord{
		{ID: "1", LegacyName: "Tamar", SchemaVersion: 1},
		{ID: "2", LegacyName: "Anna ", SchemaVersion: 1},
		{ID: "3", LegacyName: "Intern", SchemaVersion: 1},
		{ID: "4", LegacyName: "", SchemaVersion: 1},
		{ID: "5", LegacyName: "Yuli", SchemaVersion: 2},
		{ID: "6", LegacyName: "anna", SchemaVersion: 1},
	}
	known := []Manicurist{{Name: "Tamar"}}

	plan := PlanIncomeMigration(rows, known)

	// 大小写敏感："anna" 与 "Anna" 是两个名字
	assert.Equal(t, []string{"Anna", "Invitada", "anna"}, plan.Create)
	assert.Equal(t, "Tamar", plan.Assign["1"])
	assert.Equal(t, "Anna", plan.Assign["2"])
	assert.Equal(t, "Invitada", plan.Assign["3"])
	assert.Equal(t, "", plan.Assign["4"])
	assert.NotContains(t, plan.Assign, "5")
}

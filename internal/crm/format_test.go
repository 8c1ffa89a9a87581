package crm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCustomer() Customer {
	return Customer{
		CustomerID:   "CUST-001",
		Name:         "山田太郎",
		Phone:        "090-1234-5678",
		Email:        "yamada@example.com",
		Address:      "東京都渋谷区1-2-3",
		TotalSales:   450000,
		VisitCount:   3,
		RegisteredAt: "2023-01-15",
		Notes:        "リピーター顧客",
	}
}

func sampleQuote() Quote {
	return Quote{
		QuoteID:     "Q-2024-001",
		CustomerID:  "CUST-001",
		VehicleInfo: "トヨタ プリウス (2020年式)",
		Items: []QuoteItem{
			{Description: "フロントバンパー修理", UnitPrice: 50000, Quantity: 1, TotalPrice: 50000},
		},
		TotalAmount: 50000,
		Status:      "承認済み",
		QuoteDate:   "2024-01-20",
		Notes:       "急ぎ対応",
	}
}

func sampleWorkHistory() WorkHistory {
	return WorkHistory{
		WorkID:      "WORK-001",
		CustomerID:  "CUST-001",
		VehicleInfo: "トヨタ プリウス (2020年式)",
		WorkType:    "板金塗装",
		Description: "フロントバンパー修理および塗装",
		Technician:  "山本職人",
		WorkDate:    "2024-01-25",
		PartsUsed: []PartUsed{
			{PartName: "塗料", Quantity: 1, UnitPrice: 15000, TotalPrice: 15000},
		},
		LaborCost: 30000,
		PartsCost: 15000,
		TotalCost: 45000,
		Rating:    5,
		Notes:     "仕上がり良好",
	}
}

func TestFormatRecord_Customer(t *testing.T) {
	text, err := FormatRecord(sampleCustomer())
	require.NoError(t, err)

	assert.Contains(t, text, "顧客情報")
	assert.Contains(t, text, "CUST-001")
	assert.Contains(t, text, "山田太郎")
	assert.Contains(t, text, "090-1234-5678")
	assert.Contains(t, text, "450,000円")
}

func TestFormatRecord_CustomerOmitsEmptyOptionals(t *testing.T) {
	c := sampleCustomer()
	c.Email = ""
	c.Address = ""
	c.Notes = ""

	text, err := FormatRecord(c)
	require.NoError(t, err)

	assert.NotContains(t, text, "メールアドレス")
	assert.NotContains(t, text, "住所")
	assert.NotContains(t, text, "備考")
}

func TestFormatRecord_Quote(t *testing.T) {
	text, err := FormatRecord(sampleQuote())
	require.NoError(t, err)

	assert.Contains(t, text, "見積情報")
	assert.Contains(t, text, "Q-2024-001")
	assert.Contains(t, text, "トヨタ プリウス")
	assert.Contains(t, text, "フロントバンパー修理")
	assert.Contains(t, text, "50,000円")
	assert.Contains(t, text, "承認済み")
	assert.Contains(t, text, "2024-01-20")
}

func TestFormatRecord_WorkHistory(t *testing.T) {
	text, err := FormatRecord(sampleWorkHistory())
	require.NoError(t, err)

	assert.Contains(t, text, "作業履歴")
	assert.Contains(t, text, "WORK-001")
	assert.Contains(t, text, "板金塗装")
	assert.Contains(t, text, "山本職人")
	assert.Contains(t, text, "45,000円")
	assert.Contains(t, text, "5つ星")
	assert.Contains(t, text, "塗料")
}

func TestFormatRecord_Deterministic(t *testing.T) {
	a, err := FormatRecord(sampleQuote())
	require.NoError(t, err)
	b, err := FormatRecord(sampleQuote())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFormatRecord_RatingAlwaysStarSuffixed(t *testing.T) {
	for rating := 1; rating <= 5; rating++ {
		w := sampleWorkHistory()
		w.Rating = rating
		text, err := FormatRecord(w)
		require.NoError(t, err)
		assert.Contains(t, text, "つ星")
	}
}

func TestFormatYen(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0円"},
		{999, "999円"},
		{1000, "1,000円"},
		{45000, "45,000円"},
		{450000, "450,000円"},
		{1234567, "1,234,567円"},
		{-50000, "-50,000円"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatYen(tt.amount))
	}
}

func TestQuoteItemTotalsSumToTotalAmount(t *testing.T) {
	q := Quote{
		QuoteID:     "Q-2024-002",
		CustomerID:  "CUST-002",
		VehicleInfo: "ホンダ フィット (2019年式)",
		Items: []QuoteItem{
			{Description: "ドアパネル交換", UnitPrice: 40000, Quantity: 2, TotalPrice: 80000},
			{Description: "塗装", UnitPrice: 25000, Quantity: 1, TotalPrice: 25000},
		},
		TotalAmount: 105000,
		Status:      "draft",
		QuoteDate:   "2024-02-01",
	}

	var sum int64
	for _, item := range q.Items {
		assert.Equal(t, item.UnitPrice*int64(item.Quantity), item.TotalPrice)
		sum += item.TotalPrice
	}
	assert.Equal(t, q.TotalAmount, sum)

	// Every line item's amount shows up grouped in the rendered block.
	text, err := FormatRecord(q)
	require.NoError(t, err)
	assert.Contains(t, text, "80,000円")
	assert.Contains(t, text, "25,000円")
	assert.Contains(t, text, "105,000円")
}

func TestFormatRecord_AllKindsContainID(t *testing.T) {
	records := []Record{sampleCustomer(), sampleQuote(), sampleWorkHistory()}
	for _, r := range records {
		text, err := FormatRecord(r)
		require.NoError(t, err)
		assert.True(t, strings.Contains(text, r.RecordID()), "formatted %s should contain its id", r.Kind())
	}
}

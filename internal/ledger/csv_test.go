package ledger

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakturownik/fakturownik/internal/calc"
	"github.com/fakturownik/fakturownik/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func lineItem(desc, qty, price string, rate model.VatRate) model.LineItem {
	li, err := calc.ComputeLineItem(model.LineItem{
		Description: desc,
		Quantity:    dec(qty),
		UnitPrice:   dec(price),
		VatRate:     rate,
	})
	if err != nil {
		panic(err)
	}
	return li
}

func sampleDocument(docID, number string, issued time.Time) model.Document {
	items := []model.LineItem{
		lineItem("Consulting, March", "2", "100.00", model.Vat23),
		lineItem("Training", "1", "999.99", model.VatExempt),
	}
	return model.Document{
		ID:                 docID,
		Kind:               model.KindIncome,
		Number:             number,
		IssueDate:          issued,
		Counterparty:       model.Party{Name: "ACME \"Polska\"", TaxID: "1234563218", CountryCode: "PL"},
		Currency:           "PLN",
		ExchangeRate:       decimal.NewFromInt(1),
		ExchangeRateDate:   issued,
		ExchangeRateSource: model.RateSourceExternal,
		Items:              items,
		Totals:             calc.Aggregate(items),
	}
}

func TestRoundTrip(t *testing.T) {
	foreign := sampleDocument("doc-2", "FV/2024/03/002", date(2024, 3, 15))
	foreign.Currency = "EUR"
	foreign.ExchangeRate = dec("4.3012")
	foreign.ExchangeRateDate = date(2024, 3, 14)
	foreign.SaleDate = date(2024, 3, 10)

	docs := []model.Document{sampleDocument("doc-1", "FV/2024/03/001", date(2024, 3, 1)), foreign}

	var buf bytes.Buffer
	require.NoError(t, WriteDocuments(&buf, docs))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, Header, lines[0])
	assert.Len(t, lines, 5, "header + 2 documents x 2 items")

	got, err := ReadDocuments(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i := range docs {
		want := docs[i]
		assert.Equal(t, want.ID, got[i].ID)
		assert.Equal(t, want.Number, got[i].Number)
		assert.Equal(t, want.Counterparty, got[i].Counterparty)
		assert.True(t, want.ExchangeRate.Equal(got[i].ExchangeRate))
		assert.Equal(t, want.ExchangeRateDate, got[i].ExchangeRateDate)
		assert.Equal(t, want.SaleDate, got[i].SaleDate)
		require.Len(t, got[i].Items, 2)
		assert.Equal(t, model.VatExempt, got[i].Items[1].VatRate)
		assert.True(t, want.Totals.Gross.Equal(got[i].Totals.Gross))
	}
	assert.Equal(t, "1245.99", got[0].Totals.Gross.StringFixed(2))
}

func TestReadDocuments_Empty(t *testing.T) {
	docs, err := ReadDocuments(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, docs)

	docs, err = ReadDocuments(strings.NewReader(Header + "\n"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestReadDocuments_BadRows(t *testing.T) {
	good := MarshalDocument(sampleDocument("doc-1", "FV/2024/03/001", date(2024, 3, 1)))[0]

	tests := []struct {
		name string
		col  int
		val  string
	}{
		{"bad issue date", colIssueDate, "2024-13-01"},
		{"bad rate", colRate, "abc"},
		{"bad vat rate", colVatRate, "7"},
		{"bad quantity", colQuantity, ""},
		{"bad exempt flag", colVatExempt, "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := append([]string(nil), good...)
			row[tt.col] = tt.val

			var buf bytes.Buffer
			buf.WriteString(Header + "\n")
			cw := csv.NewWriter(&buf)
			require.NoError(t, cw.Write(row))
			cw.Flush()

			_, err := ReadDocuments(&buf)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "row 2")
		})
	}
}

func TestReadDocuments_WrongFieldCount(t *testing.T) {
	_, err := ReadDocuments(strings.NewReader(Header + "\na,b,c\n"))
	assert.Error(t, err)
}

package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want Quantity
	}{
		{"1", NewQuantity(1)},
		{"12.5", Quantity(125_000)},
		{"0.00019", Quantity(1)},
		{"-3.25", Quantity(-32_500)},
		{".5", Quantity(5_000)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseQuantity(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseQuantity("")
	assert.Error(t, err)
}

func TestQuantityJSON(t *testing.T) {
	var q Quantity
	require.NoError(t, json.Unmarshal([]byte(`"2.5"`), &q))
	assert.Equal(t, Quantity(25_000), q)

	require.NoError(t, json.Unmarshal([]byte(`7`), &q))
	assert.Equal(t, NewQuantity(7), q)

	out, err := json.Marshal(NewQuantity(3))
	require.NoError(t, err)
	assert.Equal(t, "3.0000", string(out))
}

func TestQuantityDecimal(t *testing.T) {
	q := Quantity(12_345)
	assert.Equal(t, "1.2345", q.Decimal().String())
	assert.Equal(t, q, NewQuantityFromDecimal(q.Decimal()))
}

func TestCostAndUnitCost(t *testing.T) {
	total := Cost(NewQuantity(4), MustMoney("2.50"))
	assert.True(t, total.Equal(MustMoney("10")))

	assert.True(t, UnitCost(MustMoney("10"), NewQuantity(4)).Equal(MustMoney("2.5")))
	assert.True(t, UnitCost(MustMoney("10"), 0).IsZero())
}

func TestTaxHelpers(t *testing.T) {
	assert.True(t, AddTax(MustMoney("100"), MustMoney("11")).Equal(MustMoney("111")))
	assert.True(t, StripTax(MustMoney("111"), MustMoney("11")).Equal(MustMoney("100")))
}

func TestDateOrdering(t *testing.T) {
	a := MustDate("2026-01-31")
	b := a.AddDays(1)

	assert.Equal(t, "2026-02-01", b.String())
	assert.True(t, a.Before(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.True(t, a.Between(a, b))
	assert.False(t, b.AddDays(1).Between(a, b))
}

func TestDateOfIgnoresClockTime(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	d := DateOf(time.Date(2026, 10, 19, 23, 59, 0, 0, loc))
	assert.Equal(t, "2026-10-19", d.String())
}

func TestDateJSONAndScan(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2026-03-04"`), &d))
	assert.Equal(t, NewDate(2026, time.March, 4), d)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-04"`, string(out))

	var scanned Date
	require.NoError(t, scanned.Scan(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)))
	assert.True(t, scanned.Equal(d))

	v, err := Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, scanned.Scan(42))
}

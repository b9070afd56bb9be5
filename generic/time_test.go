package generic_test

import (
	"encoding/json"
	"testing"

	"github.com/jtbgroup/immocare-sub000/generic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_AddMonths_ClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		from   string
		months int
		want   string
	}{
		{"2024-01-31", 1, "2024-02-29"},
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-03-31", -1, "2024-02-29"},
		{"2024-08-31", 1, "2024-09-30"},
		{"2024-02-01", 36, "2027-02-01"},
		{"2024-11-15", 3, "2025-02-15"},
	}
	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			assert.Equal(t, tt.want, d(tt.from).AddMonths(tt.months).String())
		})
	}
}

func TestDate_AddYears_LeapDay(t *testing.T) {
	assert.Equal(t, "2025-02-28", d("2024-02-29").AddYears(1).String())
	assert.Equal(t, "2028-02-29", d("2024-02-29").AddYears(4).String())
	assert.Equal(t, "2027-02-28", d("2024-02-29").InYear(2027).String())
}

func TestDate_ParseRejectsGarbage(t *testing.T) {
	_, err := generic.ParseDate("2024-13-01")
	assert.Error(t, err)
	_, err = generic.ParseDate("01/02/2024")
	assert.Error(t, err)
}

func TestDate_JSON(t *testing.T) {
	var payload struct {
		Start generic.Date  `json:"start"`
		End   *generic.Date `json:"end"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2024-07-01","end":null}`), &payload))
	assert.Equal(t, "2024-07-01", payload.Start.String())
	assert.Nil(t, payload.End)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2024-07-01","end":null}`, string(out))
}

func TestMoney_JSON_TwoFractionDigits(t *testing.T) {
	var got struct {
		A generic.Money `json:"a"`
		B generic.Money `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":850.5,"b":"12"}`), &got))
	assert.Equal(t, "850.50", got.A.String())
	assert.Equal(t, "12.00", got.B.String())

	out, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Equal(t, `{"a":850.50,"b":12.00}`, string(out))
}

func TestPeriod_Contains(t *testing.T) {
	closed := generic.Period{Start: d("2024-01-01"), End: d("2024-06-30").Ptr()}
	open := generic.Period{Start: d("2024-07-01")}

	assert.True(t, closed.Contains(d("2024-01-01")))
	assert.True(t, closed.Contains(d("2024-06-30")))
	assert.False(t, closed.Contains(d("2024-07-01")))
	assert.False(t, open.Contains(d("2024-06-30")))
	assert.True(t, open.Contains(d("2030-01-01")))
	assert.Equal(t, "[2024-07-01, open]", open.String())
}

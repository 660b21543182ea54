package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/rinde/internal/model"
)

func TestNewEntryValidate(t *testing.T) {
	valid := NewEntry{
		Type:        model.TypeExpense,
		Subtype:     "Farmacia",
		Amount:      "$ 4.990",
		Date:        model.Date{Year: 2024, Month: time.May, Day: 2},
		Description: "remedios",
	}
	require.NoError(t, valid.Validate())

	e, err := valid.Entry()
	require.NoError(t, err)
	assert.Equal(t, int64(4990), e.Amount)

	empty := NewEntry{}
	err = empty.Validate()
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 5)
	assert.Equal(t,
		"invalid entry: amount: Este campo es obligatorio, date: Este campo es obligatorio, "+
			"description: Este campo es obligatorio, subtype: Este campo es obligatorio, type: Este campo es obligatorio",
		verrs.Error())
}

func TestCreateBillRequest(t *testing.T) {
	e := model.Entry{
		Type:        model.TypeSavings,
		Subtype:     "Ahorros",
		Amount:      50000,
		Date:        model.Date{Year: 2024, Month: time.June, Day: 1},
		Description: "fondo",
	}
	req := newCreateBillRequest("ana@rinde.cl", e)
	assert.Equal(t, createBillRequest{
		Email:       "ana@rinde.cl",
		Type:        "Ahorros",
		Amount:      50000,
		Date:        "2024-06-01",
		Description: "fondo",
		Subtype:     "Ahorros",
	}, req)
}

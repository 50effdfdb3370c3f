package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kiosco-pos/internal/application/dto"
)

func TestLedger_SoloConRutasHabilitadas(t *testing.T) {
	app := newTestServer(t, kioscoLedger(), false)

	resp := call(t, app, http.MethodGet, "/api/ledger/products", tokenForRoles(t, "ROLE_USER"), "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLedger_ContratoDelBackend(t *testing.T) {
	app := newTestServer(t, kioscoLedger(), true)
	tok := tokenForRoles(t, "ROLE_USER")

	var products []dto.LedgerProduct
	resp := call(t, app, http.MethodGet, "/api/ledger/products", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &products)
	require.Len(t, products, 3)
	assert.Equal(t, 6, products[0].StockQuantity)

	var sale dto.LedgerSale
	resp = call(t, app, http.MethodPost, "/api/ledger/sales", tok, `{"items":[{"productId":1,"quantity":2}]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decodeJSON(t, resp, &sale)
	assert.Equal(t, testUsername, sale.Username)
	require.Len(t, sale.Details, 1)
	assert.Equal(t, "Alfajor", sale.Details[0].ProductName)

	var sales []dto.LedgerSale
	resp = call(t, app, http.MethodGet, "/api/ledger/sales", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &sales)
	assert.Len(t, sales, 1)
}

func TestLedger_RechazoStockInsuficiente(t *testing.T) {
	app := newTestServer(t, kioscoLedger(), true)

	var e dto.LedgerError
	resp := call(t, app, http.MethodPost, "/api/ledger/sales", tokenForRoles(t, "ROLE_USER"), `{"items":[{"productId":2,"quantity":5}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	decodeJSON(t, resp, &e)
	assert.Contains(t, e.Message, "stock insuficiente")
}

package http_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kiosco-pos/internal/application/dto"
	"github.com/jhoicas/kiosco-pos/internal/domain"
	"github.com/jhoicas/kiosco-pos/pkg/logger"
)

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func kioscoLedger() *fakeLedger {
	return newFakeLedger(
		product(1, "Alfajor", 900, 6),
		product(2, "Agua", 700, 1),
		product(3, "Chicle", 100, 0),
	)
}

func TestPOS_RequiereToken(t *testing.T) {
	app := newTestServer(t, kioscoLedger(), false)

	resp := call(t, app, http.MethodGet, "/api/pos/cart", "", "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPOS_BuscarProductos(t *testing.T) {
	app := newTestServer(t, kioscoLedger(), false)
	tok := tokenForRoles(t, "ROLE_USER")

	var out dto.ProductListResponse
	resp := call(t, app, http.MethodGet, "/api/pos/products?q=alf", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &out)

	require.Len(t, out.Items, 1)
	assert.Equal(t, "Alfajor", out.Items[0].Name)
}

func TestPOS_AgregarYCobrar(t *testing.T) {
	ledger := kioscoLedger()
	app := newTestServer(t, ledger, false)
	tok := tokenForRoles(t, "ROLE_USER")

	resp := call(t, app, http.MethodPost, "/api/pos/cart/lines", tok, `{"product_id":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = call(t, app, http.MethodPatch, "/api/pos/cart/lines/1", tok, `{"delta":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var view dto.CartView
	resp = call(t, app, http.MethodGet, "/api/pos/cart?amount_paid=2000", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &view)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.True(t, view.Total.Equal(decimal.NewFromInt(1800)))
	require.NotNil(t, view.Change)
	assert.True(t, view.Change.Equal(decimal.NewFromInt(200)))
	assert.True(t, view.CanCheckout)

	var out dto.CheckoutResponse
	resp = call(t, app, http.MethodPost, "/api/pos/checkout", tok, `{"amount_paid":"2000"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decodeJSON(t, resp, &out)
	assert.NotEmpty(t, out.Reference)
	assert.Equal(t, testUsername, out.Sale.Seller)
	require.NotNil(t, out.Change)
	assert.True(t, out.Change.Equal(decimal.NewFromInt(200)))
	// Alfajor quedó en 4 y Agua/Chicle ya estaban bajos.
	assert.Len(t, out.LowStockAlerts, 3)

	resp = call(t, app, http.MethodGet, "/api/pos/cart", tok, "")
	decodeJSON(t, resp, &view)
	assert.Empty(t, view.Lines, "el carrito queda vacío después del cobro")

	var hist dto.SaleListResponse
	resp = call(t, app, http.MethodGet, "/api/pos/sales", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &hist)
	assert.Len(t, hist.Items, 1)
}

func TestPOS_DosCajasDelMismoVendedor(t *testing.T) {
	app := newTestServer(t, kioscoLedger(), false)
	cajaA := tokenForRoles(t, "ROLE_USER")
	cajaB := tokenForRoles(t, "ROLE_USER")

	resp := call(t, app, http.MethodPost, "/api/pos/cart/lines", cajaA, `{"product_id":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var view dto.CartView
	resp = call(t, app, http.MethodGet, "/api/pos/cart", cajaB, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &view)
	assert.Empty(t, view.Lines)

	resp = call(t, app, http.MethodGet, "/api/pos/cart", cajaA, "")
	decodeJSON(t, resp, &view)
	assert.Len(t, view.Lines, 1)
}

func TestPOS_SinStock(t *testing.T) {
	app := newTestServer(t, kioscoLedger(), false)
	tok := tokenForRoles(t, "ROLE_USER")

	var e dto.ErrorResponse
	resp := call(t, app, http.MethodPost, "/api/pos/cart/lines", tok, `{"product_id":3}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	decodeJSON(t, resp, &e)
	assert.Equal(t, "OUT_OF_STOCK", e.Code)

	resp = call(t, app, http.MethodPost, "/api/pos/cart/lines", tok, `{"barcode":"7790002"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = call(t, app, http.MethodPatch, "/api/pos/cart/lines/2", tok, `{"delta":1}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	decodeJSON(t, resp, &e)
	assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)
}

func TestPOS_CobroValidaciones(t *testing.T) {
	app := newTestServer(t, kioscoLedger(), false)
	tok := tokenForRoles(t, "ROLE_USER")

	var e dto.ErrorResponse
	resp := call(t, app, http.MethodPost, "/api/pos/checkout", tok, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	decodeJSON(t, resp, &e)
	assert.Equal(t, "EMPTY_CART", e.Code)

	resp = call(t, app, http.MethodPost, "/api/pos/cart/lines", tok, `{"product_id":1}`)
	resp.Body.Close()
	resp = call(t, app, http.MethodPost, "/api/pos/checkout", tok, `{"amount_paid":"500"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	decodeJSON(t, resp, &e)
	assert.Equal(t, "INSUFFICIENT_PAYMENT", e.Code)

	var view dto.CartView
	resp = call(t, app, http.MethodGet, "/api/pos/cart", tok, "")
	decodeJSON(t, resp, &view)
	assert.Len(t, view.Lines, 1, "el carrito queda intacto")
}

func TestPOS_CobroRechazadoPorServidor(t *testing.T) {
	ledger := kioscoLedger()
	app := newTestServer(t, ledger, false)
	tok := tokenForRoles(t, "ROLE_USER")

	resp := call(t, app, http.MethodPost, "/api/pos/cart/lines", tok, `{"product_id":1}`)
	resp.Body.Close()

	ledger.err = domain.ErrNetworkFailure
	var e dto.ErrorResponse
	resp = call(t, app, http.MethodPost, "/api/pos/checkout", tok, "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	decodeJSON(t, resp, &e)
	assert.Equal(t, "NETWORK_FAILURE", e.Code)

	ledger.err = domain.ErrUnauthenticated
	resp = call(t, app, http.MethodPost, "/api/pos/checkout", tok, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// La sesión quedó invalidada: el mismo token ya no sirve.
	resp = call(t, app, http.MethodGet, "/api/pos/cart", tok, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestPOS_ErrorNoMapeadoNoExponeDetalles(t *testing.T) {
	ledger := kioscoLedger()
	var logs bytes.Buffer
	app := newLoggedTestServer(t, ledger, true, logger.New(logger.Config{Env: "production", Level: "error", Output: &logs}))
	tok := tokenForRoles(t, "ROLE_USER")

	resp := call(t, app, http.MethodPost, "/api/pos/cart/lines", tok, `{"product_id":1}`)
	resp.Body.Close()

	ledger.err = errors.New("pq: password authentication failed for user kiosco")
	var e dto.ErrorResponse
	resp = call(t, app, http.MethodPost, "/api/pos/checkout", tok, "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	decodeJSON(t, resp, &e)
	assert.Equal(t, "INTERNAL", e.Code)
	assert.Equal(t, "error interno", e.Message)

	var le dto.LedgerError
	resp = call(t, app, http.MethodPost, "/api/ledger/sales", tok, `{"items":[{"productId":1,"quantity":1}]}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	decodeJSON(t, resp, &le)
	assert.Equal(t, "error interno", le.Message)

	// El detalle queda en el log del servidor.
	assert.Contains(t, logs.String(), "password authentication failed")
	assert.Contains(t, logs.String(), "/api/pos/checkout")
}

func TestPOS_QuitarLineaYCancelar(t *testing.T) {
	app := newTestServer(t, kioscoLedger(), false)
	tok := tokenForRoles(t, "ROLE_USER")

	resp := call(t, app, http.MethodPost, "/api/pos/cart/lines", tok, `{"product_id":1}`)
	resp.Body.Close()
	resp = call(t, app, http.MethodPost, "/api/pos/cart/lines", tok, `{"product_id":2}`)
	resp.Body.Close()

	var view dto.CartView
	resp = call(t, app, http.MethodDelete, "/api/pos/cart/lines/1", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &view)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, int64(2), view.Lines[0].ProductID)

	resp = call(t, app, http.MethodDelete, "/api/pos/cart", tok, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodGet, "/api/pos/cart", tok, "")
	decodeJSON(t, resp, &view)
	assert.Empty(t, view.Lines)
}

func TestPOS_EntradaInvalida(t *testing.T) {
	app := newTestServer(t, kioscoLedger(), false)
	tok := tokenForRoles(t, "ROLE_USER")

	resp := call(t, app, http.MethodPost, "/api/pos/cart/lines", tok, `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodGet, "/api/pos/cart?amount_paid=abc", tok, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodPatch, "/api/pos/cart/lines/1", tok, `{"delta":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

// Package kiosco implementa los puertos de catálogo y ventas contra la API REST del backend
// del kiosco.
package kiosco

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"

	"github.com/jhoicas/kiosco-pos/internal/application/auth"
	"github.com/jhoicas/kiosco-pos/internal/application/dto"
	"github.com/jhoicas/kiosco-pos/internal/domain"
	"github.com/jhoicas/kiosco-pos/internal/domain/entity"
	"github.com/jhoicas/kiosco-pos/internal/domain/repository"
	"github.com/jhoicas/kiosco-pos/pkg/logger"
)

// Verificar en tiempo de compilación que Client implementa el catálogo.
var _ repository.ProductRepository = (*Client)(nil)

// maxErrorBodyBytes acota solo el cuerpo de las respuestas de error (se lee para el mensaje).
// Las respuestas exitosas se decodifican en streaming sin límite.
const maxErrorBodyBytes = 64 << 10

// errGatewayStatus marca un 502/503/504 para que cuente como falla del circuito.
var errGatewayStatus = errors.New("backend no disponible")

// Options configuración del cliente.
type Options struct {
	BaseURL      string // ej. http://localhost:8080/api
	ServiceToken string // se usa cuando el contexto no trae sesión (vigilante de stock)

	BreakerMaxFailures uint32        // fallas consecutivas que abren el circuito
	BreakerOpenTimeout time.Duration // tiempo en abierto antes de probar de nuevo

	HTTPClient *http.Client
	Logger     *logger.Logger
}

// response resultado de una llamada. body solo se completa en las respuestas de error.
type response struct {
	status    int
	body      []byte
	decodeErr error
}

// Client adaptador HTTP del servicio de catálogo y ventas.
//
// El token Bearer se toma de la sesión del contexto (auth.WithSession). Las llamadas pasan
// por un circuit breaker: con el circuito abierto se devuelve domain.ErrNetworkFailure sin
// tocar la red. Solo los errores de transporte y los 502/503/504 cuentan como falla: el
// backend informa el stock insuficiente con 500 y ese rechazo no debe abrir el circuito.
type Client struct {
	baseURL      string
	serviceToken string
	httpClient   *http.Client
	breaker      *gobreaker.CircuitBreaker[response]
	log          *logger.Logger
}

// NewClient construye el adaptador.
func NewClient(opts Options) *Client {
	if opts.HTTPClient == nil {
		// Sin Timeout: el envío de una venta no se aborta por tiempo.
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.BreakerMaxFailures == 0 {
		opts.BreakerMaxFailures = 5
	}
	if opts.BreakerOpenTimeout <= 0 {
		opts.BreakerOpenTimeout = 30 * time.Second
	}
	log := opts.Logger
	maxFailures := opts.BreakerMaxFailures

	c := &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		serviceToken: opts.ServiceToken,
		httpClient:   opts.HTTPClient,
		log:          log,
	}
	c.breaker = gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
		Name:        "kiosco-api",
		MaxRequests: 1,
		Timeout:     opts.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("kiosco: cambio de estado del circuito")
		},
	})
	return c
}

// List devuelve el catálogo completo (GET /products).
func (c *Client) List(ctx context.Context) ([]entity.Product, error) {
	var raw []dto.LedgerProduct
	if err := c.call(ctx, http.MethodGet, "/products", nil, &raw); err != nil {
		return nil, fmt.Errorf("kiosco: listar productos: %w", err)
	}
	out := make([]entity.Product, 0, len(raw))
	for _, p := range raw {
		out = append(out, p.ToEntity())
	}
	return out, nil
}

// Sales adaptador del libro de ventas sobre el mismo cliente.
func (c *Client) Sales() *SaleClient { return &SaleClient{c: c} }

// SaleClient implementa repository.SaleRepository.
type SaleClient struct {
	c *Client
}

var _ repository.SaleRepository = (*SaleClient)(nil)

// List devuelve el historial de ventas (GET /sales).
func (s *SaleClient) List(ctx context.Context) ([]entity.SaleRecord, error) {
	return s.c.ListSales(ctx)
}

// Submit confirma la venta (POST /sales).
func (s *SaleClient) Submit(ctx context.Context, intent entity.SaleIntent) (*entity.SaleRecord, error) {
	return s.c.Submit(ctx, intent)
}

// ListSales devuelve el historial de ventas (GET /sales).
func (c *Client) ListSales(ctx context.Context) ([]entity.SaleRecord, error) {
	var raw []dto.LedgerSale
	if err := c.call(ctx, http.MethodGet, "/sales", nil, &raw); err != nil {
		return nil, fmt.Errorf("kiosco: listar ventas: %w", err)
	}
	out := make([]entity.SaleRecord, 0, len(raw))
	for _, s := range raw {
		out = append(out, s.ToEntity())
	}
	return out, nil
}

// Submit envía la intención de venta (POST /sales). Solo viajan producto y cantidad.
func (c *Client) Submit(ctx context.Context, intent entity.SaleIntent) (*entity.SaleRecord, error) {
	var raw dto.LedgerSale
	if err := c.call(ctx, http.MethodPost, "/sales", dto.LedgerSaleRequestFromIntent(intent), &raw); err != nil {
		return nil, fmt.Errorf("kiosco: registrar venta: %w", err)
	}
	rec := raw.ToEntity()
	return &rec, nil
}

// call ejecuta la petición dentro del circuito y decodifica la respuesta en out.
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("serializar request: %w", err)
		}
		body = b
	}

	resp, err := c.breaker.Execute(func() (response, error) {
		return c.do(ctx, method, path, body, out)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: servicio de ventas no disponible (circuito abierto)", domain.ErrNetworkFailure)
	case err != nil && !errors.Is(err, errGatewayStatus):
		return err
	}

	if mapped := mapStatus(resp.status, resp.body); mapped != nil {
		return mapped
	}
	if resp.decodeErr != nil {
		return fmt.Errorf("%w: respuesta inválida: %v", domain.ErrNetworkFailure, resp.decodeErr)
	}
	return nil
}

// do envía la petición. Con éxito decodifica el cuerpo en out; con error guarda el cuerpo
// para extraer el mensaje del servidor.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) (response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return response{}, fmt.Errorf("crear HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return response{}, fmt.Errorf("%w: cancelado: %v", domain.ErrNetworkFailure, ctx.Err())
		}
		return response{}, fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
	}
	defer res.Body.Close()

	resp := response{status: res.StatusCode}
	if res.StatusCode >= http.StatusBadRequest {
		raw, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBodyBytes))
		if err != nil {
			return response{}, fmt.Errorf("%w: leer respuesta: %v", domain.ErrNetworkFailure, err)
		}
		resp.body = raw
		if isGatewayStatus(res.StatusCode) {
			return resp, errGatewayStatus
		}
		return resp, nil
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			resp.decodeErr = err
		}
	}
	return resp, nil
}

func isGatewayStatus(status int) bool {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (c *Client) token(ctx context.Context) string {
	if s, ok := auth.FromContext(ctx); ok && s.Token != "" {
		return s.Token
	}
	return c.serviceToken
}

// mapStatus traduce el código HTTP a los errores de dominio.
// 401 → no autenticado, 403 → prohibido, 502/503/504 → red, cualquier otro >= 400 → rechazo
// con el mensaje del servidor (el backend informa el stock insuficiente con 4xx o 500).
func mapStatus(status int, body []byte) error {
	if status < http.StatusBadRequest {
		return nil
	}
	msg := serverMessage(status, body)
	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", domain.ErrUnauthenticated, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrForbidden, msg)
	}
	if isGatewayStatus(status) {
		return fmt.Errorf("%w: HTTP %d: %s", domain.ErrNetworkFailure, status, msg)
	}
	return fmt.Errorf("%w: %s", domain.ErrValidationRejected, msg)
}

func serverMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range []string{"message", "error", "detail"} {
			if v := gjson.GetBytes(body, path); v.Exists() && v.String() != "" {
				return v.String()
			}
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" && len(s) <= 200 {
		return s
	}
	return http.StatusText(status)
}

package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Cotizacion is one quote as published by a dolarapi-compatible endpoint,
// e.g. GET https://dolarapi.com/v1/dolares/blue.
type Cotizacion struct {
	Compra             decimal.Decimal `json:"compra"`
	Venta              decimal.Decimal `json:"venta"`
	Casa               string          `json:"casa"`
	FechaActualizacion time.Time       `json:"fechaActualizacion"`
}

// DolarClient fetches the USD quote from the exchange-rate provider.
type DolarClient struct {
	url        string
	httpClient *http.Client
}

func NewDolarClient(url string) *DolarClient {
	return &DolarClient{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Cotizacion performs a GET against the configured URL.
// A quote with a non-positive sell rate is rejected.
func (c *DolarClient) Cotizacion(ctx context.Context) (*Cotizacion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dolar: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dolar: provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dolar: provider returned %d", resp.StatusCode)
	}

	var result Cotizacion
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("dolar: decode response: %w", err)
	}
	if !result.Venta.IsPositive() {
		return nil, fmt.Errorf("dolar: invalid sell rate %s", result.Venta)
	}
	if result.FechaActualizacion.IsZero() {
		result.FechaActualizacion = time.Now()
	}
	return &result, nil
}

package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDolarClient_Cotizacion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"moneda":"USD","casa":"blue","nombre":"Blue","compra":1180,"venta":1200.5,"fechaActualizacion":"2026-10-17T14:57:00.000Z"}`))
	}))
	defer srv.Close()

	cot, err := NewDolarClient(srv.URL).Cotizacion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1200.5", cot.Venta.String())
	assert.Equal(t, "1180", cot.Compra.String())
	assert.Equal(t, "blue", cot.Casa)
	assert.Equal(t, 2026, cot.FechaActualizacion.Year())
}

func TestDolarClient_Errores(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
		"json":   func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{`)) },
		"venta":  func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"compra":0,"venta":0}`)) },
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			_, err := NewDolarClient(srv.URL).Cotizacion(context.Background())
			assert.Error(t, err)
		})
	}
}

//go:build integration

package router_test

// End-to-end flows against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"merygarcia/internal/config"
	"merygarcia/internal/infra"
	"merygarcia/internal/model"
	"merygarcia/internal/repository"
	"merygarcia/internal/router"
	"merygarcia/internal/service"
	"merygarcia/internal/worker"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any, token string) *http.Response {
	t.Helper()
	var buf *bytes.Buffer
	if body != nil {
		buf = jsonBody(t, body)
	} else {
		buf = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, srv.URL+path, buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func expect(t *testing.T, resp *http.Response, status int, dest any) {
	t.Helper()
	if dest == nil {
		defer resp.Body.Close()
		require.Equal(t, status, resp.StatusCode)
		return
	}
	require.Equal(t, status, resp.StatusCode)
	decodeJSON(t, resp, dest)
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// ── Setup ────────────────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	var body struct {
		AccessToken string `json:"access_token"`
	}
	expect(t, do(t, e.server, "POST", "/v1/auth/login",
		map[string]string{"username": username, "password": password}, ""), http.StatusOK, &body)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("merygarcia_test"),
		tcPostgres.WithUsername("merygarcia"),
		tcPostgres.WithPassword("merygarcia"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(context.Background()) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	// Provider that is always down: rates come from manual overrides.
	dolarAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(dolarAPI.Close)

	cfg := &config.Config{
		Port:                     8000,
		Env:                      "test",
		JWTSecret:                "test-secret-key",
		JWTExpirationHours:       8,
		JWTRefreshHours:          24,
		DatabaseURL:              pgURL,
		RedisURL:                 rdURL,
		DolarAPIURL:              dolarAPI.URL,
		TipoCambioTTLMinutes:     60,
		TipoCambioRefreshMinutes: 30,
		PermitirSobrepago:        true,
		BorradorTTLHours:         1,
		RecargoTarjetaPct:        "10",
		DescuentoEfectivoPct:     "0",
		WorkerPoolSize:           1,
		PDFStoragePath:           t.TempDir(),
		NombreNegocio:            "Mery Garcia",
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("admin1234"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.Usuario{
		Username:     "admin",
		Nombre:       "Admin E2E",
		PasswordHash: string(hash),
		Rol:          "administrador",
		Activo:       true,
	}).Error)

	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	tipoCambioSvc := service.NewTipoCambioService(
		repository.NewTipoCambioRepository(db), infra.NewDolarClient(cfg.DolarAPIURL), cb, rdb, cfg.TipoCambioTTL(),
	)
	dispatcher := worker.NewDispatcher(rdb)

	srv := httptest.NewServer(router.New(ctx, cfg, db, rdb, cb, tipoCambioSvc, dispatcher))
	t.Cleanup(srv.Close)

	env := &testEnv{server: srv}
	env.token = env.login(t, "admin", "admin1234")
	return env
}

type idResp struct {
	ID string `json:"id"`
}

// seedBasico loads a rate of 1000, one staff member and one client.
func seedBasico(t *testing.T, env *testEnv) (responsableID, clienteID string) {
	t.Helper()
	expect(t, do(t, env.server, "POST", "/v1/tipo-cambio", map[string]any{"venta": "1000"}, env.token),
		http.StatusCreated, nil)

	var p idResp
	expect(t, do(t, env.server, "POST", "/v1/personal",
		map[string]any{"nombre": "Lola Tattoo", "unidad_negocio": "tatuajes"}, env.token), http.StatusCreated, &p)

	var c idResp
	expect(t, do(t, env.server, "POST", "/v1/clientes",
		map[string]any{"nombre": "Ana Pérez"}, env.token), http.StatusCreated, &c)
	return p.ID, c.ID
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_ComandaConSenaYAnulacion(t *testing.T) {
	env := setupTestEnv(t)
	responsable, cliente := seedBasico(t, env)

	expect(t, do(t, env.server, "POST", "/v1/clientes/"+cliente+"/senas",
		map[string]any{"monto": "20", "moneda": "USD"}, env.token), http.StatusOK, nil)

	var sig struct {
		Numero string `json:"numero"`
	}
	expect(t, do(t, env.server, "GET", "/v1/comandas/siguiente-numero?tipo=ingreso", nil, env.token),
		http.StatusOK, &sig)
	require.NotEmpty(t, sig.Numero)

	body := map[string]any{
		"tipo":           "ingreso",
		"numero":         sig.Numero,
		"unidad_negocio": "tatuajes",
		"cliente_id":     cliente,
		"responsable_id": responsable,
		"items":          []map[string]any{{"nombre": "Tatuaje brazo", "precio": "100", "cantidad": 1}},
		"sena":           map[string]any{"monto": "20", "moneda": "USD"},
		// 80 USD due: 50 USD cash + 30.000 ARS transfer at 1000
		"pagos": []map[string]any{
			{"metodo": "efectivo", "moneda": "USD", "monto": "50"},
			{"metodo": "transferencia", "moneda": "ARS", "monto": "30000"},
		},
	}

	var comanda struct {
		ID           string `json:"id"`
		Unidad       string `json:"unidad"`
		SenaAplicada string `json:"sena_aplicada"`
		TotalAPagar  string `json:"total_a_pagar"`
		Balance      string `json:"balance"`
		Estado       string `json:"estado"`
	}
	expect(t, do(t, env.server, "POST", "/v1/comandas", body, env.token), http.StatusCreated, &comanda)
	assert.Equal(t, "USD", comanda.Unidad)
	assert.True(t, dec(t, comanda.SenaAplicada).Equal(decimal.NewFromInt(20)))
	assert.True(t, dec(t, comanda.TotalAPagar).Equal(decimal.NewFromInt(80)))
	assert.True(t, dec(t, comanda.Balance).IsZero())

	// deposit consumed
	var cli struct {
		SenaUSD string `json:"sena_usd"`
	}
	expect(t, do(t, env.server, "GET", "/v1/clientes/"+cliente, nil, env.token), http.StatusOK, &cli)
	assert.True(t, dec(t, cli.SenaUSD).IsZero())

	// same number again
	expect(t, do(t, env.server, "POST", "/v1/comandas", body, env.token), http.StatusConflict, nil)

	// receipt queued (no workers running in this test)
	expect(t, do(t, env.server, "GET", "/v1/comandas/"+comanda.ID+"/comprobante", nil, env.token),
		http.StatusOK, nil)

	// cancel restores the deposit
	expect(t, do(t, env.server, "DELETE", "/v1/comandas/"+comanda.ID,
		map[string]any{"motivo": "error de carga"}, env.token), http.StatusOK, nil)
	expect(t, do(t, env.server, "GET", "/v1/clientes/"+cliente, nil, env.token), http.StatusOK, &cli)
	assert.True(t, dec(t, cli.SenaUSD).Equal(decimal.NewFromInt(20)))

	// cancelled comandas are hidden by default
	var list struct {
		Total int64 `json:"total"`
	}
	expect(t, do(t, env.server, "GET", "/v1/comandas", nil, env.token), http.StatusOK, &list)
	assert.Equal(t, int64(0), list.Total)
}

func TestE2E_ComandaSinConciliarRechazada(t *testing.T) {
	env := setupTestEnv(t)
	responsable, _ := seedBasico(t, env)

	body := map[string]any{
		"tipo":           "ingreso",
		"numero":         "000001",
		"unidad_negocio": "tatuajes",
		"cliente_nombre": "Cliente de paso",
		"responsable_id": responsable,
		"items":          []map[string]any{{"nombre": "Tatuaje", "precio": "100", "cantidad": 1}},
		"pagos":          []map[string]any{{"metodo": "efectivo", "moneda": "USD", "monto": "90"}},
	}
	expect(t, do(t, env.server, "POST", "/v1/comandas", body, env.token), http.StatusUnprocessableEntity, nil)

	// the calculation preview reports the shortfall
	var des struct {
		Balance   string `json:"balance"`
		Estado    string `json:"estado"`
		Guardable bool   `json:"guardable"`
	}
	expect(t, do(t, env.server, "POST", "/v1/comandas/calcular", map[string]any{
		"tipo":  "ingreso",
		"items": body["items"],
		"pagos": body["pagos"],
	}, env.token), http.StatusOK, &des)
	assert.False(t, des.Guardable)
	assert.True(t, dec(t, des.Balance).Equal(decimal.NewFromInt(-10)))
}

func TestE2E_BorradorHastaGuardar(t *testing.T) {
	env := setupTestEnv(t)
	responsable, cliente := seedBasico(t, env)

	var b struct {
		ID     string `json:"id"`
		Estado string `json:"estado"`
	}
	expect(t, do(t, env.server, "POST", "/v1/borradores", map[string]any{"tipo": "ingreso"}, env.token),
		http.StatusCreated, &b)
	assert.Equal(t, "vacio", b.Estado)

	base := "/v1/borradores/" + b.ID
	expect(t, do(t, env.server, "POST", base+"/items",
		map[string]any{"nombre": "Curso microblading", "precio": "200", "cantidad": 1}, env.token), http.StatusOK, &b)
	assert.Equal(t, "editando", b.Estado)

	expect(t, do(t, env.server, "POST", base+"/pagos",
		map[string]any{"metodo": "efectivo", "moneda": "USD", "monto": "200"}, env.token), http.StatusOK, &b)
	assert.Equal(t, "conciliado", b.Estado)

	var comanda idResp
	expect(t, do(t, env.server, "POST", base+"/guardar", map[string]any{
		"numero":         "F-0001",
		"unidad_negocio": "formacion",
		"cliente_id":     cliente,
		"responsable_id": responsable,
	}, env.token), http.StatusCreated, &comanda)
	require.NotEmpty(t, comanda.ID)

	// the draft is gone once saved
	expect(t, do(t, env.server, "GET", base, nil, env.token), http.StatusNotFound, nil)
	expect(t, do(t, env.server, "GET", "/v1/comandas/"+comanda.ID, nil, env.token), http.StatusOK, nil)
}

func TestE2E_PermisosPorRol(t *testing.T) {
	env := setupTestEnv(t)

	expect(t, do(t, env.server, "POST", "/v1/usuarios", map[string]any{
		"username": "caja1",
		"nombre":   "Cajera Uno",
		"password": "cajero1234",
		"rol":      "cajero",
	}, env.token), http.StatusCreated, nil)
	cajero := env.login(t, "caja1", "cajero1234")

	expect(t, do(t, env.server, "GET", "/v1/comandas", nil, cajero), http.StatusOK, nil)
	expect(t, do(t, env.server, "POST", "/v1/tipo-cambio", map[string]any{"venta": "1"}, cajero), http.StatusForbidden, nil)
	expect(t, do(t, env.server, "GET", "/v1/usuarios", nil, cajero), http.StatusForbidden, nil)
	expect(t, do(t, env.server, "GET", "/v1/comandas", nil, ""), http.StatusUnauthorized, nil)
}

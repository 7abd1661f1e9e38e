package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"merygarcia/internal/apierror"
	"merygarcia/internal/config"
	"merygarcia/internal/dto"
	"merygarcia/internal/infra"
	"merygarcia/internal/middleware"
	"merygarcia/internal/model"
	"merygarcia/internal/repository"
	"merygarcia/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

// Embedding the interface keeps the fakes small; unimplemented methods panic.
type fakeComandaSvc struct {
	service.ComandaService
	err       error
	recibido  *dto.RegistrarComandaRequest
	usuarioID uuid.UUID
}

func (f *fakeComandaSvc) Registrar(_ context.Context, usuarioID uuid.UUID, req dto.RegistrarComandaRequest) (*dto.ComandaResponse, error) {
	f.recibido = &req
	f.usuarioID = usuarioID
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ComandaResponse{ID: uuid.NewString(), Numero: req.Numero, Tipo: req.Tipo, Estado: "registrada"}, nil
}

func (f *fakeComandaSvc) Anular(context.Context, uuid.UUID, string) error { return f.err }

type fakeBorradorSvc struct {
	service.BorradorService
	err error
	idx int
}

func (f *fakeBorradorSvc) EditarItem(_ context.Context, id, _ uuid.UUID, idx int, req dto.ItemComandaRequest) (*dto.BorradorResponse, error) {
	f.idx = idx
	if f.err != nil {
		return nil, f.err
	}
	return &dto.BorradorResponse{ID: id.String(), Estado: "editando", Items: []dto.ItemComandaRequest{req}}, nil
}

func (f *fakeBorradorSvc) Guardar(context.Context, uuid.UUID, uuid.UUID, dto.GuardarBorradorRequest) (*dto.ComandaResponse, error) {
	return nil, f.err
}

type stubUsuarioRepo struct{ users map[string]*model.Usuario }

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	u.ID = uuid.New()
	r.users[u.Username] = u
	return nil
}
func (r *stubUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	u, ok := r.users[username]
	if !ok || !u.Activo {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}
func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *stubUsuarioRepo) List(context.Context) ([]model.Usuario, error)    { return nil, nil }
func (r *stubUsuarioRepo) ListAll(context.Context) ([]model.Usuario, error) { return nil, nil }
func (r *stubUsuarioRepo) Update(context.Context, *model.Usuario) error     { return nil }
func (r *stubUsuarioRepo) SoftDelete(context.Context, uuid.UUID) error      { return nil }
func (r *stubUsuarioRepo) Reactivar(context.Context, uuid.UUID) error       { return nil }

// ── Helpers ───────────────────────────────────────────────────────────────────

const testSecret = "test_jwt_secret_32_chars_minimum!"

func init() { gin.SetMode(gin.TestMode) }

func doJSON(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signToken(t *testing.T, userID, rol string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID, "username": "testuser", "rol": rol,
		"exp": time.Now().Add(time.Hour).Unix(), "iat": time.Now().Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func registrarBody() dto.RegistrarComandaRequest {
	return dto.RegistrarComandaRequest{
		Tipo:          "ingreso",
		Numero:        "ING-00001",
		UnidadNegocio: "tatuajes",
		ClienteNombre: "Lucia",
		ResponsableID: uuid.NewString(),
		Items:         []dto.ItemComandaRequest{{Nombre: "Tatuaje", Precio: decimal.NewFromInt(100), Cantidad: 1}},
		Pagos:         []dto.PagoComandaRequest{{Metodo: "efectivo", Moneda: "USD", Monto: decimal.NewFromInt(100)}},
	}
}

// ── respondError ──────────────────────────────────────────────────────────────

func TestRespondError_Mapeo(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{&service.ValidacionError{Campos: map[string]string{"numero": "requerido"}}, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: balance US$ 10,00", service.ErrConciliacion), http.StatusUnprocessableEntity},
		{service.ErrNumeroDuplicado, http.StatusConflict},
		{fmt.Errorf("borrador enviando: %w", service.ErrEstadoInvalido), http.StatusConflict},
		{fmt.Errorf("%w: provider down", service.ErrTipoCambio), http.StatusServiceUnavailable},
		{fmt.Errorf("comanda x: %w", service.ErrNoEncontrado), http.StatusNotFound},
		{service.ErrCredenciales, http.StatusUnauthorized},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			r := gin.New()
			r.Use(middleware.ErrorHandler())
			r.GET("/", func(c *gin.Context) { respondError(c, tc.err) })
			w := doJSON(r, http.MethodGet, "/", nil, "")
			assert.Equal(t, tc.status, w.Code)
			assert.NotContains(t, w.Body.String(), "pq:", "internals never leak")
		})
	}
}

func TestRespondError_ValidacionConCampos(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		respondError(c, &service.ValidacionError{Campos: map[string]string{"items[0].precio_fijo_ars": "requerido para precio congelado"}})
	})
	w := doJSON(r, http.MethodGet, "/", nil, "")

	var body apierror.ValidationError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "requerido para precio congelado", body.Fields["items[0].precio_fijo_ars"])
}

// ── Comandas ──────────────────────────────────────────────────────────────────

func comandasRouter(svc service.ComandaService) *gin.Engine {
	r := gin.New()
	h := NewComandasHandler(svc, nil)
	v1 := r.Group("/v1", middleware.JWTAuth(testSecret))
	v1.POST("/comandas", h.Registrar)
	v1.DELETE("/comandas/:id", h.Anular)
	return r
}

func TestComandas_Registrar(t *testing.T) {
	svc := &fakeComandaSvc{}
	uid := uuid.New()
	w := doJSON(comandasRouter(svc), http.MethodPost, "/v1/comandas", registrarBody(), signToken(t, uid.String(), "cajero"))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, uid, svc.usuarioID)
	require.NotNil(t, svc.recibido)
	assert.Equal(t, "ING-00001", svc.recibido.Numero)
	assert.Nil(t, svc.recibido.Pagos[0].AjustePct, "omitted ajuste_pct stays nil so the default applies")
}

func TestComandas_RegistrarDTOInvalido(t *testing.T) {
	body := registrarBody()
	body.Items = nil
	body.UnidadNegocio = "caja"
	w := doJSON(comandasRouter(&fakeComandaSvc{}), http.MethodPost, "/v1/comandas", body, signToken(t, uuid.NewString(), "cajero"))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp apierror.ValidationError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "items")
	assert.Contains(t, resp.Fields, "unidad_negocio")
}

func TestComandas_RegistrarErroresDeDominio(t *testing.T) {
	tok := signToken(t, uuid.NewString(), "cajero")

	w := doJSON(comandasRouter(&fakeComandaSvc{err: service.ErrNumeroDuplicado}), http.MethodPost, "/v1/comandas", registrarBody(), tok)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(comandasRouter(&fakeComandaSvc{err: service.ErrTipoCambio}), http.MethodPost, "/v1/comandas", registrarBody(), tok)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestComandas_SinToken(t *testing.T) {
	w := doJSON(comandasRouter(&fakeComandaSvc{}), http.MethodPost, "/v1/comandas", registrarBody(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestComandas_AnularIDInvalido(t *testing.T) {
	tok := signToken(t, uuid.NewString(), "encargado")
	r := comandasRouter(&fakeComandaSvc{})

	w := doJSON(r, http.MethodDelete, "/v1/comandas/no-es-uuid", dto.AnularComandaRequest{Motivo: "cliente cancelo"}, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodDelete, "/v1/comandas/"+uuid.NewString(), dto.AnularComandaRequest{Motivo: "no"}, tok)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(r, http.MethodDelete, "/v1/comandas/"+uuid.NewString(), dto.AnularComandaRequest{Motivo: "cliente cancelo"}, tok)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

// ── Borradores ────────────────────────────────────────────────────────────────

func borradoresRouter(svc service.BorradorService) *gin.Engine {
	r := gin.New()
	h := NewBorradoresHandler(svc)
	r.PUT("/v1/borradores/:id/items/:idx", h.EditarItem)
	r.POST("/v1/borradores/:id/guardar", h.Guardar)
	return r
}

func TestBorradores_EditarItem(t *testing.T) {
	svc := &fakeBorradorSvc{}
	item := dto.ItemComandaRequest{Nombre: "Color", Precio: decimal.NewFromInt(40), Cantidad: 2}
	w := doJSON(borradoresRouter(svc), http.MethodPut, "/v1/borradores/"+uuid.NewString()+"/items/3", item, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, svc.idx)
	var resp dto.BorradorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Color", resp.Items[0].Nombre)

	w = doJSON(borradoresRouter(svc), http.MethodPut, "/v1/borradores/"+uuid.NewString()+"/items/-1", item, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBorradores_GuardarErrores(t *testing.T) {
	body := dto.GuardarBorradorRequest{Numero: "ING-00009", UnidadNegocio: "estilismo", ResponsableID: uuid.NewString()}
	path := "/v1/borradores/" + uuid.NewString() + "/guardar"

	w := doJSON(borradoresRouter(&fakeBorradorSvc{err: fmt.Errorf("borrador enviando: %w", service.ErrEstadoInvalido)}), http.MethodPost, path, body, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(borradoresRouter(&fakeBorradorSvc{err: fmt.Errorf("%w: faltante", service.ErrConciliacion)}), http.MethodPost, path, body, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(borradoresRouter(&fakeBorradorSvc{err: fmt.Errorf("borrador x: %w", service.ErrNoEncontrado)}), http.MethodPost, path, body, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ── Auth ──────────────────────────────────────────────────────────────────────

func authRouter(t *testing.T) *gin.Engine {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubUsuarioRepo{users: map[string]*model.Usuario{
		"mery": {ID: uuid.New(), Username: "mery", Nombre: "Mery", PasswordHash: string(hash), Rol: "administrador", Activo: true},
	}}
	svc := service.NewAuthService(repo, &config.Config{JWTSecret: testSecret, JWTExpirationHours: 8, JWTRefreshHours: 24})

	r := gin.New()
	h := NewAuthHandler(svc)
	r.POST("/v1/auth/login", h.Login)
	r.POST("/v1/auth/refresh", h.Refresh)
	return r
}

func TestLogin_Success(t *testing.T) {
	w := doJSON(authRouter(t), http.MethodPost, "/v1/auth/login", dto.LoginRequest{Username: "mery", Password: "password123"}, "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "administrador", resp.User.Rol)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	w := doJSON(authRouter(t), http.MethodPost, "/v1/auth/login", dto.LoginRequest{Username: "mery", Password: "wrongpass"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(authRouter(t), http.MethodPost, "/v1/auth/login", dto.LoginRequest{Username: "noexiste", Password: "anypass123"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_ShortPassword_Rejected(t *testing.T) {
	w := doJSON(authRouter(t), http.MethodPost, "/v1/auth/login", dto.LoginRequest{Username: "u", Password: "12"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRefresh_Garbage(t *testing.T) {
	w := doJSON(authRouter(t), http.MethodPost, "/v1/auth/refresh", dto.RefreshRequest{RefreshToken: "this.is.garbage"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUsuarios_NoPuedeDesactivarseASiMismo(t *testing.T) {
	uid := uuid.NewString()
	r := gin.New()
	h := NewUsuariosHandler(nil)
	r.DELETE("/v1/usuarios/:id", middleware.JWTAuth(testSecret), middleware.RequireRole(middleware.RolAdministrador), h.Desactivar)

	w := doJSON(r, http.MethodDelete, "/v1/usuarios/"+uid, nil, signToken(t, uid, "administrador"))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodDelete, "/v1/usuarios/"+uid, nil, signToken(t, uid, "cajero"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// ── Health ────────────────────────────────────────────────────────────────────

func TestHealth_SinDependencias(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	r := gin.New()
	r.GET("/health", Health(nil, nil, cb))

	w := doJSON(r, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "error", body["db"])
	assert.Equal(t, "closed", body["dolar_api"])
}

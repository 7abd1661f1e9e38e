package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"merygarcia/internal/borrador"
	"merygarcia/internal/dto"
	"merygarcia/internal/infra"
	"merygarcia/internal/model"
	"merygarcia/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory Repository Stubs ────────────────────────────────────────────────

type stubUsuarioRepo struct {
	users map[string]*model.Usuario
}

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{users: make(map[string]*model.Usuario)}
}

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

func (r *stubUsuarioRepo) List(_ context.Context) ([]model.Usuario, error) {
	users := make([]model.Usuario, 0, len(r.users))
	for _, u := range r.users {
		if u.Activo {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (r *stubUsuarioRepo) ListAll(_ context.Context) ([]model.Usuario, error) {
	users := make([]model.Usuario, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *u)
	}
	return users, nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	r.users[u.Username] = u
	return nil
}

func (r *stubUsuarioRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	return r.setActivo(id, false)
}

func (r *stubUsuarioRepo) Reactivar(_ context.Context, id uuid.UUID) error {
	return r.setActivo(id, true)
}

func (r *stubUsuarioRepo) setActivo(id uuid.UUID, activo bool) error {
	for _, u := range r.users {
		if u.ID == id {
			u.Activo = activo
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// stubComandaRepo is an in-memory ComandaRepository. DB() is nil so runTx
// calls straight through.
type stubComandaRepo struct {
	comandas map[uuid.UUID]*model.Comanda
	failNext error
	// antesDeAnular runs once at the start of AnularTx, standing in for a
	// concurrent request that commits in between.
	antesDeAnular func()
}

var _ repository.ComandaRepository = (*stubComandaRepo)(nil)

func newStubComandaRepo() *stubComandaRepo {
	return &stubComandaRepo{comandas: make(map[uuid.UUID]*model.Comanda)}
}

func (r *stubComandaRepo) Create(_ context.Context, _ *gorm.DB, c *model.Comanda) error {
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	r.comandas[c.ID] = c
	return nil
}

func (r *stubComandaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Comanda, error) {
	c, ok := r.comandas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubComandaRepo) ExisteNumero(_ context.Context, tipo, numero string) (bool, error) {
	for _, c := range r.comandas {
		if c.Tipo == tipo && c.Numero == numero {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubComandaRepo) MaxSecuencia(_ context.Context, tipo, prefijo string) (int, error) {
	max := 0
	for _, c := range r.comandas {
		if c.Tipo != tipo || !strings.HasPrefix(c.Numero, prefijo) {
			continue
		}
		var n int
		for _, ch := range strings.TrimPrefix(c.Numero, prefijo) {
			if ch < '0' || ch > '9' {
				n = 0
				break
			}
			n = n*10 + int(ch-'0')
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}

func (r *stubComandaRepo) List(_ context.Context, f dto.ComandaFilter) ([]model.Comanda, int64, error) {
	var out []model.Comanda
	for _, c := range r.comandas {
		if f.Tipo != "" && c.Tipo != f.Tipo {
			continue
		}
		if f.Estado != "all" && c.Estado != f.Estado {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Numero < out[j].Numero })
	return out, int64(len(out)), nil
}

func (r *stubComandaRepo) AnularTx(_ context.Context, _ *gorm.DB, id uuid.UUID, motivo string) error {
	if hook := r.antesDeAnular; hook != nil {
		r.antesDeAnular = nil
		hook()
	}
	c, ok := r.comandas[id]
	if !ok || c.Estado == "anulada" {
		return repository.ErrComandaYaAnulada
	}
	c.Estado = "anulada"
	c.MotivoAnulacion = &motivo
	return nil
}

func (r *stubComandaRepo) DB() *gorm.DB { return nil }

type stubClienteRepo struct {
	clientes   map[uuid.UUID]*model.Cliente
	bloqueados []uuid.UUID // ids passed to FindByIDForUpdateTx
}

var _ repository.ClienteRepository = (*stubClienteRepo)(nil)

func newStubClienteRepo() *stubClienteRepo {
	return &stubClienteRepo{clientes: make(map[uuid.UUID]*model.Cliente)}
}

func (r *stubClienteRepo) add(nombre string, senaARS, senaUSD int64) *model.Cliente {
	c := &model.Cliente{ID: uuid.New(), Nombre: nombre, SenaARS: decimal.NewFromInt(senaARS), SenaUSD: decimal.NewFromInt(senaUSD), Activo: true}
	r.clientes[c.ID] = c
	return c
}

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clientes[c.ID] = c
	return nil
}

func (r *stubClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubClienteRepo) FindByIDForUpdateTx(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.Cliente, error) {
	r.bloqueados = append(r.bloqueados, id)
	return r.FindByID(ctx, id)
}

func (r *stubClienteRepo) List(_ context.Context, f dto.ClienteFilter) ([]model.Cliente, int64, error) {
	var out []model.Cliente
	for _, c := range r.clientes {
		if c.Activo && strings.Contains(strings.ToLower(c.Nombre), strings.ToLower(f.Nombre)) {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	r.clientes[c.ID] = c
	return nil
}

func (r *stubClienteRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	c, ok := r.clientes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Activo = false
	return nil
}

func (r *stubClienteRepo) AjustarSenaTx(_ context.Context, _ *gorm.DB, id uuid.UUID, moneda string, delta decimal.Decimal) error {
	c, ok := r.clientes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	saldo := &c.SenaARS
	if moneda == "USD" {
		saldo = &c.SenaUSD
	}
	if saldo.Add(delta).IsNegative() {
		return repository.ErrSaldoInsuficiente
	}
	*saldo = saldo.Add(delta)
	return nil
}

type stubProductoRepo struct {
	productos map[uuid.UUID]*model.Producto
}

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
}

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.productos[p.ID] = p
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductoRepo) List(_ context.Context, f dto.ProductoFilter) ([]model.Producto, int64, error) {
	var out []model.Producto
	for _, p := range r.productos {
		if !p.Activo {
			continue
		}
		if f.UnidadNegocio != "" && p.UnidadNegocio != f.UnidadNegocio {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductoRepo) Update(_ context.Context, p *model.Producto) error {
	r.productos[p.ID] = p
	return nil
}

func (r *stubProductoRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := r.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Activo = false
	return nil
}

type stubPersonalRepo struct {
	personal map[uuid.UUID]*model.Personal
}

var _ repository.PersonalRepository = (*stubPersonalRepo)(nil)

func newStubPersonalRepo() *stubPersonalRepo {
	return &stubPersonalRepo{personal: make(map[uuid.UUID]*model.Personal)}
}

func (r *stubPersonalRepo) add(nombre, unidad string) *model.Personal {
	p := &model.Personal{ID: uuid.New(), Nombre: nombre, UnidadNegocio: unidad, Activo: true}
	r.personal[p.ID] = p
	return p
}

func (r *stubPersonalRepo) Create(_ context.Context, p *model.Personal) error {
	r.personal[p.ID] = p
	return nil
}

func (r *stubPersonalRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Personal, error) {
	p, ok := r.personal[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubPersonalRepo) List(_ context.Context, unidad string) ([]model.Personal, error) {
	var out []model.Personal
	for _, p := range r.personal {
		if p.Activo && (unidad == "" || p.UnidadNegocio == unidad) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubPersonalRepo) SetActivo(_ context.Context, id uuid.UUID, activo bool) error {
	p, ok := r.personal[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Activo = activo
	return nil
}

type stubComprobanteRepo struct {
	porComanda map[uuid.UUID]*model.Comprobante
}

var _ repository.ComprobanteRepository = (*stubComprobanteRepo)(nil)

func newStubComprobanteRepo() *stubComprobanteRepo {
	return &stubComprobanteRepo{porComanda: make(map[uuid.UUID]*model.Comprobante)}
}

func (r *stubComprobanteRepo) CreateTx(_ context.Context, _ *gorm.DB, c *model.Comprobante) error {
	r.porComanda[c.ComandaID] = c
	return nil
}

func (r *stubComprobanteRepo) FindByComandaID(_ context.Context, id uuid.UUID) (*model.Comprobante, error) {
	c, ok := r.porComanda[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubComprobanteRepo) Update(_ context.Context, c *model.Comprobante) error {
	r.porComanda[c.ComandaID] = c
	return nil
}

func (r *stubComprobanteRepo) ListParaReintento(context.Context, time.Time, int) ([]model.Comprobante, error) {
	return nil, nil
}

type stubTipoCambioRepo struct {
	rows []model.TipoCambio
}

var _ repository.TipoCambioRepository = (*stubTipoCambioRepo)(nil)

func (r *stubTipoCambioRepo) Create(_ context.Context, tc *model.TipoCambio) error {
	r.rows = append(r.rows, *tc)
	return nil
}

func (r *stubTipoCambioRepo) Ultimo(_ context.Context) (*model.TipoCambio, error) {
	if len(r.rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	tc := r.rows[len(r.rows)-1]
	return &tc, nil
}

func (r *stubTipoCambioRepo) Historial(_ context.Context, limit int) ([]model.TipoCambio, error) {
	out := make([]model.TipoCambio, 0, limit)
	for i := len(r.rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.rows[i])
	}
	return out, nil
}

// stubBorradorRepo round-trips through JSON like the Redis store does.
type stubBorradorRepo struct {
	data map[uuid.UUID][]byte
}

var _ repository.BorradorRepository = (*stubBorradorRepo)(nil)

func newStubBorradorRepo() *stubBorradorRepo {
	return &stubBorradorRepo{data: make(map[uuid.UUID][]byte)}
}

func (r *stubBorradorRepo) Save(_ context.Context, b *borrador.Borrador) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	r.data[b.ID] = raw
	return nil
}

func (r *stubBorradorRepo) Find(_ context.Context, id uuid.UUID) (*borrador.Borrador, error) {
	raw, ok := r.data[id]
	if !ok {
		return nil, repository.ErrBorradorNoEncontrado
	}
	var b borrador.Borrador
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *stubBorradorRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.data, id)
	return nil
}

// ── Collaborator fakes ────────────────────────────────────────────────────────

type fakeCotizador struct {
	venta   decimal.Decimal
	err     error
	llamado int
}

func (f *fakeCotizador) Cotizacion(context.Context) (*infra.Cotizacion, error) {
	f.llamado++
	if f.err != nil {
		return nil, f.err
	}
	return &infra.Cotizacion{Venta: f.venta, Compra: f.venta.Sub(decimal.NewFromInt(20)), Casa: "blue", FechaActualizacion: time.Now()}, nil
}

// tasaFija is a TipoCambioService that always answers the same snapshot.
type tasaFija struct {
	venta   decimal.Decimal
	vigente bool
	err     error
}

func (t tasaFija) Actual(context.Context) (*dto.TipoCambioResponse, error) {
	if t.err != nil {
		return nil, t.err
	}
	return &dto.TipoCambioResponse{Venta: t.venta, Compra: t.venta, Fuente: "manual", Vigente: t.vigente}, nil
}
func (t tasaFija) Refrescar(context.Context) error { return nil }
func (t tasaFija) EstablecerManual(context.Context, uuid.UUID, dto.EstablecerTipoCambioRequest) (*dto.TipoCambioResponse, error) {
	return nil, errors.New("not supported")
}
func (t tasaFija) Historial(context.Context, int) ([]dto.TipoCambioResponse, error) { return nil, nil }

type fakeQueue struct {
	encolados []uuid.UUID
	err       error
}

func (q *fakeQueue) EnqueueComprobante(_ context.Context, id uuid.UUID) error {
	if q.err != nil {
		return q.err
	}
	q.encolados = append(q.encolados, id)
	return nil
}

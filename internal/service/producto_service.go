package service

import (
	"context"
	"strings"

	"merygarcia/internal/dto"
	"merygarcia/internal/model"
	"merygarcia/internal/moneda"
	"merygarcia/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductoService defines the business logic contract for catalog products.
type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
}

type productoService struct {
	repo       repository.ProductoRepository
	tipoCambio TipoCambioService // optional, only for PrecioTexto
}

func NewProductoService(repo repository.ProductoRepository, tipoCambio TipoCambioService) ProductoService {
	return &productoService{repo: repo, tipoCambio: tipoCambio}
}

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	p := &model.Producto{
		ID:                uuid.New(),
		Nombre:            strings.TrimSpace(req.Nombre),
		Descripcion:       req.Descripcion,
		UnidadNegocio:     req.UnidadNegocio,
		Precio:            req.Precio,
		EsPrecioCongelado: req.EsPrecioCongelado,
		PrecioFijoARS:     req.PrecioFijoARS,
		Activo:            true,
	}
	if err := validarProducto(p); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return productoToResponse(p, s.conversor(ctx)), nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "producto")
	}
	return productoToResponse(p, s.conversor(ctx)), nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	productos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	conv := s.conversor(ctx)
	data := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		data = append(data, *productoToResponse(&productos[i], conv))
	}
	totalPages := int(total) / filter.Limit
	if int(total)%filter.Limit != 0 {
		totalPages++
	}
	return &dto.ProductoListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "producto")
	}
	if req.Nombre != nil {
		p.Nombre = strings.TrimSpace(*req.Nombre)
	}
	if req.Descripcion != nil {
		p.Descripcion = req.Descripcion
	}
	if req.UnidadNegocio != nil {
		p.UnidadNegocio = *req.UnidadNegocio
	}
	if req.Precio != nil {
		p.Precio = *req.Precio
	}
	if req.EsPrecioCongelado != nil {
		p.EsPrecioCongelado = *req.EsPrecioCongelado
	}
	if req.PrecioFijoARS != nil {
		p.PrecioFijoARS = req.PrecioFijoARS
	}
	if err := validarProducto(p); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return productoToResponse(p, s.conversor(ctx)), nil
}

func (s *productoService) Desactivar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return noEncontrado(err, "producto")
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *productoService) conversor(ctx context.Context) moneda.Conversor {
	if s.tipoCambio == nil {
		return moneda.Conversor{}
	}
	tc, err := s.tipoCambio.Actual(ctx)
	if err != nil {
		return moneda.Conversor{}
	}
	return moneda.NewConversor(tc.Venta)
}

// A frozen product must carry its ARS price.
func validarProducto(p *model.Producto) error {
	campos := map[string]string{}
	if p.Nombre == "" {
		campos["nombre"] = "requerido"
	}
	if p.Precio.IsNegative() {
		campos["precio"] = "no puede ser negativo"
	}
	if p.EsPrecioCongelado && (p.PrecioFijoARS == nil || !p.PrecioFijoARS.IsPositive()) {
		campos["precio_fijo_ars"] = "requerido para precio congelado"
	}
	return validacion(campos)
}

func productoToResponse(p *model.Producto, conv moneda.Conversor) *dto.ProductoResponse {
	texto := conv.FormatDual(p.Precio)
	if p.EsPrecioCongelado && p.PrecioFijoARS != nil {
		texto = moneda.FormatARS(*p.PrecioFijoARS)
	}
	var fijo *decimal.Decimal
	if p.PrecioFijoARS != nil {
		v := *p.PrecioFijoARS
		fijo = &v
	}
	return &dto.ProductoResponse{
		ID:                p.ID.String(),
		Nombre:            p.Nombre,
		Descripcion:       p.Descripcion,
		UnidadNegocio:     p.UnidadNegocio,
		Precio:            p.Precio,
		EsPrecioCongelado: p.EsPrecioCongelado,
		PrecioFijoARS:     fijo,
		PrecioTexto:       texto,
		Activo:            p.Activo,
	}
}

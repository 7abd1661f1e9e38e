// Package borrador models a comanda while it is being entered: the editable
// inputs, the exchange-rate snapshot taken when the form opened, and the
// session state machine
//
//	vacio ⇄ editando ⇄ conciliado → enviando → guardado
//	                                     ↓
//	                           (fallo) editando | conciliado
//
// Every mutation re-runs calculo.Calcular in full.
package borrador

import (
	"errors"
	"fmt"
	"time"

	"merygarcia/internal/calculo"
	"merygarcia/internal/moneda"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Estado string

const (
	Vacio      Estado = "vacio"
	Editando   Estado = "editando"
	Conciliado Estado = "conciliado"
	Enviando   Estado = "enviando"
	Guardado   Estado = "guardado"
)

var (
	ErrTransicionInvalida = errors.New("operacion no permitida en el estado actual del borrador")
	ErrIndiceInvalido     = errors.New("indice fuera de rango")
)

// Linea is a stored line item. PrecioFijoARS selects the tag of the
// calculo.Item built from it.
type Linea struct {
	ProductoID    *uuid.UUID      `json:"producto_id,omitempty"`
	Nombre        string          `json:"nombre"`
	Precio        decimal.Decimal `json:"precio"`
	Cantidad      int             `json:"cantidad"`
	DescuentoPct  decimal.Decimal `json:"descuento_pct"`
	PrecioFijoARS bool            `json:"precio_fijo_ars"`
}

func (l Linea) Item() calculo.Item {
	if l.PrecioFijoARS {
		return calculo.NuevoItemPrecioFijo(l.Nombre, l.Precio, l.Cantidad, l.DescuentoPct)
	}
	return calculo.NuevoItem(l.Nombre, l.Precio, l.Cantidad, l.DescuentoPct)
}

type Pago struct {
	Metodo    calculo.MetodoPago `json:"metodo"`
	Moneda    moneda.Moneda      `json:"moneda"`
	Monto     decimal.Decimal    `json:"monto"`
	AjustePct decimal.Decimal    `json:"ajuste_pct"`
}

type Sena struct {
	ClienteID uuid.UUID       `json:"cliente_id"`
	Monto     decimal.Decimal `json:"monto"`
	Moneda    moneda.Moneda   `json:"moneda"`
}

// Borrador is owned by exactly one form session; it is never shared.
type Borrador struct {
	ID         uuid.UUID               `json:"id"`
	UsuarioID  uuid.UUID               `json:"usuario_id"`
	Tipo       calculo.TipoTransaccion `json:"tipo"`
	TipoCambio decimal.Decimal         `json:"tipo_cambio"`
	// TipoCambioVigente is false when the frozen rate was already stale
	// (or missing) at creation.
	TipoCambioVigente bool      `json:"tipo_cambio_vigente"`
	Estado            Estado    `json:"estado"`
	Lineas            []Linea   `json:"lineas"`
	Pagos             []Pago    `json:"pagos"`
	Sena              *Sena     `json:"sena,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Nuevo opens an empty draft. tipoCambio is frozen for the whole session.
func Nuevo(usuarioID uuid.UUID, tipo calculo.TipoTransaccion, tipoCambio decimal.Decimal, ahora time.Time) *Borrador {
	return &Borrador{
		ID:         uuid.New(),
		UsuarioID:  usuarioID,
		Tipo:       tipo,
		TipoCambio: tipoCambio,
		Estado:     Vacio,
		Lineas:     []Linea{},
		Pagos:      []Pago{},
		CreatedAt:  ahora,
		UpdatedAt:  ahora,
	}
}

// Transaccion is the engine input for the current contents.
func (b *Borrador) Transaccion() calculo.Transaccion {
	t := calculo.Transaccion{
		Tipo:       b.Tipo,
		TipoCambio: b.TipoCambio,
		Items:      make([]calculo.Item, 0, len(b.Lineas)),
		Pagos:      make([]calculo.Pago, 0, len(b.Pagos)),
	}
	for _, l := range b.Lineas {
		t.Items = append(t.Items, l.Item())
	}
	for _, p := range b.Pagos {
		t.Pagos = append(t.Pagos, calculo.Pago{Metodo: p.Metodo, Moneda: p.Moneda, Monto: p.Monto, AjustePct: p.AjustePct})
	}
	if b.Sena != nil {
		t.Sena = &calculo.Sena{Monto: b.Sena.Monto, Moneda: b.Sena.Moneda}
	}
	return t
}

func (b *Borrador) Calcular() calculo.Desglose {
	return calculo.Calcular(b.Transaccion())
}

// ── Mutations ─────────────────────────────────────────────────────────────────

func (b *Borrador) AgregarItem(l Linea) error {
	return b.mutar(func() error {
		b.Lineas = append(b.Lineas, l)
		return nil
	})
}

func (b *Borrador) EditarItem(idx int, l Linea) error {
	return b.mutar(func() error {
		if idx < 0 || idx >= len(b.Lineas) {
			return fmt.Errorf("linea %d: %w", idx, ErrIndiceInvalido)
		}
		b.Lineas[idx] = l
		return nil
	})
}

func (b *Borrador) QuitarItem(idx int) error {
	return b.mutar(func() error {
		if idx < 0 || idx >= len(b.Lineas) {
			return fmt.Errorf("linea %d: %w", idx, ErrIndiceInvalido)
		}
		b.Lineas = append(b.Lineas[:idx], b.Lineas[idx+1:]...)
		return nil
	})
}

func (b *Borrador) AgregarPago(p Pago) error {
	return b.mutar(func() error {
		b.Pagos = append(b.Pagos, p)
		return nil
	})
}

func (b *Borrador) EditarPago(idx int, p Pago) error {
	return b.mutar(func() error {
		if idx < 0 || idx >= len(b.Pagos) {
			return fmt.Errorf("pago %d: %w", idx, ErrIndiceInvalido)
		}
		b.Pagos[idx] = p
		return nil
	})
}

func (b *Borrador) QuitarPago(idx int) error {
	return b.mutar(func() error {
		if idx < 0 || idx >= len(b.Pagos) {
			return fmt.Errorf("pago %d: %w", idx, ErrIndiceInvalido)
		}
		b.Pagos = append(b.Pagos[:idx], b.Pagos[idx+1:]...)
		return nil
	})
}

// AplicarSena replaces any deposit already applied; at most one is active.
func (b *Borrador) AplicarSena(s Sena) error {
	return b.mutar(func() error {
		b.Sena = &s
		return nil
	})
}

func (b *Borrador) QuitarSena() error {
	return b.mutar(func() error {
		b.Sena = nil
		return nil
	})
}

// ── Submission ────────────────────────────────────────────────────────────────

// IniciarEnvio moves the draft to enviando when its breakdown is saveable.
func (b *Borrador) IniciarEnvio(permitirSobrepago bool) error {
	if !b.editable() || len(b.Lineas) == 0 {
		return ErrTransicionInvalida
	}
	if !b.Calcular().Guardable(permitirSobrepago) {
		return fmt.Errorf("borrador sin conciliar: %w", ErrTransicionInvalida)
	}
	b.Estado = Enviando
	return nil
}

// FallarEnvio returns a draft whose save failed to its editable state.
func (b *Borrador) FallarEnvio() error {
	if b.Estado != Enviando {
		return ErrTransicionInvalida
	}
	b.Estado = b.estadoDerivado()
	return nil
}

func (b *Borrador) MarcarGuardado() error {
	if b.Estado != Enviando {
		return ErrTransicionInvalida
	}
	b.Estado = Guardado
	return nil
}

func (b *Borrador) editable() bool {
	switch b.Estado {
	case Vacio, Editando, Conciliado:
		return true
	default:
		return false
	}
}

func (b *Borrador) mutar(fn func() error) error {
	if !b.editable() {
		return ErrTransicionInvalida
	}
	if err := fn(); err != nil {
		return err
	}
	b.Estado = b.estadoDerivado()
	return nil
}

func (b *Borrador) estadoDerivado() Estado {
	if len(b.Lineas) == 0 && len(b.Pagos) == 0 && b.Sena == nil {
		return Vacio
	}
	if len(b.Lineas) > 0 && b.Calcular().Conciliado() {
		return Conciliado
	}
	return Editando
}

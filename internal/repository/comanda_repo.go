package repository

import (
	"context"
	"errors"

	"merygarcia/internal/dto"
	"merygarcia/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ComandaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, c *model.Comanda) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Comanda, error)
	ExisteNumero(ctx context.Context, tipo, numero string) (bool, error)
	// MaxSecuencia returns the highest trailing number among comandas of tipo
	// whose numero starts with prefijo, or 0.
	MaxSecuencia(ctx context.Context, tipo, prefijo string) (int, error)
	List(ctx context.Context, filter dto.ComandaFilter) ([]model.Comanda, int64, error)
	// AnularTx returns ErrComandaYaAnulada when another cancellation got there first.
	AnularTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, motivo string) error
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

var ErrComandaYaAnulada = errors.New("comanda ya anulada")

type comandaRepo struct{ db *gorm.DB }

func NewComandaRepository(db *gorm.DB) ComandaRepository { return &comandaRepo{db: db} }

func (r *comandaRepo) DB() *gorm.DB { return r.db }

func (r *comandaRepo) Create(ctx context.Context, tx *gorm.DB, c *model.Comanda) error {
	return tx.WithContext(ctx).Create(c).Error
}

func (r *comandaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Comanda, error) {
	var c model.Comanda
	err := r.db.WithContext(ctx).Preload("Items").Preload("Pagos").Preload("Cliente").First(&c, id).Error
	return &c, err
}

func (r *comandaRepo) ExisteNumero(ctx context.Context, tipo, numero string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Comanda{}).
		Where("tipo = ? AND numero = ?", tipo, numero).
		Count(&n).Error
	return n > 0, err
}

func (r *comandaRepo) MaxSecuencia(ctx context.Context, tipo, prefijo string) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(CAST(SUBSTRING(numero FROM '[0-9]+$') AS INTEGER)), 0)
		   FROM comandas
		  WHERE tipo = ? AND numero LIKE ?`, tipo, prefijo+"%").
		Scan(&max).Error
	return max, err
}

func (r *comandaRepo) List(ctx context.Context, filter dto.ComandaFilter) ([]model.Comanda, int64, error) {
	var comandas []model.Comanda
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Comanda{})

	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}
	if filter.UnidadNegocio != "" {
		q = q.Where("unidad_negocio = ?", filter.UnidadNegocio)
	}
	if filter.ClienteID != "" {
		q = q.Where("cliente_id = ?", filter.ClienteID)
	}
	if filter.Desde != "" {
		q = q.Where("DATE(fecha) >= ?", filter.Desde)
	}
	if filter.Hasta != "" {
		q = q.Where("DATE(fecha) <= ?", filter.Hasta)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").Preload("Pagos").
		Order("fecha DESC, created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&comandas).Error

	return comandas, total, err
}

func (r *comandaRepo) AnularTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, motivo string) error {
	res := tx.WithContext(ctx).Model(&model.Comanda{}).
		Where("id = ? AND estado <> ?", id, "anulada").
		Updates(map[string]interface{}{"estado": "anulada", "motivo_anulacion": motivo})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrComandaYaAnulada
	}
	return nil
}

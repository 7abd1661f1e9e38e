package repository

import (
	"context"

	"merygarcia/internal/model"

	"gorm.io/gorm"
)

// TipoCambioRepository persists observed quotes. Rows are append-only.
type TipoCambioRepository interface {
	Create(ctx context.Context, tc *model.TipoCambio) error
	Ultimo(ctx context.Context) (*model.TipoCambio, error)
	Historial(ctx context.Context, limit int) ([]model.TipoCambio, error)
}

type tipoCambioRepo struct{ db *gorm.DB }

func NewTipoCambioRepository(db *gorm.DB) TipoCambioRepository { return &tipoCambioRepo{db: db} }

func (r *tipoCambioRepo) Create(ctx context.Context, tc *model.TipoCambio) error {
	return r.db.WithContext(ctx).Create(tc).Error
}

func (r *tipoCambioRepo) Ultimo(ctx context.Context) (*model.TipoCambio, error) {
	var tc model.TipoCambio
	err := r.db.WithContext(ctx).Order("valid_at DESC, created_at DESC").First(&tc).Error
	return &tc, err
}

func (r *tipoCambioRepo) Historial(ctx context.Context, limit int) ([]model.TipoCambio, error) {
	var out []model.TipoCambio
	err := r.db.WithContext(ctx).Order("valid_at DESC, created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

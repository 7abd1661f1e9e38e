package repository

import (
	"context"
	"time"

	"merygarcia/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ComprobanteRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, c *model.Comprobante) error
	FindByComandaID(ctx context.Context, comandaID uuid.UUID) (*model.Comprobante, error)
	Update(ctx context.Context, c *model.Comprobante) error
	// ListParaReintento returns failed receipts whose next retry is due.
	ListParaReintento(ctx context.Context, ahora time.Time, maxIntentos int) ([]model.Comprobante, error)
}

type comprobanteRepo struct{ db *gorm.DB }

func NewComprobanteRepository(db *gorm.DB) ComprobanteRepository {
	return &comprobanteRepo{db: db}
}

func (r *comprobanteRepo) CreateTx(ctx context.Context, tx *gorm.DB, c *model.Comprobante) error {
	return tx.WithContext(ctx).Create(c).Error
}

func (r *comprobanteRepo) FindByComandaID(ctx context.Context, comandaID uuid.UUID) (*model.Comprobante, error) {
	var c model.Comprobante
	err := r.db.WithContext(ctx).Where("comanda_id = ?", comandaID).First(&c).Error
	return &c, err
}

func (r *comprobanteRepo) Update(ctx context.Context, c *model.Comprobante) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *comprobanteRepo) ListParaReintento(ctx context.Context, ahora time.Time, maxIntentos int) ([]model.Comprobante, error) {
	var out []model.Comprobante
	err := r.db.WithContext(ctx).
		Where("estado = 'error' AND retry_count < ? AND (next_retry_at IS NULL OR next_retry_at <= ?)", maxIntentos, ahora).
		Order("created_at ASC").
		Limit(50).
		Find(&out).Error
	return out, err
}

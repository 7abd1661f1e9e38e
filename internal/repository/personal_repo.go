package repository

import (
	"context"

	"merygarcia/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PersonalRepository interface {
	Create(ctx context.Context, p *model.Personal) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Personal, error)
	List(ctx context.Context, unidadNegocio string) ([]model.Personal, error)
	SetActivo(ctx context.Context, id uuid.UUID, activo bool) error
}

type personalRepo struct{ db *gorm.DB }

func NewPersonalRepository(db *gorm.DB) PersonalRepository { return &personalRepo{db: db} }

func (r *personalRepo) Create(ctx context.Context, p *model.Personal) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *personalRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Personal, error) {
	var p model.Personal
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *personalRepo) List(ctx context.Context, unidadNegocio string) ([]model.Personal, error) {
	var out []model.Personal
	q := r.db.WithContext(ctx).Where("activo = true")
	if unidadNegocio != "" {
		q = q.Where("unidad_negocio = ?", unidadNegocio)
	}
	err := q.Order("nombre ASC").Find(&out).Error
	return out, err
}

func (r *personalRepo) SetActivo(ctx context.Context, id uuid.UUID, activo bool) error {
	return r.db.WithContext(ctx).Model(&model.Personal{}).Where("id = ?", id).Update("activo", activo).Error
}

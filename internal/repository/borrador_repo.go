package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"merygarcia/internal/borrador"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrBorradorNoEncontrado = errors.New("borrador no encontrado o expirado")

// BorradorRepository keeps draft sessions in Redis as JSON under
// "borrador:<id>". Every Save refreshes the TTL.
type BorradorRepository interface {
	Save(ctx context.Context, b *borrador.Borrador) error
	Find(ctx context.Context, id uuid.UUID) (*borrador.Borrador, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type borradorRepo struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewBorradorRepository(rdb *redis.Client, ttl time.Duration) BorradorRepository {
	return &borradorRepo{rdb: rdb, ttl: ttl}
}

func borradorKey(id uuid.UUID) string { return "borrador:" + id.String() }

func (r *borradorRepo) Save(ctx context.Context, b *borrador.Borrador) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, borradorKey(b.ID), data, r.ttl).Err()
}

func (r *borradorRepo) Find(ctx context.Context, id uuid.UUID) (*borrador.Borrador, error) {
	data, err := r.rdb.Get(ctx, borradorKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrBorradorNoEncontrado
	}
	if err != nil {
		return nil, err
	}
	var b borrador.Borrador
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *borradorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.rdb.Del(ctx, borradorKey(id)).Err()
}

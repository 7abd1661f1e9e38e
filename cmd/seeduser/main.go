// cmd/seeduser/main.go: crea/actualiza el usuario administrador inicial.
// Uso: go run ./cmd/seeduser -username admin -password secreto123
package main

import (
	"context"
	"flag"
	"os"

	"merygarcia/internal/config"
	"merygarcia/internal/infra"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	username := flag.String("username", "admin", "nombre de usuario")
	password := flag.String("password", "", "contraseña (mínimo 8 caracteres)")
	nombre := flag.String("nombre", "Administración", "nombre visible")
	flag.Parse()

	if len(*password) < 8 {
		log.Fatal().Msg("-password es obligatorio y debe tener al menos 8 caracteres")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt error")
	}

	// NewDatabase also runs migrations, so the usuarios table exists on a fresh DB.
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect error")
	}

	result := db.WithContext(context.Background()).Exec(`
		INSERT INTO usuarios (username, nombre, password_hash, rol, activo, created_at, updated_at)
		VALUES (?, ?, ?, 'administrador', true, NOW(), NOW())
		ON CONFLICT (username) DO UPDATE
		SET password_hash = EXCLUDED.password_hash,
		    nombre = EXCLUDED.nombre,
		    rol = EXCLUDED.rol,
		    activo = true,
		    updated_at = NOW()
	`, *username, *nombre, string(hash))
	if result.Error != nil {
		log.Fatal().Err(result.Error).Msg("insert error")
	}
	log.Info().Str("username", *username).Msg("usuario administrador creado/actualizado")
}

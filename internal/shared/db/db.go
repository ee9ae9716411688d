package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrConflict marca violação de unicidade (código 23505 do Postgres).
// Conflitos são parte do contrato de escrita das tabelas de odds: quem
// chama decide absorver ou propagar, sem inspecionar texto de mensagem.
var ErrConflict = errors.New("unique constraint conflict")

func ConnectPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// ClassifyError traduz erros do driver para a taxonomia do core.
// Violações de unicidade viram ErrConflict (embrulhado, preservando a causa);
// qualquer outro erro passa intocado.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
	}
	return err
}

// IsConflict informa se o erro pertence à classe de conflito de unicidade
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

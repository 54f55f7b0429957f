package maintenance

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// ResetStatement restarts the users id sequence in PostgreSQL.
const ResetStatement = "ALTER SEQUENCE users_id_seq RESTART WITH 1"

// SequenceResetter is the API call that restarts the users id sequence.
type SequenceResetter interface {
	ResetSequence(ctx context.Context) error
}

// Result tells how the sequence was reset, if at all.
type Result struct {
	ViaAPI      bool
	ViaDatabase bool
	APIErr      error
}

// Reset asks the API to restart the sequence. When that fails and dsn is
// set, it runs the statement directly against PostgreSQL.
func Reset(ctx context.Context, api SequenceResetter, dsn string, log logrus.FieldLogger) (Result, error) {
	err := api.ResetSequence(ctx)
	if err == nil {
		return Result{ViaAPI: true}, nil
	}

	res := Result{APIErr: err}
	log.WithError(err).Warn("reset-sequence through the API failed")
	if dsn == "" {
		return res, fmt.Errorf("reset sequence: %w", err)
	}

	if dbErr := resetDirect(ctx, dsn); dbErr != nil {
		return res, fmt.Errorf("reset sequence directly: %w", dbErr)
	}
	res.ViaDatabase = true
	return res, nil
}

func resetDirect(ctx context.Context, dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, ResetStatement)
	return err
}

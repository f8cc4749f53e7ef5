package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"

	"donelog/internal/task"
)

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func TestScanOneMapsWrappedNoRows(t *testing.T) {
	var s Store
	_, err := s.scanOne(errRow{err: fmt.Errorf("query: %w", pgx.ErrNoRows)}, "abc", "get")
	var nf task.NotFoundError
	if !errors.As(err, &nf) || nf.ID != "abc" {
		t.Fatalf("scanOne err = %v, want NotFoundError{abc}", err)
	}
}

func TestScanOneNamesStatement(t *testing.T) {
	var s Store
	boom := errors.New("boom")
	for _, op := range []string{"get", "update"} {
		_, err := s.scanOne(errRow{err: boom}, "abc", op)
		if !errors.Is(err, boom) || !strings.HasPrefix(err.Error(), op+" task abc") {
			t.Errorf("scanOne(%s) err = %v", op, err)
		}
	}
}

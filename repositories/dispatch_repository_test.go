package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

type stubResult struct {
	rows int64
	err  error
}

func (r stubResult) LastInsertId() (int64, error) { return 0, nil }
func (r stubResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestClaimErrorsMapToRaceSentinels(t *testing.T) {
	repo := &postgresDispatchRepository{}
	tests := []struct {
		name string
		err  *pq.Error
		want error
	}{
		{"match already on another court", &pq.Error{Code: "23505", Constraint: "courts_current_match_id_key"}, ErrMatchTaken},
		{"court already holds an active match", &pq.Error{Code: "23505", Constraint: "matches_active_court_key"}, ErrCourtTaken},
		{"serialization failure", &pq.Error{Code: "40001"}, ErrCourtTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repo.handleClaimError(fmt.Errorf("failed to claim court c1: %w", tt.err))
			if !errors.Is(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}

	other := fmt.Errorf("failed to claim court c1: %w", &pq.Error{Code: "08006"})
	if got := repo.handleClaimError(other); got != other {
		t.Fatalf("unrelated errors must pass through, got %v", got)
	}
}

func TestCheckAffectedRows(t *testing.T) {
	if err := checkAffectedRows(stubResult{rows: 0}, ErrCourtTaken); !errors.Is(err, ErrCourtTaken) {
		t.Fatalf("no rows: got %v", err)
	}
	if err := checkAffectedRows(stubResult{rows: 1}, ErrCourtTaken); err != nil {
		t.Fatalf("one row: got %v", err)
	}
	driverErr := errors.New("driver does not support RowsAffected")
	if err := checkAffectedRows(stubResult{err: driverErr}, ErrMatchTaken); !errors.Is(err, driverErr) || errors.Is(err, ErrMatchTaken) {
		t.Fatalf("driver error: got %v", err)
	}
}

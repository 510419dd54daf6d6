package alumni

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/khanghh/alumnet/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockService(t *testing.T) (*AlumniService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAlumniService(NewAlumniRepository(db)), mock
}

var recordCols = []string{"full_name", "roll_no", "passing_year", "branch"}

func TestFilterWhere(t *testing.T) {
	where, args := Filter{}.Where()
	assert.Empty(t, where)
	assert.Nil(t, args)

	filter := Filter{}.
		Add(ColFullName, OpContains, " 50%_off\\ ").
		Add(ColRollNo, OpContains, "   ").
		Add(ColPassingYear, OpEqual, "2020")
	where, args = filter.Where()
	assert.Equal(t, " WHERE full_name ILIKE $1 AND passing_year = $2", where)
	assert.Equal(t, []any{`%50\%\_off\\%`, "2020"}, args)
}

func TestSearchAlumniDatabaseEmptyFilters(t *testing.T) {
	svc, mock := newMockService(t)

	matches, err := svc.SearchAlumniDatabase(context.Background(), SearchQuery{Name: "  ", Branch: "\t"})
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
	// no expectations were set, so any query would have failed the call
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchAlumniDatabase(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT full_name, roll_no, passing_year, branch FROM alumni WHERE full_name ILIKE $1 AND passing_year = $2 AND branch ILIKE $3 ORDER BY full_name ASC LIMIT $4`).
		WithArgs("%asha%", "2020", "%cse%", 100).
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow("Asha Rao", "CS20-041", "2020", "CSE").
			AddRow("Asha Verma", nil, "2020", "CSE"))

	matches, err := svc.SearchAlumniDatabase(context.Background(), SearchQuery{Name: "asha", Batch: " 2020 ", Branch: "cse"})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "CS20-041", matches[0].RollNo)
	assert.Empty(t, matches[1].RollNo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAlumniBatches(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT DISTINCT passing_year FROM alumni WHERE passing_year IS NOT NULL ORDER BY passing_year DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"passing_year"}).AddRow("2021").AddRow("2020"))

	batches, err := svc.GetAlumniBatches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2021", "2020"}, batches)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAlumniByBatch(t *testing.T) {
	svc, mock := newMockService(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(`SELECT full_name, roll_no, passing_year, branch FROM alumni WHERE passing_year = $1 ORDER BY full_name ASC LIMIT $2 OFFSET $3`).
		WithArgs("2020", 2, 4).
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow("Asha Rao", "CS20-041", "2020", "CSE").
			AddRow("Bala K", "CS20-052", "2020", "CSE"))
	mock.ExpectQuery(`SELECT COUNT(*) FROM alumni WHERE passing_year = $1`).
		WithArgs("2020").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	records, total, err := svc.GetAlumniByBatch(context.Background(), "2020", 2, 4)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.EqualValues(t, 7, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAlumniByBatchErrors(t *testing.T) {
	svc, mock := newMockService(t)
	mock.MatchExpectationsInOrder(false)

	_, _, err := svc.GetAlumniByBatch(context.Background(), " ", 10, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	dbErr := errors.New("connection reset")
	mock.ExpectQuery(`SELECT full_name, roll_no, passing_year, branch FROM alumni WHERE passing_year = $1 ORDER BY full_name ASC LIMIT $2`).
		WithArgs("2019", 50).
		WillReturnRows(sqlmock.NewRows(recordCols))
	mock.ExpectQuery(`SELECT COUNT(*) FROM alumni WHERE passing_year = $1`).
		WithArgs("2019").
		WillReturnError(dbErr)

	_, _, err = svc.GetAlumniByBatch(context.Background(), "2019", 0, 0)
	assert.ErrorIs(t, err, dbErr)
}

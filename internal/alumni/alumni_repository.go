package alumni

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/khanghh/alumnet/model"
)

const (
	alumniTable   = "alumni"
	recordColumns = "full_name, roll_no, passing_year, branch"
)

type AlumniRepository interface {
	DistinctPassingYears(ctx context.Context) ([]string, error)
	Find(ctx context.Context, filter Filter, limit, offset int) ([]*model.AlumniRecord, error)
	Count(ctx context.Context, filter Filter) (int64, error)
}

type alumniRepository struct {
	db *sql.DB
}

func (r *alumniRepository) DistinctPassingYears(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT passing_year FROM `+alumniTable+` WHERE passing_year IS NOT NULL ORDER BY passing_year DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	years := []string{}
	for rows.Next() {
		var year string
		if err := rows.Scan(&year); err != nil {
			return nil, err
		}
		years = append(years, year)
	}
	return years, rows.Err()
}

// Find returns matching records ordered by name. offset is ignored when zero.
func (r *alumniRepository) Find(ctx context.Context, filter Filter, limit, offset int) ([]*model.AlumniRecord, error) {
	where, args := filter.Where()
	query := `SELECT ` + recordColumns + ` FROM ` + alumniTable + where + ` ORDER BY full_name ASC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit)
	if offset > 0 {
		query += ` OFFSET $` + strconv.Itoa(len(args)+1)
		args = append(args, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*model.AlumniRecord{}
	for rows.Next() {
		var fullName, rollNo, passingYear, branch sql.NullString
		if err := rows.Scan(&fullName, &rollNo, &passingYear, &branch); err != nil {
			return nil, err
		}
		records = append(records, &model.AlumniRecord{
			FullName:    fullName.String,
			RollNo:      rollNo.String,
			PassingYear: passingYear.String,
			Branch:      branch.String,
		})
	}
	return records, rows.Err()
}

func (r *alumniRepository) Count(ctx context.Context, filter Filter) (int64, error) {
	where, args := filter.Where()
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+alumniTable+where, args...).Scan(&count)
	return count, err
}

func NewAlumniRepository(db *sql.DB) AlumniRepository {
	return &alumniRepository{db}
}

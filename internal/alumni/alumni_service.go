package alumni

import (
	"context"
	"strings"

	"github.com/khanghh/alumnet/internal/apperr"
	"github.com/khanghh/alumnet/model"
	"github.com/khanghh/alumnet/params"
	"golang.org/x/sync/errgroup"
)

var ErrBatchRequired = apperr.Validation("Batch is required")

type SearchQuery struct {
	Name   string `json:"name"`
	RollNo string `json:"roll_no"`
	Batch  string `json:"batch"`
	Branch string `json:"branch"`
}

// AlumniService answers read-only lookups against the authoritative alumni
// table so admins can corroborate verification claims.
type AlumniService struct {
	repo AlumniRepository
}

func (s *AlumniService) GetAlumniBatches(ctx context.Context) ([]string, error) {
	return s.repo.DistinctPassingYears(ctx)
}

// GetAlumniByBatch returns one page of a batch and the batch size. Both
// queries share the same filter and run concurrently.
func (s *AlumniService) GetAlumniByBatch(ctx context.Context, batch string, limit, offset int) ([]*model.AlumniRecord, int64, error) {
	batch = strings.TrimSpace(batch)
	if batch == "" {
		return nil, 0, ErrBatchRequired
	}
	if limit < 1 {
		limit = params.AlumniDefaultBatchLimit
	}
	if limit > params.MaxPageLimit {
		limit = params.MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	filter := Filter{}.Add(ColPassingYear, OpEqual, batch)

	var (
		records []*model.AlumniRecord
		total   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		records, err = s.repo.Find(gctx, filter, limit, offset)
		return err
	})
	g.Go(func() (err error) {
		total, err = s.repo.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// SearchAlumniDatabase matches every non-blank field of q. An all-blank query
// returns no matches without touching the database.
func (s *AlumniService) SearchAlumniDatabase(ctx context.Context, q SearchQuery) ([]*model.AlumniRecord, error) {
	filter := Filter{}.
		Add(ColFullName, OpContains, q.Name).
		Add(ColRollNo, OpContains, q.RollNo).
		Add(ColPassingYear, OpEqual, q.Batch).
		Add(ColBranch, OpContains, q.Branch)
	if len(filter) == 0 {
		return []*model.AlumniRecord{}, nil
	}
	return s.repo.Find(ctx, filter, params.AlumniSearchLimit, 0)
}

func NewAlumniService(repo AlumniRepository) *AlumniService {
	return &AlumniService{repo: repo}
}

package dashboard

import (
	"context"
	"time"

	"github.com/khanghh/alumnet/internal/audit"
	"github.com/khanghh/alumnet/internal/common"
	"github.com/khanghh/alumnet/model"
	"github.com/khanghh/alumnet/params"
	"golang.org/x/sync/errgroup"
)

var nowFunc = time.Now

type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[model.ReviewStatus]int64, error)
}

type QueueCounter interface {
	Count(ctx context.Context) (int64, error)
}

type BanCounter interface {
	CountActiveBans(ctx context.Context) (int64, error)
}

type UserStats struct {
	Total    int64 `json:"total"`
	Students int64 `json:"students"`
	Alumni   int64 `json:"alumni"`
	Admins   int64 `json:"admins"`
}

type Stats struct {
	Users                UserStats                    `json:"users"`
	PendingVerifications int64                        `json:"pendingVerifications"`
	Events               map[model.ReviewStatus]int64 `json:"events"`
	Posts                map[model.ReviewStatus]int64 `json:"posts"`
	Newsletters          *NewsletterTotals            `json:"newsletters"`
	RecentRegistrations  int64                        `json:"recentRegistrations"`
	ActiveBans           int64                        `json:"activeBans"`
	RecentActivities     []*model.AdminActivity       `json:"recentActivities"`
}

type DashboardService struct {
	statsRepo    StatsRepository
	queue        QueueCounter
	events       StatusCounter
	posts        StatusCounter
	bans         BanCounter
	activityRepo audit.ActivityRepository
}

// GetStats collects the dashboard aggregates. The queries are independent
// and run concurrently, so the figures are not a single snapshot.
func (s *DashboardService) GetStats(ctx context.Context) (*Stats, error) {
	var (
		stats  Stats
		byRole map[model.Role]int64
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		byRole, err = s.statsRepo.CountUsersByRole(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingVerifications, err = s.queue.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Events, err = s.events.CountByStatus(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Posts, err = s.posts.CountByStatus(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Newsletters, err = s.statsRepo.NewsletterTotals(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.RecentRegistrations, err = s.statsRepo.CountRegisteredSince(ctx, nowFunc().Add(-params.RegistrationWindow))
		return err
	})
	g.Go(func() (err error) {
		stats.ActiveBans, err = s.bans.CountActiveBans(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.RecentActivities, err = s.activityRepo.Recent(ctx, params.RecentActivityLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.Users = UserStats{
		Students: byRole[model.RoleStudent],
		Alumni:   byRole[model.RoleAlumni],
		Admins:   byRole[model.RoleAdmin],
	}
	for _, count := range byRole {
		stats.Users.Total += count
	}
	return &stats, nil
}

// GetActivities pages through the admin activity log, optionally narrowed to
// one action.
func (s *DashboardService) GetActivities(ctx context.Context, action string, page common.PageRequest) ([]*model.AdminActivity, common.Pagination, error) {
	page = page.Normalize()
	var query any
	var args []any
	if action != "" {
		query, args = "action = ?", []any{action}
	}
	activities, total, err := s.activityRepo.Find(ctx, page.Offset(), page.Limit, query, args...)
	if err != nil {
		return nil, common.Pagination{}, err
	}
	return activities, page.Result(total), nil
}

func NewDashboardService(statsRepo StatsRepository, queue QueueCounter, events, posts StatusCounter, bans BanCounter, activityRepo audit.ActivityRepository) *DashboardService {
	return &DashboardService{
		statsRepo:    statsRepo,
		queue:        queue,
		events:       events,
		posts:        posts,
		bans:         bans,
		activityRepo: activityRepo,
	}
}

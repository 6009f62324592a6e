package services

import (
	"context"
	"time"

	"github.com/adwelink/ams-api/internal/core/analytics"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type DashboardService struct {
	agg     *analytics.Aggregator
	fees    *FeeService
	invites repositories.InviteCodeRepo
	now     func() time.Time
}

func NewDashboardService(agg *analytics.Aggregator, fees *FeeService, invites repositories.InviteCodeRepo) *DashboardService {
	return &DashboardService{agg: agg, fees: fees, invites: invites, now: time.Now}
}

// Institute builds the institute dashboard. Every figure is an independent
// query, so they run in parallel.
func (s *DashboardService) Institute(ctx context.Context, instituteID uuid.UUID) (*models.Dashboard, error) {
	now := s.now()
	today := analytics.RangeForPeriod("today", now)
	week := analytics.RangeForPeriod("this_week", now)
	trend := analytics.RangeForPeriod("last_7_days", now)
	scope := analytics.Filter{"institute_id": instituteID}

	d := &models.Dashboard{}
	var byStatus map[string]int64
	var prevWeek int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byStatus, err = s.agg.CountBy(gctx, "leads", "status", scope)
		return err
	})
	g.Go(func() error {
		var err error
		d.Leads.NewThisWeek, err = s.agg.Count(gctx, "leads", with(scope, "created_at >= ?", week.Start))
		return err
	})
	g.Go(func() error {
		prev := week.Previous()
		var err error
		prevWeek, err = s.agg.Count(gctx, "leads", with(with(scope, "created_at >= ?", prev.Start), "created_at <= ?", prev.End))
		return err
	})
	g.Go(func() error {
		var err error
		d.Leads.FollowUpsDue, err = s.agg.Count(gctx, "leads", with(with(scope,
			"follow_up_at <= ?", today.End),
			"status IN ?", []string{models.LeadStatusFresh, models.LeadStatusFollowUp}))
		return err
	})
	g.Go(func() error {
		var err error
		d.ActiveConversations, err = s.agg.Count(gctx, "conversations", with(scope, "last_message_at >= ?", today.Start))
		return err
	})
	g.Go(func() error {
		bySender, err := s.agg.CountBy(gctx, "messages", "sender", scope)
		if err != nil {
			return err
		}
		d.Messages.AI = bySender[models.SenderAI]
		d.Messages.Human = bySender[models.SenderHuman]
		return nil
	})
	g.Go(func() error {
		summary, err := s.fees.Summary(instituteID)
		if err != nil {
			return err
		}
		d.Fees = *summary
		return nil
	})
	g.Go(func() error {
		var err error
		d.LeadTrend, err = s.agg.DailyCounts(gctx, "leads", "created_at", trend, scope)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Leads.Fresh = byStatus[models.LeadStatusFresh]
	d.Leads.FollowUp = byStatus[models.LeadStatusFollowUp]
	d.Leads.Converted = byStatus[models.LeadStatusConverted]
	d.Leads.Lost = byStatus[models.LeadStatusLost]
	d.Leads.Total = d.Leads.Fresh + d.Leads.FollowUp + d.Leads.Converted + d.Leads.Lost
	d.ConversionRate = ConversionRate(d.Leads.Converted, d.Leads.Total)

	d.Cards = []analytics.StatCard{
		{Title: "New leads this week", Value: float64(d.Leads.NewThisWeek), Change: analytics.PercentChange(float64(d.Leads.NewThisWeek), float64(prevWeek)), Format: "number"},
		{Title: "Conversion rate", Value: d.ConversionRate, Format: "percent"},
		{Title: "Fees collected", Value: d.Fees.TotalCollected, Format: "currency"},
		{Title: "Outstanding fees", Value: d.Fees.Outstanding, Format: "currency"},
	}
	return d, nil
}

// Platform builds the super-admin overview
func (s *DashboardService) Platform(ctx context.Context) (*models.PlatformStats, error) {
	now := s.now()
	last30 := analytics.RangeForPeriod("last_30_days", now)
	stats := &models.PlatformStats{}
	var byStatus map[string]int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byStatus, err = s.agg.CountBy(gctx, "institutes", "status", nil)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalLeads, err = s.agg.Count(gctx, "leads", nil)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Messages30Days, err = s.agg.Count(gctx, "messages", analytics.Filter{"created_at >= ?": last30.Start})
		return err
	})
	g.Go(func() error {
		var err error
		stats.InviteCodesActive, stats.InviteUsesRemaining, err = s.invites.ActiveTotals(now)
		return err
	})
	g.Go(func() error {
		var err error
		stats.SignupTrend, err = s.agg.DailyCounts(gctx, "institutes", "created_at", last30, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.Institutes.Active = byStatus[models.InstituteStatusActive]
	stats.Institutes.Suspended = byStatus[models.InstituteStatusSuspended]
	for _, n := range byStatus {
		stats.Institutes.Total += n
	}
	return stats, nil
}

// with copies f and adds one condition
func with(f analytics.Filter, cond string, v interface{}) analytics.Filter {
	out := make(analytics.Filter, len(f)+1)
	for k, val := range f {
		out[k] = val
	}
	out[cond] = v
	return out
}

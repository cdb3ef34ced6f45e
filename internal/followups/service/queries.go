package service

import (
	"context"
	"math"
	"time"

	"karpet_crm_backend/internal/followups/repository"
	"karpet_crm_backend/internal/followups/transport"

	"github.com/google/uuid"
)

// TodaysFollowUps lists the user's scheduled records falling inside today,
// where "today" is evaluated in the configured reporting timezone.
func (s *Service) TodaysFollowUps(ctx context.Context, userID uuid.UUID, branchID *uuid.UUID) ([]repository.FollowUp, error) {
	start, end := s.dayBounds(s.now())
	return s.repo.ListScheduled(ctx, repository.ListScheduledParams{
		UserID:   userID,
		From:     &start,
		Until:    &end,
		BranchID: branchID,
	})
}

// OverdueFollowUps lists the user's scheduled records whose time has passed
// before the start of today.
func (s *Service) OverdueFollowUps(ctx context.Context, userID uuid.UUID, branchID *uuid.UUID) ([]repository.FollowUp, error) {
	start, _ := s.dayBounds(s.now())
	return s.repo.ListScheduled(ctx, repository.ListScheduledParams{
		UserID:   userID,
		Until:    &start,
		BranchID: branchID,
	})
}

// UpcomingFollowUps lists the user's scheduled records from now onward.
func (s *Service) UpcomingFollowUps(ctx context.Context, userID uuid.UUID, branchID *uuid.UUID) ([]repository.FollowUp, error) {
	now := s.now()
	return s.repo.ListScheduled(ctx, repository.ListScheduledParams{
		UserID:   userID,
		From:     &now,
		BranchID: branchID,
	})
}

// Statistics computes the user's aggregate counts plus the response rate as a
// percentage rounded to two decimals. A user with no records gets a zero rate.
func (s *Service) Statistics(ctx context.Context, userID uuid.UUID, from, until *time.Time, branchID *uuid.UUID) (transport.StatisticsResponse, error) {
	stats, err := s.repo.GetStatistics(ctx, repository.StatisticsParams{
		UserID:   userID,
		From:     from,
		Until:    until,
		BranchID: branchID,
	})
	if err != nil {
		return transport.StatisticsResponse{}, err
	}

	var rate float64
	if stats.Total > 0 {
		rate = math.Round(float64(stats.Responded)/float64(stats.Total)*10000) / 100
	}

	return transport.StatisticsResponse{
		Total:        stats.Total,
		Completed:    stats.Completed,
		NoResponse:   stats.NoResponse,
		Scheduled:    stats.Scheduled,
		Responded:    stats.Responded,
		ResponseRate: rate,
	}, nil
}

// dayBounds returns [start, end) of the calendar day containing t in the
// reporting timezone.
func (s *Service) dayBounds(t time.Time) (time.Time, time.Time) {
	loc := s.cfg.GetReportLocation()
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// Package service provides the application facade over the domain
// packages: score aggregation queries, scorecard entry, submission
// summaries, and the membership reconciliation workflow.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/rayyanhq/mutabaa/internal/adapters/roster"
	"github.com/rayyanhq/mutabaa/internal/domain/card"
	"github.com/rayyanhq/mutabaa/internal/domain/listing"
	"github.com/rayyanhq/mutabaa/internal/domain/model"
	"github.com/rayyanhq/mutabaa/internal/domain/rank"
	"github.com/rayyanhq/mutabaa/internal/domain/reconcile"
	"github.com/rayyanhq/mutabaa/pkg/logger"
	"github.com/rayyanhq/mutabaa/pkg/metrics"
)

const (
	defaultPageSize    = 25
	defaultMaxPageSize = 200

	// fetchConcurrency bounds parallel per-member card fetches.
	fetchConcurrency = 8
)

// Service implements the client-core operations on top of a roster.
type Service struct {
	mu sync.Mutex

	roster roster.Roster
	ranker *rank.Ranker
	log    logger.Logger

	pageSize         int
	maxPageSize      int
	applyConcurrency int
	now              func() time.Time

	sessions        map[uuid.UUID]*reconcile.Session
	analyticsCursor listing.Cursor
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithPageSize sets the default listing page size.
func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithMaxPageSize caps caller-requested page sizes.
func WithMaxPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxPageSize = size
		}
	}
}

// WithCollation sets the language used for name ordering.
func WithCollation(tag language.Tag) Option {
	return func(s *Service) {
		s.ranker = rank.New(tag)
	}
}

// WithApplyConcurrency bounds concurrent clear calls during apply.
func WithApplyConcurrency(n int) Option {
	return func(s *Service) {
		if n >= 1 {
			s.applyConcurrency = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service over the given roster.
func New(r roster.Roster, opts ...Option) *Service {
	s := &Service{
		roster:           r,
		ranker:           rank.New(language.Arabic),
		log:              logger.Get(),
		pageSize:         defaultPageSize,
		maxPageSize:      defaultMaxPageSize,
		applyConcurrency: 0,
		now:              time.Now,
		sessions:         make(map[uuid.UUID]*reconcile.Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyticsQuery selects, orders and pages the aggregated score rows.
// Zero-valued filters match everything.
type AnalyticsQuery struct {
	Gender         string
	GroupID        int
	MemberName     string
	SupervisorName string
	MinPercentage  *float64
	MaxPercentage  *float64

	From time.Time
	To   time.Time

	SortBy    rank.SortKey
	SortOrder rank.Direction
	Page      int
	PageSize  int
}

// AnalyticsSummary carries the headline counts shown next to the table.
type AnalyticsSummary struct {
	TotalActive   int
	TotalPending  int
	TotalGroups   int
	FilteredCount int
}

// AnalyticsResult is one page of ranked rows plus the summary counts.
type AnalyticsResult struct {
	Rows    listing.Page[rank.Row]
	Summary AnalyticsSummary
}

// Analytics aggregates every active participant's cards inside the query
// window, then filters, orders, ranks and pages the rows. Ranks are
// assigned over the filtered set, so the first visible row of page 1 is
// always rank 1. A change in filters or sort resets the page to 1.
func (s *Service) Analytics(ctx context.Context, q AnalyticsQuery) (AnalyticsResult, error) {
	started := s.now()

	members, err := s.activeParticipants(ctx)
	if err != nil {
		return AnalyticsResult{}, err
	}
	groups, err := s.roster.ListGroups(ctx)
	if err != nil {
		return AnalyticsResult{}, err
	}
	cards, err := s.fetchCards(ctx, members, q.From, q.To)
	if err != nil {
		return AnalyticsResult{}, err
	}

	window := rank.AllTime()
	if !q.From.IsZero() || !q.To.IsZero() {
		window = rank.Between(q.From, q.To)
	}
	rows, err := s.ranker.Aggregate(members, cards, window)
	if err != nil {
		return AnalyticsResult{}, err
	}
	attachSupervisors(rows, groups)
	metrics.RecordAggregationLatency(float64(s.now().Sub(started).Milliseconds()))

	filtered := listing.Apply(rows, listing.Query[rank.Row]{
		Filters: []listing.Predicate[rank.Row]{
			listing.GenderIs(q.Gender, func(r rank.Row) model.Gender { return r.Gender }),
			listing.Equals(q.GroupID, func(r rank.Row) int { return r.GroupID }),
			listing.Substring(q.MemberName, func(r rank.Row) []string { return []string{r.Name} }),
			listing.Substring(q.SupervisorName, func(r rank.Row) []string { return []string{r.SupervisorName} }),
			listing.InRange(q.MinPercentage, q.MaxPercentage, func(r rank.Row) float64 { return r.Percentage }),
		},
	}).Items

	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = rank.SortByScore
	}
	order := q.SortOrder
	if order == "" {
		order = rank.DefaultDirection(sortBy)
	}
	ranked := s.ranker.Order(filtered, sortBy, order)
	metrics.RecordRowsRanked(len(ranked))

	s.mu.Lock()
	page := s.analyticsCursor.Resolve(q.fingerprint(), q.Page)
	s.mu.Unlock()

	result := AnalyticsResult{
		Rows: listing.Apply(ranked, listing.Query[rank.Row]{
			Page:     page,
			PageSize: s.clampPageSize(q.PageSize),
		}),
		Summary: AnalyticsSummary{
			TotalGroups:   len(groups),
			FilteredCount: len(ranked),
		},
	}
	result.Summary.TotalActive = len(members)
	pending, err := s.roster.ListMembers(ctx, roster.MemberFilter{Status: model.StatusPending})
	if err != nil {
		return AnalyticsResult{}, err
	}
	result.Summary.TotalPending = len(pending)

	metrics.RecordListingLatency(float64(s.now().Sub(started).Milliseconds()))
	return result, nil
}

// fingerprint encodes the filter and sort configuration; pagination is
// deliberately excluded so that only real configuration changes reset
// the page.
func (q AnalyticsQuery) fingerprint() string {
	minP, maxP := "", ""
	if q.MinPercentage != nil {
		minP = fmt.Sprintf("%g", *q.MinPercentage)
	}
	if q.MaxPercentage != nil {
		maxP = fmt.Sprintf("%g", *q.MaxPercentage)
	}
	return fmt.Sprintf("%s|%d|%s|%s|%s|%s|%s|%s|%s|%s",
		q.Gender, q.GroupID, q.MemberName, q.SupervisorName, minP, maxP,
		q.From.Format("2006-01-02"), q.To.Format("2006-01-02"), q.SortBy, q.SortOrder)
}

// Leaderboard returns one page of the all-time score board over every
// active participant, ordered by total descending.
func (s *Service) Leaderboard(ctx context.Context, window rank.Window, page, pageSize int) (listing.Page[rank.Row], error) {
	members, err := s.activeParticipants(ctx)
	if err != nil {
		return listing.Page[rank.Row]{}, err
	}
	from, to := window.Bounds()
	cards, err := s.fetchCards(ctx, members, from, to)
	if err != nil {
		return listing.Page[rank.Row]{}, err
	}

	rows, err := s.ranker.Aggregate(members, cards, window)
	if err != nil {
		return listing.Page[rank.Row]{}, err
	}
	ranked := s.ranker.Order(rows, rank.SortByScore, rank.Descending)
	metrics.RecordRowsRanked(len(ranked))

	return listing.Apply(ranked, listing.Query[rank.Row]{
		Page:     page,
		PageSize: s.clampPageSize(pageSize),
	}), nil
}

// SubmitCard validates and saves one member's card for a date. Values
// are checked against the per-field range and half-point grid before
// anything is sent; derived totals are computed locally.
func (s *Service) SubmitCard(ctx context.Context, memberID int, date time.Time, values map[string]float64, note string) (model.CardRecord, error) {
	if err := card.ValidateDate(date, s.now()); err != nil {
		return model.CardRecord{}, err
	}

	c := card.New(memberID, date)
	for field, v := range values {
		if err := c.Set(field, v); err != nil {
			metrics.RecordCardSaveError()
			return model.CardRecord{}, err
		}
	}
	c.Note = note

	rec, err := c.Record()
	if err != nil {
		metrics.RecordCardSaveError()
		return model.CardRecord{}, err
	}

	saved, err := s.roster.SaveCard(ctx, rec)
	if err != nil {
		metrics.RecordCardSaveError()
		return model.CardRecord{}, err
	}
	metrics.RecordCardSaved()
	s.log.Info(ctx, "card saved",
		logger.Int("member_id", memberID),
		logger.String("date", model.Day(date).Format("2006-01-02")),
		logger.Float64("total", saved.Total))
	return saved, nil
}

// MemberCards returns a member's cards inside [from, to], newest first.
func (s *Service) MemberCards(ctx context.Context, memberID int, from, to time.Time) ([]model.CardRecord, error) {
	return s.roster.ListCards(ctx, memberID, from, to)
}

// DailySummary reports who in the group submitted a card for the date
// and who did not, with submissions ordered by total descending.
func (s *Service) DailySummary(ctx context.Context, groupID int, date time.Time) (rank.DailySummary, error) {
	members, cards, err := s.groupCards(ctx, groupID, date, date)
	if err != nil {
		return rank.DailySummary{}, err
	}
	summary := rank.Daily(members, cards, date)
	rank.SortSubmissions(summary.Submitted)
	return summary, nil
}

// WeeklySummary aggregates the group's cards over the week containing
// now (Monday through now), ordered by total descending.
func (s *Service) WeeklySummary(ctx context.Context, groupID int) ([]rank.Row, error) {
	window := rank.WeekOf(s.now())
	from, to := window.Bounds()
	members, cards, err := s.groupCards(ctx, groupID, from, to)
	if err != nil {
		return nil, err
	}
	rows, err := s.ranker.Aggregate(members, cards, window)
	if err != nil {
		return nil, err
	}
	return s.ranker.Order(rows, rank.SortByScore, rank.Descending), nil
}

// RangeReport is a group's aggregated rows over a date range plus the
// number of calendar days the range covers.
type RangeReport struct {
	Rows      []rank.Row
	TotalDays int
}

// RangeSummary aggregates the group's cards over [from, to].
func (s *Service) RangeSummary(ctx context.Context, groupID int, from, to time.Time) (RangeReport, error) {
	members, cards, err := s.groupCards(ctx, groupID, from, to)
	if err != nil {
		return RangeReport{}, err
	}
	window := rank.Between(from, to)
	rows, err := s.ranker.Aggregate(members, cards, window)
	if err != nil {
		return RangeReport{}, err
	}
	return RangeReport{
		Rows:      s.ranker.Order(rows, rank.SortByScore, rank.Descending),
		TotalDays: window.Days(),
	}, nil
}

// ParticipantStats computes one member's self-view: today's, this week's
// and overall percentages plus their all-time board position.
func (s *Service) ParticipantStats(ctx context.Context, memberID int) (rank.MemberStats, error) {
	members, err := s.activeParticipants(ctx)
	if err != nil {
		return rank.MemberStats{}, err
	}
	found := false
	for _, m := range members {
		if m.ID == memberID {
			found = true
			break
		}
	}
	if !found {
		return rank.MemberStats{}, fmt.Errorf("%w: %d", ErrMemberNotFound, memberID)
	}

	cards, err := s.fetchCards(ctx, members, time.Time{}, time.Time{})
	if err != nil {
		return rank.MemberStats{}, err
	}
	return s.ranker.StatsFor(memberID, members, cards, s.now())
}

// Groups lists every group.
func (s *Service) Groups(ctx context.Context) ([]model.Group, error) {
	return s.roster.ListGroups(ctx)
}

// BeginReconciliation opens a reconciliation session for the group over
// a frozen snapshot of active members.
func (s *Service) BeginReconciliation(ctx context.Context, groupID int) (*reconcile.Session, error) {
	groups, err := s.roster.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	var group model.Group
	found := false
	for _, g := range groups {
		if g.ID == groupID {
			group, found = g, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %d", ErrGroupNotFound, groupID)
	}

	snapshot, err := s.activeParticipants(ctx)
	if err != nil {
		return nil, err
	}

	var opts []reconcile.SessionOption
	if s.applyConcurrency >= 1 {
		opts = append(opts, reconcile.WithApplyConcurrency(s.applyConcurrency))
	}
	session := reconcile.Begin(group, snapshot, opts...)

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	metrics.RecordSessionStarted()
	s.log.Info(ctx, "reconciliation session started",
		logger.String("session_id", session.ID().String()),
		logger.Int("group_id", groupID))
	return session, nil
}

// Session returns a previously started reconciliation session.
func (s *Service) Session(id uuid.UUID) (*reconcile.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, nil
}

// SetSelection replaces a session's desired member-id selection.
func (s *Service) SetSelection(id uuid.UUID, memberIDs []int) error {
	session, err := s.Session(id)
	if err != nil {
		return err
	}
	return session.SetDesired(memberIDs)
}

// PrepareReconciliation diffs the selection against the session snapshot
// and returns the confirmation summary.
func (s *Service) PrepareReconciliation(id uuid.UUID) (reconcile.Summary, error) {
	session, err := s.Session(id)
	if err != nil {
		return reconcile.Summary{}, err
	}
	cs, err := session.Prepare()
	if err != nil {
		return reconcile.Summary{}, err
	}
	return reconcile.Summarize(session.Group().Name, cs), nil
}

// ConfirmReconciliation applies the prepared change-set against the
// roster. The result names which removals succeeded and which failed;
// a failed apply leaves the session Failed and requires a fresh session
// after manual remediation.
func (s *Service) ConfirmReconciliation(ctx context.Context, id uuid.UUID) (reconcile.Result, error) {
	session, err := s.Session(id)
	if err != nil {
		return reconcile.Result{}, err
	}

	res, err := session.Confirm(ctx, s.roster)
	for range res.Succeeded() {
		metrics.RecordRemovalCleared()
	}
	for range res.Failed() {
		metrics.RecordRemovalFailed()
	}
	if err != nil {
		if session.State() == reconcile.StateFailed {
			metrics.RecordSessionFailed()
			s.log.Error(ctx, "reconciliation apply failed",
				logger.String("session_id", id.String()),
				logger.Int("group_id", session.Group().ID),
				logger.Any("failed_members", res.Failed()),
				logger.Error(err))
		}
		return res, err
	}

	metrics.RecordSessionCommitted()
	s.log.Info(ctx, "reconciliation committed",
		logger.String("session_id", id.String()),
		logger.Int("group_id", session.Group().ID),
		logger.Int("removals", len(res.Succeeded())))
	return res, nil
}

// CancelReconciliation abandons a session before apply.
func (s *Service) CancelReconciliation(ctx context.Context, id uuid.UUID) error {
	session, err := s.Session(id)
	if err != nil {
		return err
	}
	if err := session.Cancel(); err != nil {
		return err
	}
	metrics.RecordSessionCancelled()
	s.log.Info(ctx, "reconciliation cancelled",
		logger.String("session_id", id.String()),
		logger.Int("group_id", session.Group().ID))
	return nil
}

// activeParticipants lists the members that score boards aggregate over.
func (s *Service) activeParticipants(ctx context.Context) ([]model.Member, error) {
	return s.roster.ListMembers(ctx, roster.MemberFilter{
		Status: model.StatusActive,
		Role:   model.RoleParticipant,
	})
}

// groupCards lists a group's active members and their cards in a range.
func (s *Service) groupCards(ctx context.Context, groupID int, from, to time.Time) ([]model.Member, []model.CardRecord, error) {
	members, err := s.roster.ListMembers(ctx, roster.MemberFilter{
		Status:  model.StatusActive,
		Role:    model.RoleParticipant,
		GroupID: groupID,
	})
	if err != nil {
		return nil, nil, err
	}
	cards, err := s.fetchCards(ctx, members, from, to)
	if err != nil {
		return nil, nil, err
	}
	return members, cards, nil
}

// fetchCards pulls every member's cards in parallel. The roster exposes
// cards per member only, so board queries fan out one call per member.
func (s *Service) fetchCards(ctx context.Context, members []model.Member, from, to time.Time) ([]model.CardRecord, error) {
	var (
		mu  sync.Mutex
		all []model.CardRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, m := range members {
		m := m
		g.Go(func() error {
			cards, err := s.roster.ListCards(gctx, m.ID, from, to)
			if err != nil {
				return fmt.Errorf("fetch cards for member %d: %w", m.ID, err)
			}
			mu.Lock()
			all = append(all, cards...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return all, nil
}

// attachSupervisors fills each row's supervisor name from its group.
func attachSupervisors(rows []rank.Row, groups []model.Group) {
	byID := make(map[int]model.Group, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}
	for i := range rows {
		if g, ok := byID[rows[i].GroupID]; ok {
			rows[i].SupervisorName = g.SupervisorName
		}
	}
}

func (s *Service) clampPageSize(requested int) int {
	if requested <= 0 {
		return s.pageSize
	}
	if s.maxPageSize > 0 && requested > s.maxPageSize {
		return s.maxPageSize
	}
	return requested
}

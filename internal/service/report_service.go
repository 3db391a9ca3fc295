package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/systemcontrol/defect-service/internal/domain"
	"github.com/systemcontrol/defect-service/internal/persistence"
	"github.com/systemcontrol/defect-service/internal/repository"
)

const analyticsCacheTTL = 30 * time.Second

// Analytics summarizes the defect population for dashboards.
type Analytics struct {
	TotalDefects         int                           `json:"total_defects"`
	StatusDistribution   map[domain.DefectStatus]int   `json:"status_distribution"`
	PriorityDistribution map[domain.DefectPriority]int `json:"priority_distribution"`
	NewDefects           int                           `json:"new_defects"`
	InProgressDefects    int                           `json:"in_progress_defects"`
	ClosedDefects        int                           `json:"closed_defects"`
}

// ReportService aggregates defect analytics. Results are cached briefly in
// Redis; the cache is a read-side convenience and never feeds mutations.
type ReportService struct {
	store  repository.Store
	redis  *persistence.Redis
	logger *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(store repository.Store, redis *persistence.Redis, logger *zap.Logger) *ReportService {
	return &ReportService{store: store, redis: redis, logger: logger}
}

// Analytics computes the summary, optionally scoped to one project.
func (s *ReportService) Analytics(ctx context.Context, projectID *int64) (*Analytics, error) {
	key := analyticsCacheKey(projectID)
	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	var defects []domain.Defect
	var err error
	if projectID != nil {
		defects, err = s.store.Defects().ListByProject(ctx, *projectID)
	} else {
		defects, err = s.store.Defects().List(ctx)
	}
	if err != nil {
		return nil, err
	}

	analytics := &Analytics{
		TotalDefects:         len(defects),
		StatusDistribution:   make(map[domain.DefectStatus]int),
		PriorityDistribution: make(map[domain.DefectPriority]int),
	}
	for _, d := range defects {
		analytics.StatusDistribution[d.Status]++
		analytics.PriorityDistribution[d.Priority]++
	}
	analytics.NewDefects = analytics.StatusDistribution[domain.DefectStatusNew]
	analytics.InProgressDefects = analytics.StatusDistribution[domain.DefectStatusInProgress]
	analytics.ClosedDefects = analytics.StatusDistribution[domain.DefectStatusClosed]

	s.toCache(ctx, key, analytics)
	return analytics, nil
}

func analyticsCacheKey(projectID *int64) string {
	if projectID == nil {
		return "reports:analytics:all"
	}
	return fmt.Sprintf("reports:analytics:project:%d", *projectID)
}

func (s *ReportService) fromCache(ctx context.Context, key string) *Analytics {
	if s.redis == nil || s.redis.Client == nil {
		return nil
	}
	raw, err := s.redis.Client.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var analytics Analytics
	if err := json.Unmarshal(raw, &analytics); err != nil {
		return nil
	}
	return &analytics
}

func (s *ReportService) toCache(ctx context.Context, key string, analytics *Analytics) {
	if s.redis == nil || s.redis.Client == nil {
		return
	}
	raw, err := json.Marshal(analytics)
	if err != nil {
		return
	}
	if err := s.redis.Client.Set(ctx, key, raw, analyticsCacheTTL).Err(); err != nil {
		s.logger.Debug("analytics cache write failed", zap.Error(err))
	}
}

package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"ai-research-be/internal/config"
	"ai-research-be/internal/dto"
	"ai-research-be/internal/entity"
	"ai-research-be/internal/pkg/logger"
	"ai-research-be/internal/pkg/serverutils"
	"ai-research-be/internal/repository/specification"
	"ai-research-be/internal/repository/unitofwork"
	"ai-research-be/pkg/rag"
	"ai-research-be/pkg/research/tree"

	"github.com/google/uuid"
)

// Hard ceilings for the per-request knobs. Requests beyond these are clamped,
// not rejected.
const (
	maxAllowedRecursionDepth = 4
	maxAllowedSubQuestions   = 5
	maxAllowedThreshold      = 2
)

type IResearchService interface {
	Research(ctx context.Context, req *dto.CreateResearchRequest) (*dto.CreateResearchResponse, error)
	ListReports(ctx context.Context) ([]*dto.ResearchReportSummaryResponse, error)
	ShowReport(ctx context.Context, id uuid.UUID) (*dto.ShowResearchReportResponse, error)
	ListKnowledgeSources(ctx context.Context) ([]*dto.KnowledgeSourceResponse, error)
	ResetKnowledgeBase(ctx context.Context) error
}

type researchService struct {
	builder          *tree.Builder
	store            *rag.RetrievalStore
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	logger           logger.ILogger
	cfg              config.ResearchConfig
}

func NewResearchService(
	builder *tree.Builder,
	store *rag.RetrievalStore,
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	log logger.ILogger,
	cfg config.ResearchConfig,
) IResearchService {
	return &researchService{
		builder:          builder,
		store:            store,
		uowFactory:       uowFactory,
		publisherService: publisherService,
		logger:           log,
		cfg:              cfg,
	}
}

func (s *researchService) Research(ctx context.Context, req *dto.CreateResearchRequest) (*dto.CreateResearchResponse, error) {
	settings := s.settingsFor(req)

	s.logger.Info("ResearchService", "Starting research run", map[string]interface{}{
		"question":            req.Question,
		"max_recursion_depth": settings.MaxRecursionDepth,
		"max_sub_questions":   settings.MaxSubQuestions,
		"recursion_threshold": settings.RecursionThreshold,
	})
	startedAt := time.Now()

	root, err := s.builder.Build(ctx, req.Question, settings)
	if err != nil {
		s.logger.Error("ResearchService", "Tree build aborted", map[string]interface{}{
			"question": req.Question,
			"error":    err.Error(),
		})
		return nil, serverutils.NewInternalError("research could not be completed")
	}

	report := &entity.ResearchReport{
		Id:          uuid.New(),
		Question:    req.Question,
		FinalAnswer: root.Answer,
		Tree:        root,
		Sources:     aggregateSources(root),
		TotalNodes:  root.CountNodes(),
		MaxDepth:    root.MaxTreeDepth(),
		CreatedAt:   time.Now(),
	}

	s.publishReport(ctx, report)

	s.logger.Info("ResearchService", "Research run finished", map[string]interface{}{
		"question":    req.Question,
		"total_nodes": report.TotalNodes,
		"max_depth":   report.MaxDepth,
		"duration_ms": time.Since(startedAt).Milliseconds(),
	})

	return &dto.CreateResearchResponse{
		Id:          report.Id,
		Question:    report.Question,
		FinalAnswer: report.FinalAnswer,
		Tree:        report.Tree,
		AllSources:  report.Sources,
		Metadata: dto.ResearchMetadata{
			TotalNodes: report.TotalNodes,
			MaxDepth:   report.MaxDepth,
		},
	}, nil
}

// settingsFor merges request overrides with configured defaults, clamped to
// the documented ceilings.
func (s *researchService) settingsFor(req *dto.CreateResearchRequest) tree.Settings {
	settings := tree.Settings{
		MaxRecursionDepth:  s.cfg.MaxRecursionDepth,
		MaxSubQuestions:    s.cfg.MaxSubQuestions,
		RecursionThreshold: s.cfg.RecursionThreshold,
	}
	if req.MaxRecursionDepth != nil {
		settings.MaxRecursionDepth = *req.MaxRecursionDepth
	}
	if req.MaxSubQuestions != nil {
		settings.MaxSubQuestions = *req.MaxSubQuestions
	}
	if req.RecursionThreshold != nil {
		settings.RecursionThreshold = *req.RecursionThreshold
	}

	settings.MaxRecursionDepth = clamp(settings.MaxRecursionDepth, 1, maxAllowedRecursionDepth)
	settings.MaxSubQuestions = clamp(settings.MaxSubQuestions, 1, maxAllowedSubQuestions)
	settings.RecursionThreshold = clamp(settings.RecursionThreshold, 0, maxAllowedThreshold)
	return settings
}

// publishReport hands the completed report to the persistence consumer.
// Persistence is best effort: the caller already has the full result in hand.
func (s *researchService) publishReport(ctx context.Context, report *entity.ResearchReport) {
	payload, err := json.Marshal(dto.PublishResearchReportMessage{Report: report})
	if err != nil {
		s.logger.Error("ResearchService", "Failed to marshal report for persistence", map[string]interface{}{
			"report_id": report.Id,
			"error":     err.Error(),
		})
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Error("ResearchService", "Failed to publish report for persistence", map[string]interface{}{
			"report_id": report.Id,
			"error":     err.Error(),
		})
	}
}

func (s *researchService) ListReports(ctx context.Context) ([]*dto.ResearchReportSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	reports, err := uow.ResearchReportRepository().FindAll(ctx, specification.OrderBy{Field: "created_at", Desc: true})
	if err != nil {
		return nil, err
	}

	summaries := make([]*dto.ResearchReportSummaryResponse, len(reports))
	for i, report := range reports {
		summaries[i] = &dto.ResearchReportSummaryResponse{
			Id:         report.Id,
			Question:   report.Question,
			TotalNodes: report.TotalNodes,
			MaxDepth:   report.MaxDepth,
			CreatedAt:  report.CreatedAt,
		}
	}
	return summaries, nil
}

func (s *researchService) ShowReport(ctx context.Context, id uuid.UUID) (*dto.ShowResearchReportResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	report, err := uow.ResearchReportRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, serverutils.NewNotFoundError("research report not found")
	}

	return &dto.ShowResearchReportResponse{
		Id:          report.Id,
		Question:    report.Question,
		FinalAnswer: report.FinalAnswer,
		Tree:        report.Tree,
		AllSources:  report.Sources,
		Metadata: dto.ResearchMetadata{
			TotalNodes: report.TotalNodes,
			MaxDepth:   report.MaxDepth,
		},
		CreatedAt: report.CreatedAt,
	}, nil
}

func (s *researchService) ListKnowledgeSources(ctx context.Context) ([]*dto.KnowledgeSourceResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sources, err := uow.KnowledgeSourceRepository().FindAll(ctx, specification.OrderBy{Field: "fetched_at", Desc: true})
	if err != nil {
		return nil, err
	}

	// The table appends one row per ingestion; the manifest view deduplicates
	// by URL. Rows arrive newest first, so the first row per URL is the most
	// recent fetch.
	seen := make(map[string]struct{}, len(sources))
	responses := make([]*dto.KnowledgeSourceResponse, 0, len(sources))
	for _, src := range sources {
		if _, ok := seen[src.URL]; ok {
			continue
		}
		seen[src.URL] = struct{}{}
		responses = append(responses, &dto.KnowledgeSourceResponse{
			Id:        src.Id,
			URL:       src.URL,
			Title:     src.Title,
			Type:      src.Type,
			Query:     src.Query,
			FetchedAt: src.FetchedAt,
		})
	}
	return responses, nil
}

// ResetKnowledgeBase drops all ingested chunks and the source manifest in one
// transaction. Persisted reports are untouched.
func (s *researchService) ResetKnowledgeBase(ctx context.Context) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteAll(ctx); err != nil {
		return err
	}
	if err := uow.KnowledgeSourceRepository().DeleteAll(ctx); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.logger.Info("ResearchService", "Knowledge base reset", nil)
	return nil
}

// aggregateSources walks the tree and merges per-leaf sources into the
// request-level manifest: frequency counts the leaves grounded on a URL,
// relevance keeps the best similarity, depth keeps the shallowest level the
// source appeared at. Sorted by frequency, then relevance.
func aggregateSources(root *entity.QuestionNode) []entity.AggregatedSource {
	byURL := make(map[string]*entity.AggregatedSource)
	var order []string

	root.Walk(func(node *entity.QuestionNode) {
		for _, src := range node.Sources {
			if src.URL == "" {
				continue
			}
			agg, ok := byURL[src.URL]
			if !ok {
				byURL[src.URL] = &entity.AggregatedSource{
					URL:       src.URL,
					Title:     src.Title,
					Frequency: 1,
					Relevance: src.Similarity,
					Depth:     node.Depth,
				}
				order = append(order, src.URL)
				continue
			}
			agg.Frequency++
			if src.Similarity > agg.Relevance {
				agg.Relevance = src.Similarity
			}
			if node.Depth < agg.Depth {
				agg.Depth = node.Depth
			}
		}
	})

	result := make([]entity.AggregatedSource, 0, len(order))
	for _, url := range order {
		result = append(result, *byURL[url])
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Frequency != result[j].Frequency {
			return result[i].Frequency > result[j].Frequency
		}
		return result[i].Relevance > result[j].Relevance
	})
	return result
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

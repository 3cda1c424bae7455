package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"time"

	"github.com/Alkira-Consulting/skylight-web/internal/config"
	"github.com/Alkira-Consulting/skylight-web/internal/model"
	"github.com/Alkira-Consulting/skylight-web/internal/query"
	"github.com/Alkira-Consulting/skylight-web/internal/repository"
)

// DashboardService runs one render cycle: gate on the session, resolve the
// relative window once, then translate, execute, and normalize every
// catalog metric with per-metric failure isolation.
type DashboardService interface {
	Render(ctx context.Context, sess *model.Session, in model.RenderInput) (model.RenderResult, error)
}

type dashboardService struct {
	sessions SessionService
	engines  repository.Factory
	catalog  []model.MetricDefinition
	timeZone string
	loc      *time.Location
	now      func() time.Time
}

// NewDashboardService constructs a DashboardService over the engine
// factory and the session lifecycle.
func NewDashboardService(sessions SessionService, engines repository.Factory, cfg *config.Config) (DashboardService, error) {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, err
	}
	return &dashboardService{
		sessions: sessions,
		engines:  engines,
		catalog:  query.Catalog(),
		timeZone: cfg.TimeZone,
		loc:      loc,
		now:      time.Now,
	}, nil
}

func (s *dashboardService) Render(ctx context.Context, sess *model.Session, in model.RenderInput) (model.RenderResult, error) {
	if !sess.Authenticated() {
		return model.RenderResult{}, ErrNotAuthenticated
	}

	if err := s.sessions.EnsureLive(ctx, sess, func(accessToken string) error {
		repo, err := s.engines(accessToken)
		if err != nil {
			return err
		}
		return repo.Info(ctx)
	}); err != nil {
		return model.RenderResult{}, err
	}

	// EnsureLive may have swapped the token pair; bind the cycle's
	// repository to whatever is current now.
	repo, err := s.engines(sess.AccessToken)
	if err != nil {
		return model.RenderResult{}, err
	}

	offset, err := s.resolveOffset(ctx, repo, in)
	if err != nil && !errors.Is(err, ErrNoDataToday) {
		log.Printf("offset resolution failed: %v", err)
	}

	base := query.BuildFilters(in.Date, in.ReportingGroup, s.timeZone, nil)

	panels := make(map[string]model.MetricPanel, len(s.catalog))
	for _, def := range s.catalog {
		rec := s.runMetric(ctx, repo, def, in, offset)
		panels[def.Name] = model.MetricPanel{
			Record:  rec,
			Display: s.display(def, rec),
		}
	}

	result := model.RenderResult{
		Panels:         panels,
		Date:           base.Date,
		ReportingGroup: in.ReportingGroup,
		OffsetMinutes:  offset,
		RefreshedAt:    s.now().In(s.loc),
	}
	return result, nil
}

// resolveOffset returns the cycle's relative-window lower bound. An
// explicit pick passes through untouched; otherwise one probe against the
// transactions index anchors the window to the first event of today.
// The result is shared by every relative-window metric in the cycle so
// all panels describe the same notional window.
func (s *dashboardService) resolveOffset(ctx context.Context, repo repository.EngineRepository, in model.RenderInput) (*int, error) {
	if in.OffsetMinutes != nil {
		v := *in.OffsetMinutes
		return &v, nil
	}

	// The probe always looks at today regardless of any picked date.
	base := query.BuildFilters("", in.ReportingGroup, s.timeZone, nil)
	res, err := repo.Search(ctx, query.ProbeIndex, query.ProbeEarliest(base))
	if err != nil {
		return nil, &QueryError{Metric: "offset_probe", Err: err}
	}
	if res == nil || len(res.Hits) == 0 {
		return nil, ErrNoDataToday
	}

	var doc struct {
		Timestamp string `json:"@timestamp"`
	}
	if err := json.Unmarshal(res.Hits[0].Source, &doc); err != nil {
		return nil, &MalformedResultError{Metric: "offset_probe", Reason: "unreadable probe hit"}
	}
	t0, err := time.Parse(time.RFC3339, doc.Timestamp)
	if err != nil {
		return nil, &MalformedResultError{Metric: "offset_probe", Reason: "unparseable probe timestamp"}
	}

	minutes := int(math.Round(s.now().UTC().Sub(t0).Seconds() / 60))
	return &minutes, nil
}

// runMetric produces one metric's record. Every failure path collapses to
// the NoData placeholder so no metric can abort the rest of the cycle.
func (s *dashboardService) runMetric(ctx context.Context, repo repository.EngineRepository, def model.MetricDefinition, in model.RenderInput, offset *int) model.ResultRecord {
	if def.RelativeWindow && offset == nil {
		return model.NoDataRecord(def.Name)
	}

	group := in.ReportingGroup
	if def.IgnoreGroup {
		group = ""
	}

	fc := query.BuildFilters(in.Date, group, s.timeZone, def.ExtraClauses)
	fc.OffsetMinutes = offset

	req, err := query.Translate(fc, def)
	if err != nil {
		log.Printf("translate %s: %v", def.Name, err)
		return model.NoDataRecord(def.Name)
	}

	switch req.Kind {
	case query.RequestSearch:
		res, err := repo.Search(ctx, req.Index, req.SearchBody)
		if err != nil {
			log.Printf("%v", &QueryError{Metric: def.Name, Err: err})
			return model.NoDataRecord(def.Name)
		}
		return query.NormalizeSearch(def, res)

	case query.RequestSQL:
		res, err := repo.SQL(ctx, req.SQLQuery, req.SQLFilter)
		if err != nil {
			log.Printf("%v", &QueryError{Metric: def.Name, Err: err})
			return model.NoDataRecord(def.Name)
		}
		return query.NormalizeTabular(def, res)
	}

	return model.NoDataRecord(def.Name)
}

package stats

import (
	"context"
	"math"
	"slices"
	"sort"

	"github.com/vshulcz/enginestats/internal/domain"
	"github.com/vshulcz/enginestats/internal/i18n"
	"github.com/vshulcz/enginestats/internal/ports"
	"github.com/vshulcz/enginestats/internal/services/bubble"
	"github.com/vshulcz/enginestats/internal/services/schema"
)

// Dashboard builds the detailed statistics page: time and error breakdowns,
// the global search time distribution and the score bubble chart.
func (b *Builder) Dashboard(ctx context.Context, tr ports.Translator) (domain.Dashboard, error) {
	aggs, err := b.aggregates(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}
	searchTime, err := b.measure(ctx, schema.SearchTime)
	if err != nil {
		return domain.Dashboard{}, err
	}
	searchOnly, err := b.measure(ctx, schema.SearchTimeSearch)
	if err != nil {
		return domain.Dashboard{}, err
	}
	render, err := b.measure(ctx, schema.SearchTimeRender)
	if err != nil {
		return domain.Dashboard{}, err
	}

	active := make([]domain.EngineAggregate, 0, len(aggs))
	for _, a := range aggs {
		if a.SearchCount > 0 || a.ErrorCount > 0 {
			active = append(active, a)
		}
	}

	ticks := make([]float64, len(searchTime.Buckets))
	for i := range ticks {
		ticks[i] = float64(i+1) / 10
	}

	return domain.Dashboard{
		Title:           tr.T(i18n.EngineStats),
		TitleSearchPage: tr.T(i18n.SearchPage),
		TicksSearchTime: ticks,
		Engines:         active,
		SearchTime: domain.SearchTimeChart{
			Labels: domain.SearchTimeLabels{
				Title: tr.T(i18n.TotalServerTime),
				XAxis: tr.T(i18n.TimeSec),
				YAxis: tr.T(i18n.RequestsPercent),
			},
			Values:        searchTime.QuantilePercentages(),
			Average:       round3(searchTime.Average()),
			AverageSearch: round3(searchOnly.Average()),
			AverageRender: round3(render.Average()),
		},
		Time:  timeChart(active, tr),
		Error: errorChart(active, tr),
		Score: scoreChart(active, tr),
		Count: len(active),
	}, nil
}

func timeChart(active []domain.EngineAggregate, tr ports.Translator) domain.TimeChart {
	rows := slices.Clone(active)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].TimeTotal > rows[j].TimeTotal })

	c := domain.TimeChart{
		Labels: domain.TimeLabels{
			Title:         tr.T(i18n.PageLoads),
			XAxis:         tr.T(i18n.PageLoads),
			SerieRequest:  tr.T(i18n.PreparationTime),
			SerieSearch:   tr.T(i18n.RequestTime),
			SerieCallback: tr.T(i18n.ParsingTime),
		},
		Detail:   make(map[string][]int, len(rows)),
		Engine:   make([]string, 0, len(rows)),
		Request:  make([]float64, 0, len(rows)),
		Search:   make([]float64, 0, len(rows)),
		Callback: make([]float64, 0, len(rows)),
		Total:    make([]float64, 0, len(rows)),
		Height:   domain.ChartHeight(len(rows)),
	}
	for _, a := range rows {
		c.Engine = append(c.Engine, a.Name)
		c.Request = append(c.Request, a.TimeRequest)
		c.Search = append(c.Search, a.TimeSearch)
		c.Callback = append(c.Callback, a.TimeCallback)
		c.Total = append(c.Total, a.TimeTotal)
		c.Detail[a.Name] = a.TimeTotalDetail
	}
	return c
}

// errorRank buckets engines by truncated error percentage; engines that
// failed without completing a single search rank last.
func errorRank(a domain.EngineAggregate) int {
	if a.SearchCount <= 0 {
		return math.MaxInt
	}
	return a.ErrorPercent(a.ErrorCount)
}

func errorChart(active []domain.EngineAggregate, tr ports.Translator) domain.ErrorChart {
	var rows []domain.EngineAggregate
	for _, a := range active {
		if a.ErrorCount > 0 {
			rows = append(rows, a)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return errorRank(rows[i]) < errorRank(rows[j]) })

	c := domain.ErrorChart{
		Labels: domain.ErrorLabels{
			Title:         tr.T(i18n.Errors),
			XAxis:         tr.T(i18n.ErrorPercentage),
			SerieOther:    tr.T(i18n.OtherErrors),
			SerieRequests: tr.T(i18n.RequestsErrors),
			SerieTimeout:  tr.T(i18n.TimeoutErrors),
		},
		Engine:   make([]string, 0, len(rows)),
		Other:    make([]int, 0, len(rows)),
		Requests: make([]int, 0, len(rows)),
		Timeout:  make([]int, 0, len(rows)),
		Height:   domain.ChartHeight(len(rows)),
	}
	for _, a := range rows {
		c.Engine = append(c.Engine, a.Name)
		c.Other = append(c.Other, a.ErrorPercent(a.ErrorOther))
		c.Requests = append(c.Requests, a.ErrorPercent(a.ErrorRequests))
		c.Timeout = append(c.Timeout, a.ErrorPercent(a.ErrorTimeout))
	}
	return c
}

func scoreChart(active []domain.EngineAggregate, tr ports.Translator) domain.ScoreChart {
	points := make([]domain.BubblePoint, 0, len(active))
	for _, a := range active {
		points = append(points, domain.BubblePoint{
			Name:  a.Name,
			X:     a.ResultCount,
			Y:     a.ScorePerResult,
			Time:  a.TimeTotal,
			Score: a.Score,
		})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Score > points[j].Score })

	return domain.ScoreChart{
		Labels: domain.ScoreLabels{
			Title: tr.T(i18n.Scores),
			XAxis: tr.T(i18n.NumberOfResults),
			YAxis: tr.T(i18n.ScoresPerResult),
		},
		Stat: bubble.Layout(points),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

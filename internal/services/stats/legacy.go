package stats

import (
	"context"

	"github.com/vshulcz/enginestats/internal/domain"
	"github.com/vshulcz/enginestats/internal/i18n"
	"github.com/vshulcz/enginestats/internal/ports"
	"github.com/vshulcz/enginestats/internal/services/ranking"
)

// Legacy builds the five bar series of the simple statistics page:
// page loads, number of results, scores, scores per result and errors.
func (b *Builder) Legacy(ctx context.Context, tr ports.Translator) ([]domain.RankedSeries, error) {
	aggs, err := b.aggregates(ctx)
	if err != nil {
		return nil, err
	}

	var pageloads, results, scores, perResult, errs []domain.RankedEntry
	for _, a := range aggs {
		if a.ErrorCount > 0 {
			errs = append(errs, domain.RankedEntry{Name: a.Name, Avg: float64(a.ErrorCount)})
		}
		if a.ResultSamples == 0 {
			continue
		}
		pageloads = append(pageloads, domain.RankedEntry{Name: a.Name, Avg: a.TimeTotalMeasured})
		results = append(results, domain.RankedEntry{Name: a.Name, Avg: a.ResultCountAvg})
		scores = append(scores, domain.RankedEntry{Name: a.Name, Avg: a.Score})
		perResult = append(perResult, domain.RankedEntry{Name: a.Name, Avg: a.ScorePerResult})
	}

	return []domain.RankedSeries{
		{Title: tr.T(i18n.PageLoads), Entries: ranking.Rank(pageloads, false)},
		{Title: tr.T(i18n.NumberOfResults), Entries: ranking.Rank(results, true)},
		{Title: tr.T(i18n.Scores), Entries: ranking.Rank(scores, true)},
		{Title: tr.T(i18n.ScoresPerResult), Entries: ranking.Rank(perResult, true)},
		{Title: tr.T(i18n.Errors), Entries: ranking.Rank(errs, true)},
	}, nil
}

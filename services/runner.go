package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"asin-lister/models"
	"asin-lister/utils"
)

// Enricher supplies source marketplace data. Identifiers missing from the
// result have no data.
type Enricher interface {
	Lookup(ctx context.Context, asins []string) ([]models.SourceItemInfo, error)
}

// ExistenceChecker returns the subset of asins already listed on the destination.
type ExistenceChecker interface {
	Existing(ctx context.Context, asins []string) ([]string, error)
}

// ListingCreator submits payloads to the destination in one batch.
type ListingCreator interface {
	Create(ctx context.Context, payloads []models.ListingPayload) ([]models.CreateResult, error)
}

// OutcomeSink receives the final outcomes of a run.
type OutcomeSink interface {
	Publish(ctx context.Context, runID string, outcomes []models.ListingOutcome) error
}

// ListedRecorder is told which identifiers were listed successfully.
type ListedRecorder interface {
	RecordListed(ctx context.Context, listed []models.ListingOutcome) error
}

// CandidateRefresher stores candidates updated with fresh source data.
type CandidateRefresher interface {
	Refresh(ctx context.Context, candidates []models.ListingCandidate) error
}

// Runner drives one full pipeline run: concurrent enrichment and existence
// check, rule evaluation, batch submission and aggregation.
type Runner struct {
	Enricher  Enricher
	Existence ExistenceChecker
	Creator   ListingCreator
	Sinks      []OutcomeSink
	Recorders  []ListedRecorder
	Refreshers []CandidateRefresher

	pipeline  *Pipeline
	logger    *utils.Logger
	refreshWG sync.WaitGroup
}

// NewRunner wires a Runner around the three required collaborators.
func NewRunner(enricher Enricher, existence ExistenceChecker, creator ListingCreator, logger *utils.Logger) *Runner {
	return &Runner{
		Enricher:  enricher,
		Existence: existence,
		Creator:   creator,
		pipeline:  NewPipeline(logger),
		logger:    logger,
	}
}

// Run evaluates candidates against a snapshot of settings and returns a report
// holding exactly one outcome per distinct identifier. It never panics and
// never returns an error: every failure becomes an outcome.
func (r *Runner) Run(ctx context.Context, candidates []models.ListingCandidate, settings models.Settings) (report *models.RunReport) {
	report = &models.RunReport{RunID: uuid.NewString(), StartedAt: time.Now()}
	settings = settings.Clone()

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("[runner] Run %s aborted: %v", report.RunID, rec)
			report.Outcomes = append(report.Outcomes, models.ListingOutcome{
				Status:  models.StatusError,
				Message: fmt.Sprintf("unexpected failure: %v", rec),
			})
		}
		report.FinishedAt = time.Now()
		report.Buckets = Aggregate(report.Outcomes)
	}()

	candidates = uniqueCandidates(candidates)
	report.Outcomes = []models.ListingOutcome{}
	if len(candidates) == 0 {
		r.logger.Warn("[runner] Run %s has no candidates", report.RunID)
		return report
	}

	asins := make([]string, len(candidates))
	for i, c := range candidates {
		asins[i] = c.ASIN
	}
	r.logger.Info("[runner] Run %s starting with %d candidates", report.RunID, len(asins))

	infos, existing, err := r.fetch(ctx, asins)
	if err != nil {
		r.logger.Error("[runner] Run %s: %v", report.RunID, err)
		report.Outcomes = failAll(asins, err.Error())
		return report
	}

	r.refresh(ctx, candidates, infos)

	rejected, payloads := r.pipeline.Evaluate(candidates, settings, infos, existing)
	byASIN := make(map[string]models.ListingOutcome, len(candidates))
	for _, o := range rejected {
		byASIN[o.ASIN] = o
	}

	switch {
	case len(payloads) == 0:
	case ctx.Err() != nil:
		r.logger.Warn("[runner] Run %s cancelled before submission", report.RunID)
		for _, p := range payloads {
			byASIN[p.ASIN] = models.ListingOutcome{ASIN: p.ASIN, Status: models.StatusError, Message: "run cancelled before submission"}
		}
	default:
		report.Submitted = len(payloads)
		for _, o := range r.submit(ctx, payloads) {
			byASIN[o.ASIN] = o
		}
	}

	for _, a := range asins {
		report.Outcomes = append(report.Outcomes, byASIN[a])
	}

	r.afterRun(ctx, report)
	return report
}

// fetch runs enrichment and the existence check concurrently and waits for both.
func (r *Runner) fetch(ctx context.Context, asins []string) (map[string]models.SourceItemInfo, map[string]struct{}, error) {
	var (
		wg        sync.WaitGroup
		infos     []models.SourceItemInfo
		existing  []string
		infoErr   error
		existsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		defer recoverInto(&infoErr)
		infos, infoErr = r.Enricher.Lookup(ctx, asins)
	}()
	go func() {
		defer wg.Done()
		defer recoverInto(&existsErr)
		existing, existsErr = r.Existence.Existing(ctx, asins)
	}()
	wg.Wait()

	if infoErr != nil {
		return nil, nil, fmt.Errorf("enrichment failed: %w", infoErr)
	}
	if existsErr != nil {
		return nil, nil, fmt.Errorf("existing-listing check failed: %w", existsErr)
	}

	infoByASIN := make(map[string]models.SourceItemInfo, len(infos))
	for _, info := range infos {
		if _, dup := infoByASIN[info.ASIN]; !dup {
			infoByASIN[info.ASIN] = info
		}
	}
	existingSet := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		existingSet[a] = struct{}{}
	}
	r.logger.Info("[runner] Enrichment returned %d items, %d already listed", len(infoByASIN), len(existingSet))
	return infoByASIN, existingSet, nil
}

// refresh hands the candidates, updated with fresh source data, to every
// refresher in the background. Failures are logged only.
func (r *Runner) refresh(ctx context.Context, candidates []models.ListingCandidate, infos map[string]models.SourceItemInfo) {
	if len(r.Refreshers) == 0 {
		return
	}
	updated := RefreshCandidates(candidates, infos, time.Now())
	bg := context.WithoutCancel(ctx)

	for _, rf := range r.Refreshers {
		r.refreshWG.Add(1)
		go func(rf CandidateRefresher) {
			defer r.refreshWG.Done()
			var err error
			func() {
				defer recoverInto(&err)
				err = rf.Refresh(bg, updated)
			}()
			if err != nil {
				r.logger.Warn("[runner] Refreshing %d candidates failed: %v", len(updated), err)
			}
		}(rf)
	}
}

// Wait blocks until background refreshes have finished.
func (r *Runner) Wait() {
	r.refreshWG.Wait()
}

// RefreshCandidates returns copies of candidates carrying the latest source
// data. A stored name is kept; an empty one takes the source title. Items
// without source data are marked out of stock.
func RefreshCandidates(candidates []models.ListingCandidate, infos map[string]models.SourceItemInfo, now time.Time) []models.ListingCandidate {
	out := make([]models.ListingCandidate, 0, len(candidates))
	for _, c := range candidates {
		info, ok := infos[c.ASIN]
		inStock := ok && info.HasPrice()
		if ok {
			if strings.TrimSpace(c.Name) == "" && info.Title != "" {
				c.Name = info.Title
			}
			if info.Image != "" {
				c.Image = info.Image
			}
			if info.HasPrice() {
				c.Price = *info.Price
			}
		}
		c.InStock = &inStock
		c.UpdatedAt = now
		out = append(out, c)
	}
	return out
}

// submit sends payloads in one batch and merges the per-item responses.
func (r *Runner) submit(ctx context.Context, payloads []models.ListingPayload) (outcomes []models.ListingOutcome) {
	var err error
	var results []models.CreateResult
	func() {
		defer recoverInto(&err)
		results, err = r.Creator.Create(ctx, payloads)
	}()

	if err != nil {
		r.logger.Error("[runner] Listing creation failed for %d payloads: %v", len(payloads), err)
		for _, p := range payloads {
			outcomes = append(outcomes, models.ListingOutcome{
				ASIN: p.ASIN, Status: models.StatusError, Message: "listing creation failed: " + err.Error(),
			})
		}
		return outcomes
	}

	return MergeCreateResults(payloads, results)
}

// MergeCreateResults pairs each submitted payload with its response by
// identifier. Payloads without a response become errors.
func MergeCreateResults(payloads []models.ListingPayload, results []models.CreateResult) []models.ListingOutcome {
	byASIN := make(map[string]models.CreateResult, len(results))
	for _, res := range results {
		if _, dup := byASIN[res.ASIN]; !dup {
			byASIN[res.ASIN] = res
		}
	}

	out := make([]models.ListingOutcome, 0, len(payloads))
	for _, p := range payloads {
		res, ok := byASIN[p.ASIN]
		switch {
		case !ok:
			out = append(out, models.ListingOutcome{ASIN: p.ASIN, Status: models.StatusError, Message: "no response from listing service"})
		case res.OK:
			out = append(out, models.ListingOutcome{ASIN: p.ASIN, Status: models.StatusSuccess, Message: "listed", ItemCode: res.ItemCode})
		default:
			msg := res.Message
			if msg == "" {
				msg = "listing rejected"
			}
			if res.Code != "" {
				msg = fmt.Sprintf("%s (code %s)", msg, res.Code)
			}
			out = append(out, models.ListingOutcome{ASIN: p.ASIN, Status: models.StatusError, Message: msg})
		}
	}
	return out
}

// afterRun hands outcomes to sinks and recorders. Their failures are logged
// and never change the report.
func (r *Runner) afterRun(ctx context.Context, report *models.RunReport) {
	var listed []models.ListingOutcome
	for _, o := range report.Outcomes {
		if o.Status == models.StatusSuccess {
			listed = append(listed, o)
		}
	}

	for _, sink := range r.Sinks {
		if err := sink.Publish(ctx, report.RunID, report.Outcomes); err != nil {
			r.logger.Warn("[runner] Publishing outcomes for run %s failed: %v", report.RunID, err)
		}
	}
	if len(listed) == 0 {
		return
	}
	for _, rec := range r.Recorders {
		if err := rec.RecordListed(ctx, listed); err != nil {
			r.logger.Warn("[runner] Recording listed items for run %s failed: %v", report.RunID, err)
		}
	}
}

func uniqueCandidates(candidates []models.ListingCandidate) []models.ListingCandidate {
	seen := utils.NewStringSet()
	out := make([]models.ListingCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ASIN == "" || !seen.Add(c.ASIN) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func failAll(asins []string, msg string) []models.ListingOutcome {
	out := make([]models.ListingOutcome, 0, len(asins))
	for _, a := range asins {
		out = append(out, models.ListingOutcome{ASIN: a, Status: models.StatusError, Message: msg})
	}
	return out
}

func recoverInto(err *error) {
	if rec := recover(); rec != nil {
		*err = fmt.Errorf("panic: %v", rec)
	}
}

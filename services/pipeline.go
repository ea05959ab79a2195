package services

import (
	"fmt"
	"strings"
	"unicode"

	"asin-lister/models"
	"asin-lister/utils"
)

// Outcome messages.
const (
	msgPriceUnavailable = "source price unavailable"
	msgNotPrime         = "not prime eligible"
	msgSingleSeller     = "single seller item"
	msgDeniedASIN       = "identifier is deny-listed"
	msgForbiddenWords   = "title contains forbidden words"
	msgAlreadyListed    = "already listed on destination"
	msgPriceNotComputed = "destination price could not be computed"
)

// Pipeline applies the eligibility rule chain to candidates and builds
// listing payloads for the ones that pass.
type Pipeline struct {
	logger *utils.Logger
}

// NewPipeline creates a Pipeline with the given logger.
func NewPipeline(logger *utils.Logger) *Pipeline {
	return &Pipeline{logger: logger}
}

// Evaluate checks every candidate in input order, stopping at the first failing
// rule. Rejected candidates get a terminal outcome; the others become payloads.
// sourceInfo is keyed by identifier; existing holds identifiers already listed
// on the destination.
func (p *Pipeline) Evaluate(
	candidates []models.ListingCandidate,
	settings models.Settings,
	sourceInfo map[string]models.SourceItemInfo,
	existing map[string]struct{},
) ([]models.ListingOutcome, []models.ListingPayload) {
	denied := make(map[string]struct{}, len(settings.DeniedASINs))
	for _, a := range settings.DeniedASINs {
		denied[strings.ToUpper(strings.TrimSpace(a))] = struct{}{}
	}
	classifier := NewClassifier(settings)

	outcomes := make([]models.ListingOutcome, 0, len(candidates))
	payloads := make([]models.ListingPayload, 0, len(candidates))

	for _, c := range candidates {
		outcome, payload := p.evaluateOne(c, settings, sourceInfo, existing, denied, classifier)
		if payload != nil {
			payloads = append(payloads, *payload)
			continue
		}
		p.logger.Debug("[pipeline] %s → %s: %s", outcome.ASIN, outcome.Status, outcome.Message)
		outcomes = append(outcomes, *outcome)
	}

	p.logger.Info("[pipeline] Evaluated %d candidates → %d payloads, %d rejected",
		len(candidates), len(payloads), len(outcomes))
	return outcomes, payloads
}

func (p *Pipeline) evaluateOne(
	c models.ListingCandidate,
	settings models.Settings,
	sourceInfo map[string]models.SourceItemInfo,
	existing map[string]struct{},
	denied map[string]struct{},
	classifier *Classifier,
) (outcome *models.ListingOutcome, payload *models.ListingPayload) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("[pipeline] Panic while evaluating %s: %v", c.ASIN, r)
			outcome = reject(c.ASIN, models.StatusError, fmt.Sprintf("unexpected failure: %v", r))
			payload = nil
		}
	}()

	info, ok := sourceInfo[c.ASIN]
	if !ok || !info.HasPrice() {
		return reject(c.ASIN, models.StatusError, msgPriceUnavailable), nil
	}

	if settings.PrimeOnly {
		if info.IsPrime != nil && !*info.IsPrime {
			return reject(c.ASIN, models.StatusForbidden, msgNotPrime), nil
		}
		if info.ShipDays != nil && *info.ShipDays > settings.MaxShipDays {
			return reject(c.ASIN, models.StatusForbidden,
				fmt.Sprintf("ships in %d days (max %d)", *info.ShipDays, settings.MaxShipDays)), nil
		}
	}

	if info.SellerCount != nil && *info.SellerCount <= 1 {
		return reject(c.ASIN, models.StatusForbidden, msgSingleSeller), nil
	}

	if _, ok := denied[c.ASIN]; ok {
		return reject(c.ASIN, models.StatusForbidden, msgDeniedASIN), nil
	}

	name := displayName(c, info)
	if words := matchForbiddenWords(name, settings.ForbiddenWords); len(words) > 0 {
		o := reject(c.ASIN, models.StatusForbidden, msgForbiddenWords)
		o.ForbiddenWords = words
		return o, nil
	}

	if _, ok := existing[c.ASIN]; ok {
		return reject(c.ASIN, models.StatusExists, msgAlreadyListed), nil
	}

	price := ApplyPriceRules(*info.Price, settings.PriceRules)
	if price <= 0 {
		return reject(c.ASIN, models.StatusError, msgPriceNotComputed), nil
	}
	title := EraseWords(name, settings.EraseWords)

	image := c.Image
	if image == "" {
		image = info.Image
	}

	return nil, &models.ListingPayload{
		ASIN:           c.ASIN,
		Price:          price,
		ShippingMethod: settings.ShippingMethod,
		Title:          title,
		Image:          image,
		CategoryCode:   classifier.Classify(title).Code(),
		Stock:          settings.MaxStock,
		CatalogID:      c.CatalogID,
	}
}

// EraseWords removes every occurrence of each word from title, in order, then
// collapses whitespace.
func EraseWords(title string, words []string) string {
	for _, w := range words {
		if w == "" {
			continue
		}
		title = strings.ReplaceAll(title, w, "")
	}
	return normaliseText(title)
}

func matchForbiddenWords(name string, words []string) []string {
	lower := strings.ToLower(name)
	var matched []string
	for _, w := range words {
		if w == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(w)) {
			matched = append(matched, w)
		}
	}
	return matched
}

func displayName(c models.ListingCandidate, info models.SourceItemInfo) string {
	if strings.TrimSpace(c.Name) != "" {
		return c.Name
	}
	return info.Title
}

func reject(asin string, status models.OutcomeStatus, msg string) *models.ListingOutcome {
	return &models.ListingOutcome{ASIN: asin, Status: status, Message: msg}
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

package services

import (
	"fmt"
	"strings"
	"time"

	"asin-lister/models"
	"asin-lister/utils"
)

// Aggregate groups outcomes into the four status buckets, preserving input
// order within each bucket. The result is never nil and its slices are never
// nil, so an empty run is distinguishable from one that was never aggregated.
func Aggregate(outcomes []models.ListingOutcome) *models.OutcomeBuckets {
	b := &models.OutcomeBuckets{
		Exists:    []models.ListingOutcome{},
		Forbidden: []models.ListingOutcome{},
		Error:     []models.ListingOutcome{},
		Success:   []models.ListingOutcome{},
	}
	for _, o := range outcomes {
		switch o.Status {
		case models.StatusExists:
			b.Exists = append(b.Exists, o)
		case models.StatusForbidden:
			b.Forbidden = append(b.Forbidden, o)
		case models.StatusSuccess:
			b.Success = append(b.Success, o)
		default:
			b.Error = append(b.Error, o)
		}
	}
	return b
}

// ReportService renders run reports for the console.
type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

func (s *ReportService) Print(r *models.RunReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  LISTING RUN %s\033[0m\n", r.RunID)
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	if r.Buckets == nil {
		fmt.Printf("  Run was not aggregated\n\n")
		return
	}
	b := r.Buckets

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Identifiers      : \033[1m%d\033[0m\n", b.Total())
	fmt.Printf("  Submitted        : \033[1m%d\033[0m\n", r.Submitted)
	fmt.Printf("  Duration         : %v\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Println()

	printBucket("Listed", "\033[1;32m", b.Success, thin)
	printBucket("Already listed", "\033[1;34m", b.Exists, thin)
	printBucket("Forbidden", "\033[1;33m", b.Forbidden, thin)
	printBucket("Errors", "\033[1;31m", b.Error, thin)

	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)
}

func printBucket(title, colour string, outcomes []models.ListingOutcome, thin string) {
	fmt.Printf("%s  %s (%d)\033[0m\n", colour, title, len(outcomes))
	fmt.Printf("  %s\n", thin)
	if len(outcomes) == 0 {
		fmt.Printf("  none\n\n")
		return
	}
	for _, o := range outcomes {
		detail := o.Message
		if o.ItemCode != "" {
			detail = "item " + o.ItemCode
		}
		if len(o.ForbiddenWords) > 0 {
			detail += ": " + strings.Join(o.ForbiddenWords, ", ")
		}
		fmt.Printf("  %-12s %s\n", o.ASIN, truncate(detail, 40))
	}
	fmt.Println()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

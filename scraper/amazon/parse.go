package amazon

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"asin-lister/models"
)

var (
	priceRe      = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	sellerRe     = regexp.MustCompile(`[(（]\s*(\d+)\s*[)）]|(\d+)\s*(?:件|offers?|sellers?)`)
	jpDateRe     = regexp.MustCompile(`(\d{1,2})月\s*(\d{1,2})日`)
	dayRangeRe   = regexp.MustCompile(`(\d+)\s*(?:-|～|~|〜)?\s*(\d+)?\s*(?:日|days?|business days?)`)
	todayWords   = []string{"本日", "今日", "today"}
	tomorrowWord = []string{"明日", "tomorrow"}
)

// toSourceInfo turns the page fields into enrichment data. Fields that could
// not be parsed stay nil so the pipeline treats them as unknown.
func toSourceInfo(asin string, d detailData, now time.Time) models.SourceItemInfo {
	info := models.SourceItemInfo{
		ASIN:  asin,
		Title: strings.TrimSpace(d.Title),
		Image: d.Image,
	}
	if p, ok := parsePrice(d.Price); ok {
		info.Price = &p
	}
	if n, ok := parseSellerCount(d.Sellers); ok {
		info.SellerCount = &n
	}
	if days, ok := parseShipDays(d.Delivery, now); ok {
		info.ShipDays = &days
	}
	info.IsPrime = primeStatus(d)
	return info
}

// primeStatus is true when a Prime badge was found and false only when the
// delivery block declares a non-Prime delivery type. Anything else is unknown.
func primeStatus(d detailData) *bool {
	var v bool
	switch {
	case d.Prime:
		v = true
	case d.DeliveryType != "" && !strings.Contains(strings.ToLower(d.DeliveryType), "prime"):
		v = false
	default:
		return nil
	}
	return &v
}

// parsePrice reads the first number in text such as "￥3,400" or "$12.99".
func parsePrice(text string) (float64, bool) {
	m := priceRe.FindString(text)
	if m == "" {
		return 0, false
	}
	p, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil || p <= 0 {
		return 0, false
	}
	return p, true
}

// parseSellerCount reads "New (5) from ￥3,400" or "出品者 5 件".
func parseSellerCount(text string) (int, bool) {
	m := sellerRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	raw := m[1]
	if raw == "" {
		raw = m[2]
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseShipDays estimates the days until delivery from the delivery block.
// A calendar date ("10月18日") is measured from now, rolling into next year
// when the date has already passed; a range ("3-5日") uses its upper bound.
func parseShipDays(text string, now time.Time) (int, bool) {
	lower := strings.ToLower(text)
	if lower == "" {
		return 0, false
	}
	for _, w := range todayWords {
		if strings.Contains(lower, w) {
			return 0, true
		}
	}
	for _, w := range tomorrowWord {
		if strings.Contains(lower, w) {
			return 1, true
		}
	}

	if m := jpDateRe.FindStringSubmatch(lower); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return 0, false
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		target := time.Date(now.Year(), time.Month(month), day, 0, 0, 0, 0, now.Location())
		if target.Before(today) {
			target = target.AddDate(1, 0, 0)
		}
		return int(target.Sub(today).Hours() / 24), true
	}

	if m := dayRangeRe.FindStringSubmatch(lower); m != nil {
		raw := m[1]
		if m[2] != "" {
			raw = m[2]
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

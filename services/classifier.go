package services

import (
	"strings"

	"asin-lister/models"
)

// CategoryDecision is the classifier's answer for one title. Decided is false
// when neither the manual map nor the automatic cascade produced a code.
type CategoryDecision struct {
	MainCode      string
	BeautySubCode string
	Decided       bool
	Manual        bool
}

// Code returns the category code to transmit downstream: the beauty
// sub-code for beauty items (skin care when unset), the main code otherwise,
// and "" when there is no decision.
func (d CategoryDecision) Code() string {
	if !d.Decided {
		return ""
	}
	if !d.Manual && d.MainCode == CategoryBeauty {
		if d.BeautySubCode == "" {
			return BeautySkinCare
		}
		return d.BeautySubCode
	}
	return d.MainCode
}

// Classifier assigns destination category codes from product titles. It is a
// pure function of the title and its rule set.
type Classifier struct {
	manual []models.CategoryMapping
	auto   bool
	beauty []CategoryRule
}

// NewClassifier builds a Classifier from the run's settings.
func NewClassifier(settings models.Settings) *Classifier {
	return &Classifier{
		manual: settings.CategoryMap,
		auto:   settings.AutoCategory,
		beauty: beautySubRules,
	}
}

// Classify runs the manual keyword map and then, if enabled, the automatic cascade.
func (c *Classifier) Classify(title string) CategoryDecision {
	if code, ok := c.manualCode(title); ok {
		return CategoryDecision{MainCode: code, Decided: true, Manual: true}
	}
	if !c.auto {
		return CategoryDecision{}
	}

	main := classifyMain(title)
	d := CategoryDecision{MainCode: main, Decided: true}
	if main == CategoryBeauty {
		d.BeautySubCode = classifyBeauty(title, c.beauty)
	}
	return d
}

func (c *Classifier) manualCode(title string) (string, bool) {
	lower := strings.ToLower(title)
	for _, m := range c.manual {
		if m.Keyword == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(m.Keyword)) {
			return m.Code, true
		}
	}
	return "", false
}

func classifyMain(title string) string {
	lower := strings.ToLower(title)

	if isSupplement(lower) {
		return CategorySupplement
	}

	razor := containsAny(lower, razorKeywords)
	electric := containsAny(lower, electricHintKeywords)
	if containsAny(lower, applianceKeywords) || (razor && electric) {
		// razor + electric hint + disposable hint is daily goods
		if razor && containsAny(lower, disposableHintKeywords) && !containsAny(lower, applianceKeywords) {
			return CategoryDailyGoods
		}
		return CategoryAppliance
	}
	if razor {
		return CategoryDailyGoods
	}
	return CategoryBeauty
}

func isSupplement(lower string) bool {
	if containsAny(lower, supplementKeywords) {
		return true
	}
	return containsAny(lower, nutrientKeywords) &&
		(containsAny(lower, dosageFormKeywords) || dosageCountRegexp.MatchString(lower))
}

func classifyBeauty(title string, rules []CategoryRule) string {
	lower := strings.ToLower(title)
	for _, r := range rules {
		if containsAny(lower, r.Keywords) {
			return r.Code
		}
	}
	return BeautySkinCare
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

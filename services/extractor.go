package services

import (
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"strings"

	"asin-lister/utils"
)

// asinRegexp validates a candidate cell before it is upper-cased, so
// lower-case identifiers are accepted.
var asinRegexp = regexp.MustCompile(`^[A-Za-z0-9]{10}$`)

const (
	byteOrderMark = "\ufeff"
	headerToken   = "asin"
	quoteChars    = `"'`
)

// Extractor pulls identifiers out of loosely structured tabular text such as
// spreadsheet exports.
type Extractor struct {
	logger *utils.Logger
}

// NewExtractor creates an Extractor with the given logger.
func NewExtractor(logger *utils.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract returns the deduplicated, upper-cased identifiers found in text, in
// first-seen order. An empty result means nothing was importable.
func (e *Extractor) Extract(text string) []string {
	text = strings.TrimPrefix(text, byteOrderMark)

	records := e.readRecords(text)
	if len(records) == 0 {
		e.logger.Warn("[extractor] No non-blank lines in input")
		return []string{}
	}

	column, start := 0, 0
	for i, cell := range records[0] {
		if strings.ToLower(stripQuotes(cell)) == headerToken {
			column, start = i, 1
			e.logger.Debug("[extractor] Header row found, using column %d", i)
			break
		}
	}

	set := utils.NewStringSet()
	for _, cells := range records[start:] {
		if column >= len(cells) {
			continue
		}
		if asin, ok := NormalizeIdentifier(cells[column]); ok {
			set.Add(asin)
		}
	}

	e.logger.Info("[extractor] Extracted %d identifiers from %d rows", set.Size(), len(records)-start)
	return set.Values()
}

// readRecords parses text with the delimiter of its first non-blank line.
// Quoted cells may contain the delimiter. Blank rows and rows that cannot be
// parsed are skipped.
func (e *Extractor) readRecords(text string) [][]string {
	first := ""
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			first = line
			break
		}
	}
	if first == "" {
		return nil
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = detectDelimiter(first)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				e.logger.Debug("[extractor] Skipping unparsable row: %v", err)
				continue
			}
			e.logger.Warn("[extractor] Stopped reading input: %v", err)
			break
		}
		if blankRecord(rec) {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// detectDelimiter picks the most frequent of comma, semicolon and tab outside
// double quotes. Comma wins ties and lines without any delimiter.
func detectDelimiter(line string) rune {
	counts := map[rune]int{}
	inQuotes := false
	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case !inQuotes && (ch == ',' || ch == ';' || ch == '\t'):
			counts[ch]++
		}
	}
	best := ','
	for _, d := range []rune{';', '\t'} {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

func blankRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// NormalizeIdentifier trims and unquotes a single value and returns it upper-cased
// if it is a valid identifier. Used for manual entry as well as extraction.
func NormalizeIdentifier(raw string) (string, bool) {
	v := strings.TrimSpace(stripQuotes(strings.TrimSpace(raw)))
	if !asinRegexp.MatchString(v) {
		return "", false
	}
	return strings.ToUpper(v), true
}

func stripQuotes(s string) string {
	return strings.Trim(strings.TrimSpace(s), quoteChars)
}

// Package extract pulls a plausible tempo out of unstructured song-page
// markup. Strategies are ordered; the first hit wins and values outside the
// plausibility window are discarded, never clamped.
package extract

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Plausible tempo window. Numbers outside it are page noise (years, chart
// positions, durations), not tempos.
const (
	minPlausibleBPM = 40
	maxPlausibleBPM = 240
)

var (
	bpmPattern     = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*BPM`)
	leadingNumber  = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
	tempoSelectors = "[data-tempo], .tempo, #tempo"
)

// BPMFromReader parses HTML and runs BPM over it. Unparseable content is an
// extraction miss, not an error.
func BPMFromReader(r io.Reader) (float64, bool) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return 0, false
	}
	return BPM(doc)
}

// BPM applies the ordered extraction strategies to a parsed page.
func BPM(doc *goquery.Document) (float64, bool) {
	if bpm, ok := fromFullText(doc); ok {
		return bpm, true
	}
	if bpm, ok := fromBPMNeighborhood(doc); ok {
		return bpm, true
	}
	return fromTempoElement(doc)
}

// fromFullText scans the whole visible text for "<number> BPM" occurrences.
// The first plausible occurrence is frequently a genre or category average,
// so with two or more the second one is taken.
func fromFullText(doc *goquery.Document) (float64, bool) {
	var plausible []float64
	for _, m := range bpmPattern.FindAllStringSubmatch(doc.Text(), -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if v >= minPlausibleBPM && v <= maxPlausibleBPM {
			plausible = append(plausible, v)
		}
	}

	switch {
	case len(plausible) >= 2:
		return plausible[1], true
	case len(plausible) == 1:
		return plausible[0], true
	default:
		return 0, false
	}
}

// fromBPMNeighborhood finds the first element whose own text nodes mention
// "BPM" and applies the pattern to that element's surrounding text.
func fromBPMNeighborhood(doc *goquery.Document) (float64, bool) {
	var host *goquery.Selection
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(strings.ToUpper(ownText(s)), "BPM") {
			host = s
			return false
		}
		return true
	})

	if host == nil {
		return 0, false
	}

	m := bpmPattern.FindStringSubmatch(host.Text())
	if m == nil {
		if parent := host.Parent(); parent.Length() > 0 {
			m = bpmPattern.FindStringSubmatch(parent.Text())
		}
	}
	if m == nil {
		return 0, false
	}

	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < minPlausibleBPM || v > maxPlausibleBPM {
		return 0, false
	}
	return v, true
}

// fromTempoElement reads the leading number of a dedicated tempo marker.
func fromTempoElement(doc *goquery.Document) (float64, bool) {
	elem := doc.Find(tempoSelectors).First()
	if elem.Length() == 0 {
		return 0, false
	}

	m := leadingNumber.FindStringSubmatch(elem.Text())
	if m == nil {
		return 0, false
	}

	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < minPlausibleBPM || v > maxPlausibleBPM {
		return 0, false
	}
	return v, true
}

// ownText concatenates the element's direct text nodes, excluding children.
func ownText(s *goquery.Selection) string {
	var b strings.Builder
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			b.WriteString(c.Text())
		}
	})
	return b.String()
}

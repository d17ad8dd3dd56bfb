package model

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// RiskScoreCard holds the risk scores as "value/max" strings
type RiskScoreCard struct {
	BizCriticality     *string `json:"bizCriticalityScore"`
	DataClass          *string `json:"dataClassScore"`
	Access             *string `json:"accessScore"`
	OpenVuln           *string `json:"openVulnScore"`
	ChangeSignificance *string `json:"changeSignificanceScore"`
}

type RiskScore struct {
	Label string
	Value string
}

// Scores returns the scores in the order they are reported.
func (c *RiskScoreCard) Scores() ([]RiskScore, error) {
	if c == nil {
		return nil, fmt.Errorf("riskScoreCard: %w", ErrMissingScore)
	}
	fields := []struct {
		label string
		name  string
		value *string
	}{
		{"Business Criticality Score", "bizCriticalityScore", c.BizCriticality},
		{"Data Class Score", "dataClassScore", c.DataClass},
		{"Access Score", "accessScore", c.Access},
		{"Open Vulnerability Score", "openVulnScore", c.OpenVuln},
		{"Change Significance Score", "changeSignificanceScore", c.ChangeSignificance},
	}
	ret := make([]RiskScore, 0, len(fields))
	for _, f := range fields {
		if f.value == nil {
			return nil, fmt.Errorf("riskScoreCard.%s: %w", f.name, ErrMissingScore)
		}
		ret = append(ret, RiskScore{Label: f.label, Value: *f.value})
	}
	return ret, nil
}

// TotalScore sums the numerators, the maximums are ignored
func TotalScore(scores []RiskScore) float64 {
	var total float64
	for _, s := range scores {
		total += Numerator(s.Value)
	}
	return total
}

var leadingFloatRx = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Numerator parses the leading number of the part before '/'. Trailing
// garbage is ignored, NaN is returned when there is no number at all.
func Numerator(score string) float64 {
	value, _, _ := strings.Cut(score, "/")
	m := leadingFloatRx.FindString(strings.TrimSpace(value))
	if m == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// FormatScore prints a score without a trailing fraction for whole numbers
func FormatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

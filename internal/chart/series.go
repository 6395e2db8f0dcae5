package chart

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxCategories caps the number of bars or points in one graphic.
const MaxCategories = 30

var ErrSeriesLength = errors.New("labels and values differ in length")

// Series is the ordered data shown by the chart.
type Series struct {
	Labels []string
	Values []float64
}

// ParseSeries derives a series from the comma separated text fields.
// Empty labels are dropped, non-numeric and non-finite values become 0 and both lists are
// capped at MaxCategories. Values are then aligned to the labels: missing
// values are 0, surplus values are dropped.
func ParseSeries(labelsText, valuesText string) Series {
	var labels []string
	for _, l := range strings.Split(labelsText, ",") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
		if len(labels) == MaxCategories {
			break
		}
	}

	var raw []float64
	if strings.TrimSpace(valuesText) != "" {
		for _, v := range strings.Split(valuesText, ",") {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				f = 0
			}
			raw = append(raw, f)
			if len(raw) == MaxCategories {
				break
			}
		}
	}

	values := make([]float64, len(labels))
	copy(values, raw)
	return Series{Labels: labels, Values: values}
}

// Len is the number of categories.
func (s Series) Len() int { return len(s.Labels) }

// Validate checks the structural invariants.
func (s Series) Validate() error {
	if len(s.Labels) != len(s.Values) {
		return fmt.Errorf("%w: %d labels, %d values", ErrSeriesLength, len(s.Labels), len(s.Values))
	}
	if len(s.Labels) > MaxCategories {
		return fmt.Errorf("too many categories: %d > %d", len(s.Labels), MaxCategories)
	}
	return nil
}

// Max returns the largest value, never below zero.
func (s Series) Max() float64 {
	m := 0.0
	for _, v := range s.Values {
		if v > m {
			m = v
		}
	}
	return m
}

// LabelsText and ValuesText give back the editable text form.
func (s Series) LabelsText() string { return strings.Join(s.Labels, ", ") }

func (s Series) ValuesText() string {
	parts := make([]string, len(s.Values))
	for i, v := range s.Values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ", ")
}

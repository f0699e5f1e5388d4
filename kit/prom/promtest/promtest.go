// Package promtest provides helpers for extracting prometheus metrics.
// These functions are only intended to be called from test files,
// as there is a dependency on the standard library testing package.
package promtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// FindMetric iterates through mfs to find the first metric family matching name.
// If a metric family matches, then the metrics inside the family are searched,
// and the first metric whose labels match the given labels are returned.
// If no matches are found, FindMetric returns nil.
func FindMetric(mfs []*dto.MetricFamily, name string, labels map[string]string) *dto.Metric {
	_, m := findMetric(mfs, name, labels)
	return m
}

// MustFindMetric returns the matching metric, or if no matching metric could be found,
// it calls tb.Log with helpful output of what was actually available, before calling tb.FailNow.
func MustFindMetric(tb testing.TB, mfs []*dto.MetricFamily, name string, labels map[string]string) *dto.Metric {
	tb.Helper()

	fam, m := findMetric(mfs, name, labels)
	if fam == nil {
		tb.Logf("metric family with name %q not found", name)
		tb.Log("available names:")
		for _, mf := range mfs {
			tb.Logf("\t%s", mf.GetName())
		}
		tb.FailNow()
		return nil
	}

	if m == nil {
		tb.Logf("found metric family with name %q, but metric with labels %v not found", name, labels)
		tb.Logf("available labels on metric family %q:", name)

		for _, m := range fam.Metric {
			pairs := make([]string, len(m.Label))
			for i, l := range m.Label {
				pairs[i] = fmt.Sprintf("%q: %q", l.GetName(), l.GetValue())
			}
			tb.Logf("\t%s", strings.Join(pairs, ", "))
		}
		tb.FailNow()
		return nil
	}

	return m
}

func findMetric(mfs []*dto.MetricFamily, name string, labels map[string]string) (*dto.MetricFamily, *dto.Metric) {
	var fam *dto.MetricFamily

	for _, mf := range mfs {
		if mf.GetName() == name {
			fam = mf
			break
		}
	}

	if fam == nil {
		return nil, nil
	}

	for _, m := range fam.Metric {
		if len(m.Label) != len(labels) {
			continue
		}

		match := true
		for _, l := range m.Label {
			if labels[l.GetName()] != l.GetValue() {
				match = false
				break
			}
		}

		if !match {
			continue
		}

		return fam, m
	}

	return fam, nil
}

// MustGather calls g.Gather and calls tb.Fatal if there was an error.
func MustGather(tb testing.TB, g prometheus.Gatherer) []*dto.MetricFamily {
	tb.Helper()

	mfs, err := g.Gather()
	if err != nil {
		tb.Fatalf("error while gathering metrics: %v", err)
	}

	return mfs
}

package summary

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/rendis/geogrid/internal/model"
)

func ip(n int) *int { return &n }

func rec(kw string, dist float64, org, lp, mp *int) model.VisibilityRecord {
	return model.VisibilityRecord{
		Keyword:       kw,
		Point:         model.GridPoint{DistanceKm: dist},
		OrganicRank:   org,
		LocalPackRank: lp,
		MapRank:       mp,
	}
}

func TestSummarize_Scenario(t *testing.T) {
	records := []model.VisibilityRecord{
		rec("pizza", 0, ip(1), nil, ip(3)),
		rec("pizza", 0, nil, ip(2), nil),
	}
	s := Summarize(records)

	if s.Total != 2 {
		t.Fatalf("total = %d, want 2", s.Total)
	}
	checks := []struct {
		c   model.Channel
		pct float64
		avg float64
	}{
		{model.ChannelOrganic, 50, 1},
		{model.ChannelLocalPack, 50, 2},
		{model.ChannelMaps, 50, 3},
	}
	for _, c := range checks {
		cs := s.Channel(c.c)
		if cs.PresencePct != c.pct {
			t.Errorf("%v presence = %v, want %v", c.c, cs.PresencePct, c.pct)
		}
		if cs.AvgRank == nil || *cs.AvgRank != c.avg {
			t.Errorf("%v avg = %v, want %v", c.c, cs.AvgRank, c.avg)
		}
	}
	if s.Organic.Top3Pct != 50 || s.Maps.Top3Pct != 50 {
		t.Errorf("top3 organic=%v maps=%v, want 50", s.Organic.Top3Pct, s.Maps.Top3Pct)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 {
		t.Fatalf("total = %d", s.Total)
	}
	for _, c := range model.Channels() {
		cs := s.Channel(c)
		if cs.PresencePct != 0 || cs.Top3Pct != 0 || cs.AvgRank != nil {
			t.Errorf("%v: %+v, want zeroed", c, cs)
		}
	}
}

func TestSummarize_AverageOmittedWhenAbsent(t *testing.T) {
	s := Summarize([]model.VisibilityRecord{rec("k", 0, ip(4), nil, nil)})
	if s.LocalPack.AvgRank != nil {
		t.Fatalf("local pack avg = %v, want nil", *s.LocalPack.AvgRank)
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(data), "avg_rank") != 1 {
		t.Errorf("expected only the organic avg_rank in %s", data)
	}
	if s.Organic.Top3Pct != 0 || s.Organic.PresencePct != 100 {
		t.Errorf("organic = %+v", s.Organic)
	}
}

func TestSummarize_Bounds(t *testing.T) {
	ranks := []*int{nil, ip(1), ip(2), ip(3), ip(4), ip(10), nil, ip(25)}
	var records []model.VisibilityRecord
	for i := range ranks {
		for j := range ranks {
			records = append(records, rec("k", float64(i), ranks[i], ranks[j], ranks[(i+j)%len(ranks)]))
			s := Summarize(records)
			for _, c := range model.Channels() {
				cs := s.Channel(c)
				if cs.PresencePct < 0 || cs.PresencePct > 100 {
					t.Fatalf("%v presence out of range: %v", c, cs.PresencePct)
				}
				if cs.Top3Pct > cs.PresencePct {
					t.Fatalf("%v top3 %v > presence %v", c, cs.Top3Pct, cs.PresencePct)
				}
			}
		}
	}
}

func TestByKeyword(t *testing.T) {
	records := []model.VisibilityRecord{
		rec("pizza", 0, ip(1), nil, nil),
		rec("pasta", 0, nil, nil, nil),
		rec("pizza", 0, ip(3), nil, nil),
	}
	groups := ByKeyword(records)
	if len(groups) != 2 {
		t.Fatalf("got %d groups", len(groups))
	}
	if groups[0].Key != "pizza" || groups[1].Key != "pasta" {
		t.Errorf("order = %q, %q", groups[0].Key, groups[1].Key)
	}
	if groups[0].Total != 2 || *groups[0].Organic.AvgRank != 2 {
		t.Errorf("pizza = %+v", groups[0].Summary)
	}
	if groups[1].Organic.AvgRank != nil || groups[1].Organic.PresencePct != 0 {
		t.Errorf("pasta = %+v", groups[1].Summary)
	}
	if got := ByKeyword(nil); len(got) != 0 {
		t.Errorf("ByKeyword(nil) = %v", got)
	}
}

func TestBucket(t *testing.T) {
	tests := []struct {
		d    float64
		want string
	}{
		{0, "0-1km"},
		{0.999, "0-1km"},
		{1, "1-2km"},
		{1.5, "1-2km"},
		{2, "2-5km"},
		{4.99, "2-5km"},
		{5, "5km+"},
		{42, "5km+"},
		{math.Inf(1), "5km+"},
	}
	for _, tt := range tests {
		if got := Bucket(tt.d); got != tt.want {
			t.Errorf("Bucket(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestByDistance(t *testing.T) {
	records := []model.VisibilityRecord{
		rec("k", 0.2, ip(1), nil, nil),
		rec("k", 1.0, nil, nil, nil),
		rec("k", 7, ip(9), nil, nil),
	}
	groups := ByDistance(records)
	if len(groups) != len(Buckets) {
		t.Fatalf("got %d groups, want %d", len(groups), len(Buckets))
	}
	want := map[string]int{"0-1km": 1, "1-2km": 1, "2-5km": 0, "5km+": 1}
	for i, g := range groups {
		if g.Key != Buckets[i].Label {
			t.Errorf("group %d key = %q, want %q", i, g.Key, Buckets[i].Label)
		}
		if g.Total != want[g.Key] {
			t.Errorf("%s total = %d, want %d", g.Key, g.Total, want[g.Key])
		}
	}
	if groups[2].Organic.AvgRank != nil {
		t.Error("empty bucket must have no average")
	}
	if *groups[3].Organic.AvgRank != 9 {
		t.Errorf("5km+ avg = %v", *groups[3].Organic.AvgRank)
	}
}

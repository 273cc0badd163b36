// Package summary computes presence and rank statistics over visibility
// records.
package summary

import "github.com/rendis/geogrid/internal/model"

// ChannelStats holds the statistics of one channel. AvgRank is nil when no
// record has a rank on the channel.
type ChannelStats struct {
	Present     int      `json:"present"`
	PresencePct float64  `json:"presence_pct"`
	Top3Pct     float64  `json:"top3_pct"`
	AvgRank     *float64 `json:"avg_rank,omitempty"`
}

// Summary aggregates a set of records. An empty set yields Total == 0 with
// zero percentages and no averages.
type Summary struct {
	Total     int          `json:"total"`
	Organic   ChannelStats `json:"organic"`
	LocalPack ChannelStats `json:"local_pack"`
	Maps      ChannelStats `json:"maps"`
}

// Channel returns the statistics of channel c.
func (s Summary) Channel(c model.Channel) ChannelStats {
	switch c {
	case model.ChannelOrganic:
		return s.Organic
	case model.ChannelLocalPack:
		return s.LocalPack
	case model.ChannelMaps:
		return s.Maps
	}
	return ChannelStats{}
}

// Group is the summary of one partition of records.
type Group struct {
	Key string `json:"key"`
	Summary
}

// Summarize computes overall statistics.
func Summarize(records []model.VisibilityRecord) Summary {
	s := Summary{Total: len(records)}
	s.Organic = channelStats(records, model.ChannelOrganic)
	s.LocalPack = channelStats(records, model.ChannelLocalPack)
	s.Maps = channelStats(records, model.ChannelMaps)
	return s
}

func channelStats(records []model.VisibilityRecord, c model.Channel) ChannelStats {
	var cs ChannelStats
	if len(records) == 0 {
		return cs
	}

	var top3, sum int
	for _, r := range records {
		rank := r.Rank(c)
		if rank == nil {
			continue
		}
		cs.Present++
		sum += *rank
		if *rank <= 3 {
			top3++
		}
	}

	total := float64(len(records))
	cs.PresencePct = 100 * float64(cs.Present) / total
	cs.Top3Pct = 100 * float64(top3) / total
	if cs.Present > 0 {
		avg := float64(sum) / float64(cs.Present)
		cs.AvgRank = &avg
	}
	return cs
}

// ByKeyword summarizes each keyword separately, in first-seen order.
func ByKeyword(records []model.VisibilityRecord) []Group {
	var order []string
	parts := make(map[string][]model.VisibilityRecord)
	for _, r := range records {
		if _, ok := parts[r.Keyword]; !ok {
			order = append(order, r.Keyword)
		}
		parts[r.Keyword] = append(parts[r.Keyword], r)
	}

	groups := make([]Group, 0, len(order))
	for _, k := range order {
		groups = append(groups, Group{Key: k, Summary: Summarize(parts[k])})
	}
	return groups
}

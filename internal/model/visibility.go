package model

import "time"

// Channel is a surface where a business can show up for a keyword.
type Channel int

const (
	ChannelOrganic Channel = iota
	ChannelLocalPack
	ChannelMaps
)

// Channels returns every channel in display order.
func Channels() []Channel {
	return []Channel{ChannelOrganic, ChannelLocalPack, ChannelMaps}
}

func (c Channel) String() string {
	switch c {
	case ChannelOrganic:
		return "organic"
	case ChannelLocalPack:
		return "local_pack"
	case ChannelMaps:
		return "maps"
	}
	return "unknown"
}

// Label is the human readable channel name.
func (c Channel) Label() string {
	switch c {
	case ChannelOrganic:
		return "Organic"
	case ChannelLocalPack:
		return "Local Pack"
	case ChannelMaps:
		return "Maps"
	}
	return "Unknown"
}

// ResultEntry is one labeled entry of an ordered result list. Its position
// in the list is its rank.
type ResultEntry struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
	ID    string `json:"id,omitempty"` // provider-specific identifier, e.g. a place id
}

// VisibilityRecord is the observation for one (point, keyword) pair.
// A nil rank means the business was not found on that channel.
type VisibilityRecord struct {
	Keyword       string    `json:"keyword"`
	Point         GridPoint `json:"point"`
	OrganicRank   *int      `json:"organic_rank"`
	LocalPackRank *int      `json:"local_pack_rank"`
	MapRank       *int      `json:"map_rank"`
	ObservedAt    time.Time `json:"observed_at"`
}

// Rank returns the record's rank on channel c.
func (r VisibilityRecord) Rank(c Channel) *int {
	switch c {
	case ChannelOrganic:
		return r.OrganicRank
	case ChannelLocalPack:
		return r.LocalPackRank
	case ChannelMaps:
		return r.MapRank
	}
	return nil
}

// Scan identifies one scan run and the business it tracked.
type Scan struct {
	ID        string     `json:"id"`
	Business  string     `json:"business"`
	Address   string     `json:"address,omitempty"`
	PlaceID   string     `json:"place_id,omitempty"`
	Domain    string     `json:"domain,omitempty"`
	Config    ScanConfig `json:"config"`
	Keywords  []string   `json:"keywords"`
	CreatedAt time.Time  `json:"created_at"`
}

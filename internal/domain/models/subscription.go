package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Channel is a delivery channel for notification events.
type Channel string

const (
	ChannelStream Channel = "stream"
	ChannelChat   Channel = "chat"
	ChannelEmail  Channel = "email"
)

// Valid reports whether the channel is one of the closed set.
func (c Channel) Valid() bool {
	switch c {
	case ChannelStream, ChannelChat, ChannelEmail:
		return true
	}
	return false
}

// ChannelSet is a set of delivery channels.
type ChannelSet map[Channel]struct{}

// NewChannelSet builds a set, rejecting unknown channels.
func NewChannelSet(channels ...Channel) (ChannelSet, error) {
	s := make(ChannelSet, len(channels))
	for _, c := range channels {
		if !c.Valid() {
			return nil, fmt.Errorf("invalid channel: %q", c)
		}
		s[c] = struct{}{}
	}
	return s, nil
}

// Has reports membership.
func (s ChannelSet) Has(c Channel) bool {
	_, ok := s[c]
	return ok
}

// Merge adds every channel of other into s.
func (s ChannelSet) Merge(other ChannelSet) {
	for c := range other {
		s[c] = struct{}{}
	}
}

// Clone returns an independent copy.
func (s ChannelSet) Clone() ChannelSet {
	out := make(ChannelSet, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}

// Slice returns the channels in stable sorted order.
func (s ChannelSet) Slice() []Channel {
	out := make([]Channel, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s ChannelSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON decodes an array of channel names.
func (s *ChannelSet) UnmarshalJSON(b []byte) error {
	var names []Channel
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	set, err := NewChannelSet(names...)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

// Subscription maps a user to a ticker with a channel set.
// Unique per (user_id, ticker); re-subscribing merges channels.
type Subscription struct {
	UserID   string     `json:"user_id"`
	Ticker   string     `json:"ticker"`
	Channels ChannelSet `json:"channels"`
}

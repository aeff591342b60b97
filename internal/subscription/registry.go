package subscription

import (
	"sort"
	"sync"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
)

// Registry tracks which users want which tickers over which channels.
// It is the sole writer of subscription state. Safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	// userID -> ticker -> channels. At most one entry per (user, ticker).
	byUser map[string]map[string]models.ChannelSet
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[string]map[string]models.ChannelSet)}
}

// Subscribe upserts a subscription, merging channel sets on repeat calls.
func (r *Registry) Subscribe(userID, ticker string, channels models.ChannelSet) models.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	tickers, ok := r.byUser[userID]
	if !ok {
		tickers = make(map[string]models.ChannelSet)
		r.byUser[userID] = tickers
	}

	existing, ok := tickers[ticker]
	if !ok {
		existing = make(models.ChannelSet)
		tickers[ticker] = existing
	}
	existing.Merge(channels)

	return models.Subscription{UserID: userID, Ticker: ticker, Channels: existing.Clone()}
}

// List returns all subscriptions for a user, sorted by ticker.
func (r *Registry) List(userID string) []models.Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tickers := r.byUser[userID]
	out := make([]models.Subscription, 0, len(tickers))
	for ticker, channels := range tickers {
		out = append(out, models.Subscription{UserID: userID, Ticker: ticker, Channels: channels.Clone()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// Unsubscribe removes the (user, ticker) row. No-op if absent.
func (r *Registry) Unsubscribe(userID, ticker string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tickers, ok := r.byUser[userID]
	if !ok {
		return
	}
	delete(tickers, ticker)
	if len(tickers) == 0 {
		delete(r.byUser, userID)
	}
}

// SubscribersFor returns every subscription interested in a ticker,
// sorted by user for deterministic fan-out.
func (r *Registry) SubscribersFor(ticker string) []models.Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Subscription
	for userID, tickers := range r.byUser {
		if channels, ok := tickers[ticker]; ok {
			out = append(out, models.Subscription{UserID: userID, Ticker: ticker, Channels: channels.Clone()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

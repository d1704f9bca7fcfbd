// Package queue decides which pending stream a creator plays next.
//
// When every candidate holds the same number of upvotes (zero included) the
// queue rotates: candidates form a ring ordered by id and the entry after the
// creator's current stream is chosen, or the first entry when the current
// stream is no longer in the ring. Otherwise the highest tally wins, ties
// broken by the smallest id.
package queue

import (
	"sort"

	"github.com/templui/muzer/internal/model"
)

// Select returns the stream to promote, or nil when candidates is empty.
// candidates is not modified.
func Select(candidates []*model.QueuedStream, currentID string) *model.QueuedStream {
	if len(candidates) == 0 {
		return nil
	}

	ring := make([]*model.QueuedStream, len(candidates))
	copy(ring, candidates)
	sort.Slice(ring, func(i, j int) bool { return ring[i].ID < ring[j].ID })

	if allTied(ring) {
		return rotate(ring, currentID)
	}

	best := ring[0]
	for _, s := range ring[1:] {
		// strict comparison keeps the smallest id on equal counts
		if s.Upvotes > best.Upvotes {
			best = s
		}
	}
	return best
}

func allTied(streams []*model.QueuedStream) bool {
	for _, s := range streams[1:] {
		if s.Upvotes != streams[0].Upvotes {
			return false
		}
	}
	return true
}

func rotate(ring []*model.QueuedStream, currentID string) *model.QueuedStream {
	if currentID == "" {
		return ring[0]
	}
	for i, s := range ring {
		if s.ID == currentID {
			return ring[(i+1)%len(ring)]
		}
	}
	return ring[0]
}

package attribution

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"github.com/podsight/attribution-engine/internal/domain"
)

// HashPayload returns the canonical hex digest used to detect duplicate
// event payloads. An empty payload hashes like an empty byte slice, so two
// payload-less pixel fires still collide as intended.
func HashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// dedupeKey groups events that are candidates for collapse.
type dedupeKey struct {
	campaignID string
	channel    domain.Channel
	hash       string
}

// Dedupe collapses noisy duplicate event fires into a canonical touchpoint
// set. Events are grouped by (campaign, channel, payload hash); within each
// group, an event whose timestamp falls within window of an already-kept
// event is discarded. The earliest event in each cluster is kept:
// first-touch fidelity matters more than drop order.
//
// The result is ordered by (OccurredAt, ID) regardless of input order.
// Empty input yields empty output.
func Dedupe(events []domain.RawEvent, window time.Duration) []domain.Touchpoint {
	if len(events) == 0 {
		return nil
	}

	groups := make(map[dedupeKey][]domain.RawEvent)
	for _, ev := range events {
		k := dedupeKey{campaignID: ev.CampaignID, channel: ev.Channel, hash: HashPayload(ev.Payload)}
		groups[k] = append(groups[k], ev)
	}

	var out []domain.Touchpoint
	for k, group := range groups {
		sort.Slice(group, func(i, j int) bool {
			if group[i].OccurredAt.Equal(group[j].OccurredAt) {
				return group[i].ID < group[j].ID
			}
			return group[i].OccurredAt.Before(group[j].OccurredAt)
		})

		// Earliest-wins clustering: keep an event only if it is more than
		// window after the last kept event in its group.
		var lastKept time.Time
		kept := false
		for _, ev := range group {
			if kept && ev.OccurredAt.Sub(lastKept) <= window {
				continue
			}
			out = append(out, domain.Touchpoint{
				ID:          ev.ID,
				CampaignID:  ev.CampaignID,
				Channel:     ev.Channel,
				OccurredAt:  ev.OccurredAt,
				Payload:     ev.Payload,
				PayloadHash: k.hash,
			})
			lastKept = ev.OccurredAt
			kept = true
		}
	}

	sortTouchpoints(out)
	return out
}

// sortTouchpoints orders touchpoints by (OccurredAt, ID). The ID tiebreak
// keeps every downstream model deterministic when timestamps collide.
func sortTouchpoints(tps []domain.Touchpoint) {
	sort.Slice(tps, func(i, j int) bool {
		if tps[i].OccurredAt.Equal(tps[j].OccurredAt) {
			return tps[i].ID < tps[j].ID
		}
		return tps[i].OccurredAt.Before(tps[j].OccurredAt)
	})
}

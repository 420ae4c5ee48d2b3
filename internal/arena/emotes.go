package arena

import "time"

// Emotes decay after this long.
const emoteTTL = 10 * time.Second

// Repeats inside this trailing window grow the emote's render scale.
const comboWindow = 2 * time.Second

const scaleStep = 0.1
const scaleMax = 5.0

// ScaleKey groups emotes for combo scaling: repeats only count when the
// same user repeats the same kind.
type ScaleKey struct {
	UserID string
	Kind   int
}

// PruneEmotes drops log entries older than the retention threshold.
func (a *Arena) PruneEmotes(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pruneEmotesLocked(now)
}

func (a *Arena) pruneEmotesLocked(now time.Time) {
	cutoff := now.Add(-emoteTTL)
	kept := a.emotes[:0]
	for _, e := range a.emotes {
		if !e.At.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	a.emotes = kept
}

// Scales computes the render scale for every (user, kind) group with
// repeats inside the trailing combo window, counted back from now. A
// group with count c scales to min(1 + 0.1×(c−1), 5.0). Groups outside
// the window are absent: their implicit scale is 1.0.
func (a *Arena) Scales(now time.Time) map[ScaleKey]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scalesLocked(now)
}

func (a *Arena) scalesLocked(now time.Time) map[ScaleKey]float64 {
	cutoff := now.Add(-comboWindow)

	counts := make(map[ScaleKey]int)
	for _, e := range a.emotes {
		if !e.At.Before(cutoff) {
			counts[ScaleKey{UserID: e.UserID, Kind: e.Kind}]++
		}
	}

	scales := make(map[ScaleKey]float64, len(counts))
	for key, count := range counts {
		scales[key] = min(1+scaleStep*float64(count-1), scaleMax)
	}
	return scales
}

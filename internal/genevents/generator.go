// Package genevents produces synthetic star logs for fixtures and load
// testing: a handful of dense fake-star campaigns layered over organic
// background starring.
package genevents

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/okian/starseed/internal/domain/model"
	"github.com/okian/starseed/internal/domain/window"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
)

// Default generation parameters.
const (
	DefaultCampaigns         = 3
	DefaultActorsPerCampaign = 50
	DefaultBackgroundStars   = 500
	DefaultBurst             = 6 * time.Hour
)

// Params controls the shape of the synthetic log.
type Params struct {
	Window            window.Window
	Campaigns         int           // number of targeted repositories
	ActorsPerCampaign int           // fake accounts starring each target
	BackgroundStars   int           // organic stars spread across repos
	Burst             time.Duration // how tightly campaign stars cluster
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomIn picks a uniformly random instant inside w.
func randomIn(w window.Window) time.Time {
	span := w.End.Sub(w.Start)
	return w.Start.Add(time.Duration(getRandomFloat() * float64(span)))
}

// Generate produces the synthetic events, sorted by timestamp.
func Generate(ctx context.Context, p Params) ([]model.StarEvent, error) {
	if !p.Window.End.After(p.Window.Start) {
		return nil, fmt.Errorf("%w: empty window", ErrBadParams)
	}
	if p.Campaigns < 0 || p.ActorsPerCampaign < 0 || p.BackgroundStars < 0 {
		return nil, fmt.Errorf("%w: negative counts", ErrBadParams)
	}
	burst := p.Burst
	if burst <= 0 {
		burst = DefaultBurst
	}

	events := make([]model.StarEvent, 0, p.Campaigns*p.ActorsPerCampaign+p.BackgroundStars)

	// Campaigns: every fake actor stars the target repo within the burst
	// around a random campaign center. The mean of these timestamps is
	// what the seed stage recovers as the repo center.
	for c := 0; c < p.Campaigns; c++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation cancelled: %w", err)
		}
		repo := fmt.Sprintf("target/campaign-%02d", c)
		center := randomIn(p.Window)
		for a := 0; a < p.ActorsPerCampaign; a++ {
			offset := time.Duration((getRandomFloat() - 0.5) * float64(burst))
			ts := center.Add(offset)
			if ts.Before(p.Window.Start) {
				ts = p.Window.Start
			}
			if !ts.Before(p.Window.End) {
				ts = p.Window.End.Add(-time.Second)
			}
			events = append(events, model.StarEvent{
				DeliveryID: uuid.NewString(),
				Actor:      fmt.Sprintf("fake-%02d-%04d", c, a),
				RepoName:   repo,
				StarredAt:  ts,
			})
		}
	}

	// Background: organic actors star a wide set of repos at uniformly
	// random times.
	for b := 0; b < p.BackgroundStars; b++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation cancelled: %w", err)
		}
		events = append(events, model.StarEvent{
			DeliveryID: uuid.NewString(),
			Actor:      fmt.Sprintf("user-%05d", int(getRandomFloat()*99999)),
			RepoName:   fmt.Sprintf("org-%02d/repo-%02d", int(getRandomFloat()*20), int(getRandomFloat()*50)),
			StarredAt:  randomIn(p.Window),
		})
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].StarredAt.Before(events[j].StarredAt)
	})
	return events, nil
}

// Command gen-events writes a synthetic, day-partitioned star log for
// fixtures and manual testing of the seed pipeline.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/starseed/internal/domain/window"
	"github.com/okian/starseed/internal/genevents"
	"github.com/okian/starseed/pkg/logger"
)

func main() {
	var (
		dir       = flag.String("dir", "testdata/stars", "output directory for partition files")
		startDate = flag.String("start", time.Now().UTC().AddDate(0, 0, -30).Format(window.DayLayout), "window start date (inclusive)")
		endDate   = flag.String("end", time.Now().UTC().Format(window.DayLayout), "window end date (exclusive)")
		campaigns = flag.Int("campaigns", genevents.DefaultCampaigns, "number of fake-star campaigns")
		actors    = flag.Int("actors", genevents.DefaultActorsPerCampaign, "fake accounts per campaign")
		organic   = flag.Int("organic", genevents.DefaultBackgroundStars, "organic background stars")
		burst     = flag.Duration("burst", genevents.DefaultBurst, "campaign burst duration")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get().Named("gen-events")
	ctx := context.Background()

	w, err := window.Parse(*startDate, *endDate)
	if err != nil {
		log.Fatal(ctx, "invalid window", logger.Error(err))
	}

	events, err := genevents.Generate(ctx, genevents.Params{
		Window:            w,
		Campaigns:         *campaigns,
		ActorsPerCampaign: *actors,
		BackgroundStars:   *organic,
		Burst:             *burst,
	})
	if err != nil {
		log.Fatal(ctx, "generation failed", logger.Error(err))
	}

	if err := genevents.WritePartitions(ctx, *dir, events); err != nil {
		log.Fatal(ctx, "writing partitions failed", logger.Error(err))
	}

	log.Info(ctx, "synthetic star log written",
		logger.String("dir", *dir),
		logger.String("window", w.String()),
		logger.Int("events", len(events)),
	)
}

package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// Ingest captures a listening snapshot for --user.
func (r *Runner) Ingest(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := r.open(ctx, config)
	if err != nil {
		return err
	}
	defer a.db.Close()

	summary, err := a.ingestor.Ingest(ctx, cmd.String("user"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(summary, true)
	}

	r.writePlain("%s\n", styles.title.Render("Snapshot "+summary.SnapshotID))
	r.writePlain("Top tracks:      %d\n", summary.Counts.TopTracks)
	r.writePlain("Top artists:     %d\n", summary.Counts.TopArtists)
	r.writePlain("Recently played: %d\n", summary.Counts.RecentlyPlayed)
	r.writePlain("Audio features:  %d\n", summary.Counts.AudioFeatures)
	return r.writePlain("%s Stored\n", styles.ok.Render("✓"))
}

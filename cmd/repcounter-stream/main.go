package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/repcounter/internal/client"
	"github.com/claude/repcounter/internal/ingest"
	"github.com/claude/repcounter/internal/pose"
	"github.com/claude/repcounter/internal/replay"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "repcounter server URL (e.g. https://repcounter.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("REPCOUNTER_AUTH_API_KEY"), "API key for session commands")
	path := flag.String("path", "", "recording to stream (.jsonl, .jsonl.gz or .jsonl.zst)")
	exerciseID := flag.String("exercise", "", "exercise to track (default: file name prefix)")
	target := flag.Int("target", 0, "target reps (0 = open-ended)")
	fps := flag.Float64("fps", 30, "frames per second")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("repcounter-stream", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" || *path == "" {
		fmt.Fprintf(os.Stderr, "Usage: repcounter-stream -server <URL> -path <recording> [-exercise id] [-target N] [-fps 30]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *fps <= 0 {
		fmt.Fprintf(os.Stderr, "Error: -fps must be positive\n")
		os.Exit(1)
	}
	if *exerciseID == "" {
		*exerciseID = replay.ExerciseFromName(*path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.NewClient(*serverURL, *apiKey)
	if err := stream(ctx, c, *path, *exerciseID, *target, *fps, log); err != nil {
		log.Error("stream failed", "error", err)
		os.Exit(1)
	}
}

// stream plays the recording to the server and always tries to close the
// session so the reps reached are saved.
func stream(ctx context.Context, c *client.Client, path, exerciseID string, target int, fps float64, log *slog.Logger) error {
	rc, err := replay.Open(path)
	if err != nil {
		return err
	}
	defer rc.Close()

	if _, err := c.StartSession(ctx, exerciseID, target); err != nil {
		return err
	}
	log.Info("session started", "exercise", exerciseID, "target", target)

	streamErr := sendFrames(ctx, c, ingest.NewLineSource(rc), fps, log)

	// Close with a fresh context so an interrupt still saves the session.
	closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	rec, err := c.CloseSession(closeCtx)
	if err != nil {
		return errors.Join(streamErr, err)
	}
	log.Info("session saved", "exercise", rec.Exercise, "reps", rec.Reps, "id", rec.ID)

	if totals, err := c.Totals(closeCtx); err == nil {
		log.Info("lifetime total", "exercise", rec.Exercise, "total", totals[rec.Exercise])
	}
	if errors.Is(streamErr, context.Canceled) {
		return nil
	}
	return streamErr
}

func sendFrames(ctx context.Context, c *client.Client, src *ingest.LineSource, fps float64, log *slog.Logger) error {
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	lastReps := 0
	for {
		f, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if f.Kind == pose.Malformed {
			log.Debug("skipping unreadable line", "line", src.Line(), "reason", f.Reason)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		status, err := c.SendFrame(ctx, src.Payload())
		if err != nil {
			return err
		}
		if status.Reps != lastReps {
			lastReps = status.Reps
			log.Info("rep", "count", status.Reps, "angle", fmt.Sprintf("%.1f", status.Angle))
		}
		if status.Status == "completed" {
			log.Info("target reached", "reps", status.Reps)
			return nil
		}
	}
}

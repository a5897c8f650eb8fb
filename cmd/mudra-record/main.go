// Command mudra-record records labelled training samples of one gesture
// from the first calibrated actor.
//
// Usage:
//
//	mudra-record -label RIGHT_HAND_COME -n 20 -out come.txt [-replay session.jsonl]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tracker"
	"github.com/ayusman/mudra/internal/trainset"
)

func main() {
	labelName := flag.String("label", "", "gesture to record, e.g. HANDS_UP")
	count := flag.Int("n", 10, "number of samples to record")
	outPath := flag.String("out", "", "training file to append to (default <label>.txt)")
	replayPath := flag.String("replay", "", "read frames from a recorded session instead of a live tracker")
	fps := flag.Int("fps", 30, "replay pacing in frames per second")
	listenAddr := flag.String("listen", ":8081", "tracker websocket listen address")
	dbPath := flag.String("db", "", "also store samples in this sqlite database")
	flag.Parse()

	label, err := gesture.ParseLabel(*labelName)
	if err != nil {
		log.Fatalf("Invalid -label: %v", err)
	}
	if *count <= 0 {
		log.Fatalf("-n must be positive")
	}
	if *outPath == "" {
		*outPath = label.Name() + ".txt"
	}

	var source tracker.Tracker
	if *replayPath != "" {
		replay, err := tracker.OpenReplay(*replayPath, *fps)
		if err != nil {
			log.Fatalf("Failed to open replay: %v", err)
		}
		source = replay
	} else {
		ws := tracker.NewWSTracker(64)
		mux := http.NewServeMux()
		mux.Handle("/api/tracker", ws)
		go func() {
			log.Printf("Waiting for tracker on %s/api/tracker", *listenAddr)
			if err := http.ListenAndServe(*listenAddr, mux); err != nil {
				log.Fatalf("Tracker endpoint failed: %v", err)
			}
		}()
		source = ws
	}
	defer source.Close()

	f, err := os.OpenFile(*outPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *outPath, err)
	}
	defer f.Close()
	out := bufio.NewWriter(f)
	defer out.Flush()

	s := &session{
		tracker:  source,
		recorder: trainset.NewRecorder(label, *count),
		out:      out,
		prompt:   os.Stdout,
	}

	if *dbPath != "" {
		st, err := store.New(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open store: %v", err)
		}
		defer st.Close()

		rec := &store.Session{ID: uuid.New().String(), Label: label, Target: *count}
		if err := st.Sessions().Create(rec); err != nil {
			log.Fatalf("Failed to create session: %v", err)
		}
		s.save = func(actorID int, smp *trainset.Sample) error {
			return st.Samples().Create(&store.Sample{
				SessionID: rec.ID,
				Label:     smp.Label,
				ActorID:   actorID,
				Features:  smp.Features,
			})
		}
		defer func() {
			if s.recorder.Done() {
				if err := st.Sessions().Complete(rec.ID); err != nil {
					log.Printf("Failed to complete session: %v", err)
				}
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Recording %d samples of %s into %s\n", *count, label, *outPath)
	n, err := s.run(ctx)
	if err != nil {
		log.Printf("Recording stopped: %v", err)
	}
	fmt.Printf("Wrote %d samples\n", n)
}

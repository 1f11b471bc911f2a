// Command pacesim runs the fixed-rate timer headless and reports how closely
// the wake-ups track the schedule.
//
// Usage:
//
//	go run ./cmd/pacesim --fps 60 -n 600
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/coreman2200/funtimes-imguiws/internal/pacing"
)

func main() {
	var (
		fps      = flag.Float64("fps", 60, "ticks per second")
		n        = flag.IntP("ticks", "n", 600, "number of ticks to run")
		guard    = flag.Duration("guard", pacing.DefaultGuard, "guard interval before each deadline")
		fraction = flag.Float64("sleep-fraction", pacing.DefaultSleepFraction, "share of the remaining interval slept per step")
		spin     = flag.Bool("final-spin", false, "spin inside the guard interval")
		work     = flag.Duration("work", 0, "simulated work per tick")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	timer, err := pacing.NewFixedRate(*fps, pacing.Options{Guard: *guard, SleepFraction: *fraction, FinalSpin: *spin})
	if err != nil {
		log.Fatal().Err(err).Msg("timer")
	}
	first := timer.NextTick()

	var st tally
	start := time.Now()
	for i := 0; i < *n; i++ {
		due := timer.NextTick()
		timer.Wait()
		st.add(timer.DeltaSeconds(), time.Since(due))
		if *work > 0 {
			time.Sleep(*work)
		}
	}
	elapsed := time.Since(start)
	if st.ticks == 0 {
		log.Warn().Int("ticks", *n).Msg("no ticks ran")
		return
	}

	log.Info().
		Int("ticks", st.ticks).
		Dur("period", timer.Period()).
		Dur("elapsed", elapsed).
		Dur("scheduled", timer.NextTick().Sub(first)).
		Float64("achieved_fps", float64(st.ticks)/elapsed.Seconds()).
		Float64("mean_ms", st.meanMs()).
		Float64("min_ms", st.min*1000).
		Float64("max_ms", st.max*1000).
		Dur("max_late", st.late).
		Msg("pacing summary")
}

// tally accumulates per-tick deltas in seconds and the worst wake-up lateness.
type tally struct {
	ticks    int
	sum      float64
	min, max float64
	late     time.Duration
}

func (t *tally) add(dt float64, late time.Duration) {
	if t.ticks == 0 || dt < t.min {
		t.min = dt
	}
	if dt > t.max {
		t.max = dt
	}
	if late > t.late {
		t.late = late
	}
	t.sum += dt
	t.ticks++
}

func (t *tally) meanMs() float64 {
	if t.ticks == 0 {
		return 0
	}
	return t.sum / float64(t.ticks) * 1000
}

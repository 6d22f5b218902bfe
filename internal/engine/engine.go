// Package engine runs the positional analytics pipeline over one round of
// telemetry, and fans out over many rounds.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/pable/go-cs-tactics/internal/config"
	"github.com/pable/go-cs-tactics/internal/model"
	"github.com/pable/go-cs-tactics/internal/movement"
	"github.com/pable/go-cs-tactics/internal/outcome"
	"github.com/pable/go-cs-tactics/internal/roles"
	"github.com/pable/go-cs-tactics/internal/tactics"
	"github.com/pable/go-cs-tactics/internal/utility"
	"github.com/pable/go-cs-tactics/internal/zones"
)

// AnalyzeRound derives a RoundReport from one round's samples. samples must
// be non-empty, share one round number and be ordered by tick. The input is
// not modified.
func AnalyzeRound(samples []model.TelemetrySample, cfg config.Config) (*model.RoundReport, error) {
	if err := validateRound(samples); err != nil {
		return nil, err
	}
	round := samples[0].RoundNumber

	// ---- Pass 1: zone catalog for this round. ----

	catalog := zones.Generate(samples, cfg.Zones)

	// ---- Pass 2: per-player movement, in player-ID order. ----

	byPlayer := make(map[string][]model.TelemetrySample)
	for _, s := range samples {
		byPlayer[s.PlayerID] = append(byPlayer[s.PlayerID], s)
	}
	ids := make([]string, 0, len(byPlayer))
	for id := range byPlayer {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	analyses := make([]model.MovementAnalysis, 0, len(ids))
	for _, id := range ids {
		m, err := movement.Analyze(byPlayer[id], catalog, cfg.TickRate)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}
		analyses = append(analyses, m)
	}

	// ---- Pass 3: roles, team aggregates, utility. ----

	report := &model.RoundReport{
		RoundNumber: round,
		Zones:       catalog,
		Players:     make([]model.PlayerReport, 0, len(analyses)),
	}
	var sideA, sideB []model.MovementAnalysis
	for _, m := range analyses {
		report.Players = append(report.Players, model.PlayerReport{
			Movement: m,
			Roles:    roles.Classify(m, analyses, cfg.Roles),
		})
		switch m.Side {
		case model.SideA:
			sideA = append(sideA, m)
		case model.SideB:
			sideB = append(sideB, m)
		}
	}

	var err error
	if report.SideA, err = aggregateSide(model.SideA, sideA, sideB, catalog, cfg.Team); err != nil {
		return nil, fmt.Errorf("round %d: %w", round, err)
	}
	if report.SideB, err = aggregateSide(model.SideB, sideB, sideA, catalog, cfg.Team); err != nil {
		return nil, fmt.Errorf("round %d: %w", round, err)
	}

	for _, ev := range utility.EventsFromSamples(samples) {
		report.Utility = append(report.Utility, utility.Estimate(ev, samples, catalog, cfg.Utility))
	}

	// ---- Pass 4: outcome. ----

	report.Outcome = outcome.Predict(report.SideA, report.SideB, cfg.Outcome)
	return report, nil
}

// aggregateSide tolerates a side with no recorded players by returning the
// neutral report for it.
func aggregateSide(side model.Side, team, opposing []model.MovementAnalysis, catalog []model.MapZone, cfg config.Team) (model.TeamTacticalReport, error) {
	if len(team) == 0 {
		return model.TeamTacticalReport{
			Side:                 side,
			Cohesion:             0.5,
			MovementCoordination: 0.5,
			MapControl:           map[string]float64{},
			PowerPositionControl: map[string]float64{},
		}, nil
	}
	return tactics.Aggregate(team, opposing, catalog, cfg)
}

func validateRound(samples []model.TelemetrySample) error {
	if len(samples) == 0 {
		return fmt.Errorf("analyze round: %w: no samples", model.ErrInvalidInput)
	}
	round := samples[0].RoundNumber
	for i, s := range samples {
		if s.RoundNumber != round {
			return fmt.Errorf("analyze round: %w: sample %d is round %d, expected %d",
				model.ErrInvalidInput, i, s.RoundNumber, round)
		}
		if i > 0 && s.Tick < samples[i-1].Tick {
			return fmt.Errorf("analyze round %d: %w: tick %d follows tick %d",
				round, model.ErrInvalidInput, s.Tick, samples[i-1].Tick)
		}
	}
	return nil
}

// AnalyzeRounds runs AnalyzeRound over independent rounds with at most
// workers in flight. Reports come back in input order. The first failing
// round cancels the rest. log may be nil.
func AnalyzeRounds(ctx context.Context, rounds [][]model.TelemetrySample, cfg config.Config, workers int, log *slog.Logger) ([]*model.RoundReport, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if workers < 1 {
		workers = 1
	}

	out := make([]*model.RoundReport, len(rounds))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, samples := range rounds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := AnalyzeRound(samples, cfg)
			if err != nil {
				return err
			}
			log.Debug("round analyzed",
				"round", r.RoundNumber,
				"samples", len(samples),
				"zones", len(r.Zones),
				"players", len(r.Players),
				"utility", len(r.Utility),
				"p_a", r.Outcome.ProbabilityA)
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// SplitRounds groups a match-wide sample stream by round number, ascending.
// Within a round the tick order is restored with a stable sort, so samples
// sharing a tick keep their relative order.
func SplitRounds(samples []model.TelemetrySample) [][]model.TelemetrySample {
	byRound := make(map[int][]model.TelemetrySample)
	for _, s := range samples {
		byRound[s.RoundNumber] = append(byRound[s.RoundNumber], s)
	}
	nums := make([]int, 0, len(byRound))
	for n := range byRound {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	out := make([][]model.TelemetrySample, 0, len(nums))
	for _, n := range nums {
		rs := byRound[n]
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Tick < rs[j].Tick })
		out = append(out, rs)
	}
	return out
}

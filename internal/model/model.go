// Package model holds the value types shared by the telemetry collaborators
// and the positional analytics engine.
package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// ErrInvalidInput marks malformed sample sequences: empty input, mixed
// player or round identities, or ticks going backwards. Components wrap it,
// so match with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// Unmapped is the zone label for a point outside every generated zone.
const Unmapped = "Unmapped"

// Side represents which team a player is on. A attacks, B defends.
type Side int

const (
	SideNone Side = 0
	SideA    Side = 1
	SideB    Side = 2
)

func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	default:
		return "?"
	}
}

// Attacking reports whether s is the offensive side.
func (s Side) Attacking() bool { return s == SideA }

// Opponent returns the other side; SideNone maps to itself.
func (s Side) Opponent() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	default:
		return SideNone
	}
}

// ParseSide accepts "A"/"B" as well as the CS2 names "T"/"CT".
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A", "T":
		return SideA, nil
	case "B", "CT":
		return SideB, nil
	default:
		return SideNone, fmt.Errorf("%w: unknown side %q", ErrInvalidInput, s)
	}
}

// UtilityKind is the grenade family of a utility detonation.
type UtilityKind int

const (
	UtilitySmoke UtilityKind = iota + 1
	UtilityFlash
	UtilityExplosive
	UtilityIncendiary
)

func (k UtilityKind) String() string {
	switch k {
	case UtilitySmoke:
		return "smoke"
	case UtilityFlash:
		return "flash"
	case UtilityExplosive:
		return "explosive"
	case UtilityIncendiary:
		return "incendiary"
	default:
		return "unknown"
	}
}

// ParseUtilityKind is the inverse of UtilityKind.String.
func ParseUtilityKind(s string) (UtilityKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "smoke":
		return UtilitySmoke, nil
	case "flash":
		return UtilityFlash, nil
	case "explosive", "he":
		return UtilityExplosive, nil
	case "incendiary", "molotov":
		return UtilityIncendiary, nil
	default:
		return 0, fmt.Errorf("%w: unknown utility kind %q", ErrInvalidInput, s)
	}
}

// ---- Raw telemetry handed to the engine ----

// UtilityUse is a utility detonation attached to the thrower's sample.
type UtilityUse struct {
	Kind     UtilityKind
	Position r3.Vector
}

// TelemetrySample is one player at one tick. Samples are never mutated by
// the engine.
type TelemetrySample struct {
	Tick          int
	PlayerID      string
	PlayerName    string
	Side          Side
	RoundNumber   int
	Position      r3.Vector // world position in Hammer units
	Velocity      r3.Vector // units per second
	Health        int       // [0,100]
	FlashDuration float64   // seconds of remaining blindness
	Utility       *UtilityUse
}

// NewTelemetrySample validates the fields of a sample at the ingestion
// boundary so the engine never has to branch on malformed rows.
func NewTelemetrySample(tick int, playerID, playerName string, side Side, round int,
	pos, vel r3.Vector, health int, flash float64, util *UtilityUse) (TelemetrySample, error) {
	switch {
	case playerID == "":
		return TelemetrySample{}, fmt.Errorf("%w: empty player id", ErrInvalidInput)
	case side != SideA && side != SideB:
		return TelemetrySample{}, fmt.Errorf("%w: player %s has no side", ErrInvalidInput, playerID)
	case round < 1:
		return TelemetrySample{}, fmt.Errorf("%w: round number %d", ErrInvalidInput, round)
	case tick < 0:
		return TelemetrySample{}, fmt.Errorf("%w: negative tick %d", ErrInvalidInput, tick)
	case health < 0 || health > 100:
		return TelemetrySample{}, fmt.Errorf("%w: health %d out of [0,100]", ErrInvalidInput, health)
	case flash < 0 || math.IsNaN(flash):
		return TelemetrySample{}, fmt.Errorf("%w: flash duration %v", ErrInvalidInput, flash)
	case !finite(pos) || !finite(vel):
		return TelemetrySample{}, fmt.Errorf("%w: non-finite vector at tick %d", ErrInvalidInput, tick)
	}
	if util != nil {
		if !finite(util.Position) {
			return TelemetrySample{}, fmt.Errorf("%w: non-finite utility position at tick %d", ErrInvalidInput, tick)
		}
		u := *util
		util = &u
	}
	return TelemetrySample{
		Tick:          tick,
		PlayerID:      playerID,
		PlayerName:    playerName,
		Side:          side,
		RoundNumber:   round,
		Position:      pos,
		Velocity:      vel,
		Health:        health,
		FlashDuration: flash,
		Utility:       util,
	}, nil
}

func finite(v r3.Vector) bool {
	for _, c := range [...]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Planar is the sample's (x, y) position.
func (s TelemetrySample) Planar() r2.Point { return r2.Point{X: s.Position.X, Y: s.Position.Y} }

// UtilityEvent is a utility detonation lifted out of a sample so it can be
// scored against the rest of the round.
type UtilityEvent struct {
	Kind      UtilityKind
	Position  r3.Vector
	Tick      int
	ThrowerID string
	Side      Side
}

// ---- Derived metrics ----

// MapZone is a data-driven region discovered from one round's samples.
type MapZone struct {
	Label    string
	Bounds   r2.Rect
	Centroid r2.Point
	Samples  int  // clustered samples that built the zone
	Spawn    Side // SideNone unless the zone is one side's spawn area
}

// Contains reports whether p lies inside the zone's padded bounds.
func (z MapZone) Contains(p r2.Point) bool { return z.Bounds.ContainsPoint(p) }

// MovementAnalysis is one player's movement profile for one round.
type MovementAnalysis struct {
	PlayerID    string
	PlayerName  string
	Side        Side
	RoundNumber int

	TotalDistance float64
	AverageSpeed  float64
	PeakSpeed     float64
	RotationCount int

	// ZonePresence maps a zone label to its share of the player's samples.
	// Unmapped samples are not keyed, so the values sum to at most 1.
	ZonePresence map[string]float64

	// PositionHeatmap, Ticks and ZoneTrack are aligned one entry per input
	// sample, in input order.
	PositionHeatmap []r2.Point
	Ticks           []int
	ZoneTrack       []string
}

// DominantZone returns the most-visited zone label and its presence.
// Ties resolve to the lexically smaller label.
func (m MovementAnalysis) DominantZone() (string, float64) {
	best, bestVal := "", 0.0
	for label, v := range m.ZonePresence {
		if v > bestVal || (v == bestVal && best != "" && label < best) {
			best, bestVal = label, v
		}
	}
	return best, bestVal
}

// RoleKind names a heuristic behaviour profile.
type RoleKind string

const (
	RoleHolder  RoleKind = "holder"
	RoleEntry   RoleKind = "entry"
	RoleSupport RoleKind = "support"
	RoleLurker  RoleKind = "lurker"
)

// RoleSignal is one matched profile with its profile-specific metrics.
type RoleSignal struct {
	Role    RoleKind
	Metrics map[string]float64
}

// RoleAssessment carries the universal metrics for a player plus every
// profile the player matched (possibly none).
type RoleAssessment struct {
	PlayerID            string
	PositionConsistency float64 // 0 scattered, 1 static
	RotationEfficiency  float64
	MapCoverage         float64
	TeammateDistance    float64 // 0 when the player has no teammates
	Signals             []RoleSignal
}

// Has reports whether the assessment includes the given profile.
func (a RoleAssessment) Has(k RoleKind) bool {
	for _, s := range a.Signals {
		if s.Role == k {
			return true
		}
	}
	return false
}

// Roles lists matched profile names in evaluation order.
func (a RoleAssessment) Roles() []string {
	out := make([]string, 0, len(a.Signals))
	for _, s := range a.Signals {
		out = append(out, string(s.Role))
	}
	return out
}

// TeamTacticalReport aggregates one side's movement for one round.
type TeamTacticalReport struct {
	Side    Side
	Players int

	Cohesion             float64
	AverageDistance      float64
	TradeEfficiency      float64
	MapControl           map[string]float64
	PowerPositionControl map[string]float64
	MovementCoordination float64
	RotationSynchrony    float64

	// Only one of these is populated, depending on Side.
	ExecutionScore float64
	SetupScore     float64
}

// SideScore is the execution score for the attacker and the setup score
// for the defender.
func (r TeamTacticalReport) SideScore() float64 {
	if r.Side.Attacking() {
		return r.ExecutionScore
	}
	return r.SetupScore
}

// MeanPowerControl averages PowerPositionControl; 0.5 when empty. Zones are
// summed in label order so the result is the same on every call.
func (r TeamTacticalReport) MeanPowerControl() float64 {
	if len(r.PowerPositionControl) == 0 {
		return 0.5
	}
	labels := make([]string, 0, len(r.PowerPositionControl))
	for l := range r.PowerPositionControl {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	var sum float64
	for _, l := range labels {
		sum += r.PowerPositionControl[l]
	}
	return sum / float64(len(r.PowerPositionControl))
}

// UtilityImpact is the effectiveness estimate for one detonation.
type UtilityImpact struct {
	ThrowerID     string
	Side          Side
	Kind          UtilityKind
	Tick          int
	Position      r3.Vector
	Zone          string
	Affected      int
	Effectiveness float64
}

// Factor is one adjustment applied to the even prior of a round estimate.
// Positive adjustments favour side A.
type Factor struct {
	Name       string
	Adjustment float64
	Statement  string
}

// RoundOutcomeEstimate is a bounded win-probability per side.
type RoundOutcomeEstimate struct {
	ProbabilityA float64
	ProbabilityB float64
	Factors      []Factor
}

// Statements returns the human-readable factor list in ranked order.
func (e RoundOutcomeEstimate) Statements() []string {
	out := make([]string, len(e.Factors))
	for i, f := range e.Factors {
		out[i] = f.Statement
	}
	return out
}

// PlayerReport pairs a player's movement with their role assessment.
type PlayerReport struct {
	Movement MovementAnalysis
	Roles    RoleAssessment
}

// RoundReport is everything the engine derives from one round.
type RoundReport struct {
	RoundNumber int
	Zones       []MapZone
	Players     []PlayerReport
	SideA       TeamTacticalReport
	SideB       TeamTacticalReport
	Utility     []UtilityImpact
	Outcome     RoundOutcomeEstimate
}

// ---- Stored summaries ----

// DemoSummary is a lightweight record for list/show commands.
type DemoSummary struct {
	Hash       string
	Source     string // "demo" or "csv"
	MapName    string
	ImportedAt string
	TickRate   float64
	Rounds     int
}

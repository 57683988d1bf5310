package services

import (
	"github.com/Conceptual-Machines/magda-melody/internal/constraint"
	"github.com/Conceptual-Machines/magda-melody/internal/generator"
	"github.com/Conceptual-Machines/magda-melody/internal/harmony"
	"github.com/Conceptual-Machines/magda-melody/internal/models"
)

// Fragment defaults
const (
	DefaultFragmentBars        = 2
	DefaultFragmentGapBeats    = 1.0
	DefaultFragmentMaxAttempts = 25
	fragmentAttemptSeedStride  = 1000
	maxFragmentCount           = 32
)

// GenerateRequest describes one melody generation
type GenerateRequest struct {
	Strategy  string                `json:"strategy" binding:"required"`
	Seed      int64                 `json:"seed"`
	Harmony   harmony.Options       `json:"harmony"`
	Config    *generator.Overrides  `json:"config,omitempty"`
	Structure *models.StructureSpec `json:"structure,omitempty"`
	Target    *constraint.Target    `json:"target,omitempty"`

	// Set by the caller, never read from the body
	RequestID string `json:"-"`
	UserID    string `json:"-"`
}

// GenerateResponse is one finished generation
type GenerateResponse struct {
	ID           string                `json:"id,omitempty"`
	Strategy     string                `json:"strategy"`
	RequestSeed  int64                 `json:"request_seed"`
	Seed         int64                 `json:"seed"`
	Harmony      models.HarmonyContext `json:"harmony"`
	Config       generator.Config      `json:"config"`
	Melody       models.Melody         `json:"melody"`
	Score        float64               `json:"score"`
	Metrics      map[string]float64    `json:"metrics"`
	Stats        models.DebugStats     `json:"stats"`
	ThresholdMet bool                  `json:"threshold_met"`
	Candidates   int                   `json:"candidates,omitempty"`
	Status       constraint.Status     `json:"status"`
	Attempts     int                   `json:"attempts"`
	MeanPitch    *float64              `json:"mean_pitch,omitempty"`
	Reason       string                `json:"reason,omitempty"`
	PitchStats   constraint.PitchStats `json:"pitch_stats"`
	Cached       bool                  `json:"cached"`
}

// HarmonyRequest asks for the harmony context of a seed
type HarmonyRequest struct {
	Seed    int64           `json:"seed"`
	Harmony harmony.Options `json:"harmony"`
}

// BatchRequest repeats a generation over seeds Seed, Seed+1, ... Seed+Count-1
type BatchRequest struct {
	GenerateRequest
	Count int `json:"count" binding:"required"`
}

// BatchResponse keeps results in seed order
type BatchResponse struct {
	Results   []*GenerateResponse `json:"results"`
	Accepted  int                 `json:"accepted"`
	Fallbacks int                 `json:"fallbacks"`
}

// FragmentsRequest describes a set of short melodies joined into one MIDI file
type FragmentsRequest struct {
	Strategy    string                `json:"strategy" binding:"required"`
	Seed        int64                 `json:"seed"`
	Count       int                   `json:"count" binding:"required"`
	Bars        int                   `json:"bars,omitempty"`
	GapBeats    *float64              `json:"gap_beats,omitempty"`
	MaxAttempts int                   `json:"max_attempts,omitempty"`
	Harmony     harmony.Options       `json:"harmony"`
	Config      *generator.Overrides  `json:"config,omitempty"`
	Structure   *models.StructureSpec `json:"structure,omitempty"`
	Bounds      constraint.Bounds     `json:"bounds"`

	RequestID string `json:"-"`
}

// FragmentInfo describes one fragment of a concatenated file
type FragmentInfo struct {
	Index         int                   `json:"index"`
	Seed          int64                 `json:"seed"`
	AttemptSeed   int64                 `json:"attempt_seed"`
	Attempts      int                   `json:"attempts"`
	ConstraintMet bool                  `json:"constraint_met"`
	StartBeat     float64               `json:"start_beat"`
	EndBeat       float64               `json:"end_beat"`
	Harmony       models.HarmonyContext `json:"harmony"`
	Melody        models.Melody         `json:"melody"`
	Score         float64               `json:"score"`
	PitchStats    constraint.PitchStats `json:"pitch_stats"`
}

// FragmentsResponse carries the SMF bytes (base64 in JSON) and the layout
type FragmentsResponse struct {
	Strategy   string         `json:"strategy"`
	BaseSeed   int64          `json:"base_seed"`
	GapBeats   float64        `json:"gap_beats"`
	TotalBeats float64        `json:"total_beats"`
	Fragments  []FragmentInfo `json:"fragments"`
	MIDI       []byte         `json:"midi"`
}

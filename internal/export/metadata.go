package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Conceptual-Machines/magda-melody/internal/constraint"
	"github.com/Conceptual-Machines/magda-melody/internal/generator"
	"github.com/Conceptual-Machines/magda-melody/internal/models"
)

// Metadata is the descriptive record written next to an exported melody
type Metadata struct {
	Method       string                `json:"method"`
	Seed         int64                 `json:"seed"`
	Harmony      models.HarmonyContext `json:"harmony"`
	Config       generator.Config      `json:"generation_config"`
	Structure    *models.StructureSpec `json:"structure,omitempty"`
	Target       *constraint.Target    `json:"pitch_target,omitempty"`
	Status       constraint.Status     `json:"status"`
	Attempts     int                   `json:"attempts"`
	Reason       string                `json:"reason,omitempty"`
	NoteCount    int                   `json:"note_count"`
	Score        float64               `json:"score"`
	Metrics      map[string]float64    `json:"metrics"`
	TotalBeats   float64               `json:"total_beats"`
	PitchStats   constraint.PitchStats `json:"pitch_stats"`
	MeanInterval float64               `json:"mean_interval"`
	Stats        models.DebugStats     `json:"debug_stats"`
	Melody       models.Melody         `json:"melody"`
	CreatedAt    time.Time             `json:"created_at"`
}

// NewMetadata describes one finished generation
func NewMetadata(method string, h models.HarmonyContext, cfg generator.Config, structure *models.StructureSpec,
	target *constraint.Target, outcome constraint.Outcome) Metadata {
	result := outcome.Result
	return Metadata{
		Method:       method,
		Seed:         result.Seed,
		Harmony:      h,
		Config:       cfg,
		Structure:    structure,
		Target:       target,
		Status:       outcome.Status,
		Attempts:     outcome.Attempts,
		Reason:       outcome.Reason,
		NoteCount:    result.Melody.Len(),
		Score:        result.Score,
		Metrics:      result.Metrics,
		TotalBeats:   result.Melody.TotalBeats(),
		PitchStats:   constraint.ComputePitchStats(result.Melody.Pitches),
		MeanInterval: constraint.MeanInterval(result.Melody.Sounding()),
		Stats:        result.Stats,
		Melody:       result.Melody,
		CreatedAt:    time.Now().UTC(),
	}
}

// WriteJSON writes the record as indented JSON
func (m Metadata) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	return nil
}

// FileBase returns the conventional file name stem for an exported melody
func FileBase(method string, seed int64) string {
	return fmt.Sprintf("melody_%s_seed%d", method, seed)
}

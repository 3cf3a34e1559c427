package podcast

// Stage names a step reported on the progress channel.
type Stage string

const (
	StageSearching     Stage = "searching"
	StageAnalyzing     Stage = "analyzing"
	StageGenerating    Stage = "generating"
	StageCreatingAudio Stage = "creating_audio"
	StagePlanning      Stage = "planning"
	StageDone          Stage = "done"
	StageCancelled     Stage = "cancelled"
	StageFailed        Stage = "failed"
)

// Terminal reports whether no further events follow this stage.
func (s Stage) Terminal() bool {
	switch s {
	case StageDone, StageCancelled, StageFailed:
		return true
	default:
		return false
	}
}

// Progress is one event emitted while a generation runs.
type Progress struct {
	Stage         Stage   `json:"stage"`
	Message       string  `json:"message"`
	Fraction      float64 `json:"progress"`
	EpisodeNumber int     `json:"episode_number,omitempty"`
	TotalEpisodes int     `json:"total_episodes,omitempty"`
}

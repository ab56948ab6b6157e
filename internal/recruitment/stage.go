package recruitment

// Stage is a step of a ranking run. Stages only move forward.
type Stage int

const (
	StageInit Stage = iota
	StageEmbedOffer
	StageScoreAffinity
	StageFilterThreshold
	StageBatchEvaluate
	StagePersistResults
	StageDone
)

var stageNames = [...]string{
	StageInit:            "INIT",
	StageEmbedOffer:      "EMBED_OFFER",
	StageScoreAffinity:   "SCORE_AFFINITY",
	StageFilterThreshold: "FILTER_THRESHOLD",
	StageBatchEvaluate:   "BATCH_LLM_EVALUATE",
	StagePersistResults:  "PERSIST_RESULTS",
	StageDone:            "DONE",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "UNKNOWN"
	}
	return stageNames[s]
}

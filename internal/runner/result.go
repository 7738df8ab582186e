package runner

// QuestionResult records the outcome of one question. LLMOutput and
// PredictedAnswer are nil when the API call failed or no answer could be
// extracted; both serialize as JSON null.
type QuestionResult struct {
	QuestionID      int     `json:"question_id"`
	Question        string  `json:"question"`
	CorrectAnswer   string  `json:"correct_answer"`
	LLMOutput       *string `json:"llm_output"`
	PredictedAnswer *string `json:"predicted_answer"`
	IsCorrect       bool    `json:"is_correct"`
}

// FileRunRecord is the detail record appended to the JSONL store, one line
// per file run.
type FileRunRecord struct {
	Timestamp string           `json:"timestamp"`
	File      string           `json:"file"`
	Accuracy  float64          `json:"accuracy"`
	Details   []QuestionResult `json:"details"`
}

// FileRunResult summarizes one run of one dataset file.
type FileRunResult struct {
	File       string
	Accuracy   float64
	ResultPath string
}

// IndividualRuns lists the per-run accuracies and detail-record paths
// behind a file aggregate.
type IndividualRuns struct {
	Accuracies []float64 `json:"accuracies"`
	Results    []string  `json:"results"`
}

// FileAggregateResult summarizes the repeat runs of one file.
type FileAggregateResult struct {
	File           string         `json:"file"`
	AccuracyMean   float64        `json:"accuracy_mean"`
	AccuracyStd    float64        `json:"accuracy_std"`
	IndividualRuns IndividualRuns `json:"individual_runs"`
}

// DatasetAggregateResult summarizes all files of one dataset. Accuracy is
// the unweighted mean of per-file means; std is the mean of per-file stds.
// Every file counts equally regardless of question count.
type DatasetAggregateResult struct {
	Results         []FileAggregateResult `json:"results"`
	AverageAccuracy float64               `json:"average_accuracy"`
	AverageStd      float64               `json:"average_std"`
}

// FinalResult is the top-level object handed to exporters. Field names and
// nesting are a compatibility contract with downstream consumers.
type FinalResult struct {
	Timestamp       string                             `json:"timestamp"`
	Config          map[string]any                     `json:"config"`
	DatasetResults  map[string]*DatasetAggregateResult `json:"dataset_results"`
	DurationSeconds float64                            `json:"duration_seconds"`
}

package onboarding

import (
	"fmt"

	"cpn-workers/internal/models"
)

// Step is one stage of the onboarding wizard.
type Step string

const (
	StepProfile   Step = "profile"
	StepDataEntry Step = "dataEntry"
	StepResult    Step = "result"
)

// Steps is the fixed navigation order.
var Steps = []Step{StepProfile, StepDataEntry, StepResult}

// TotalSteps is len(Steps).
const TotalSteps = 3

// Index returns the position of s in Steps, or -1.
func (s Step) Index() int {
	for i, step := range Steps {
		if step == s {
			return i
		}
	}
	return -1
}

func (s Step) Valid() bool {
	return s.Index() >= 0
}

// Next returns the following step, false on the last step.
func (s Step) Next() (Step, bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(Steps) {
		return "", false
	}
	return Steps[i+1], true
}

// Previous returns the preceding step, false on the first step.
func (s Step) Previous() (Step, bool) {
	i := s.Index()
	if i <= 0 {
		return "", false
	}
	return Steps[i-1], true
}

// ParseStep validates a step name coming from outside.
func ParseStep(name string) (Step, error) {
	s := Step(name)
	if !s.Valid() {
		return "", fmt.Errorf("unknown onboarding step %q", name)
	}
	return s, nil
}

// Profile is the first step's payload.
type Profile struct {
	FirstName string  `json:"firstName"`
	Age       int     `json:"age"`
	Ethnicity string  `json:"ethnicity"`
	Rating    float64 `json:"rating"`
}

// DataEntry is a single interaction entered during onboarding.
type DataEntry struct {
	Date  string  `json:"date"`
	Cost  float64 `json:"cost"`
	Time  int     `json:"time"`
	Nuts  int     `json:"nuts"`
	Notes string  `json:"notes,omitempty"`
}

// Result is the score payload stored once scoring has completed.
type Result struct {
	Score          float64                `json:"score"`
	CategoryScores models.CategoryScores  `json:"categoryScores"`
	PeerPercentile int                    `json:"peerPercentile"`
	CalculatedAt   string                 `json:"calculatedAt,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// Data holds one slot per step; a nil slot means the step has no data.
type Data struct {
	Profile   *Profile   `json:"profile"`
	DataEntry *DataEntry `json:"dataEntry"`
	Result    *Result    `json:"result"`
}

// Progress is derived from the stored slots and never persisted.
type Progress struct {
	CurrentStep     Step   `json:"currentStep"`
	CompletedSteps  []Step `json:"completedSteps"`
	TotalSteps      int    `json:"totalSteps"`
	PercentComplete int    `json:"percentComplete"`
}

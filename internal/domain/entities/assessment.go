package entities

// Urgency is how urgent the patient feels their condition is
type Urgency string

const (
	UrgencyMild      Urgency = "mild"
	UrgencyModerate  Urgency = "moderate"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

// Valid reports whether u is a known urgency
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyMild, UrgencyModerate, UrgencyUrgent, UrgencyEmergency:
		return true
	}
	return false
}

// SymptomDuration is how long the symptoms have lasted
type SymptomDuration string

const (
	DurationHours       SymptomDuration = "hours"
	DurationOneTwoDays  SymptomDuration = "1-2days"
	DurationThreeSeven  SymptomDuration = "3-7days"
	DurationOneTwoWeeks SymptomDuration = "1-2weeks"
	DurationLonger      SymptomDuration = "longer"
)

// Valid reports whether d is a known duration
func (d SymptomDuration) Valid() bool {
	switch d {
	case DurationHours, DurationOneTwoDays, DurationThreeSeven, DurationOneTwoWeeks, DurationLonger:
		return true
	}
	return false
}

// MedicalConditions lists the history entries offered by the assessment form
var MedicalConditions = []string{
	"Diabetes", "High Blood Pressure", "Heart Disease", "Asthma",
	"Allergies", "Depression", "Anxiety", "Arthritis",
}

// IsMedicalCondition reports whether c is one of MedicalConditions
func IsMedicalCondition(c string) bool {
	for _, known := range MedicalConditions {
		if known == c {
			return true
		}
	}
	return false
}

// SymptomAssessmentRequest is the body sent for symptom analysis
type SymptomAssessmentRequest struct {
	Symptoms       string          `json:"symptoms"`
	Urgency        Urgency         `json:"urgency"`
	Duration       SymptomDuration `json:"duration"`
	MedicalHistory []string        `json:"medicalHistory"`
}

// AnalysisResult is the backend's answer. Either field may be absent.
type AnalysisResult struct {
	Prediction []float64 `json:"prediction,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// AssessmentStatus is the lifecycle of a symptom submission
type AssessmentStatus string

const (
	AssessmentIdle      AssessmentStatus = "idle"
	AssessmentLoading   AssessmentStatus = "loading"
	AssessmentCompleted AssessmentStatus = "completed"
	AssessmentFailed    AssessmentStatus = "failed"
)

// AssessmentState is what the front end renders. Result and Error are never
// both set.
type AssessmentState struct {
	Status  AssessmentStatus          `json:"status"`
	Request *SymptomAssessmentRequest `json:"request,omitempty"`
	Result  *AnalysisResult           `json:"result,omitempty"`
	Error   string                    `json:"error,omitempty"`
}

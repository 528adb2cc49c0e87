package models

// OutcomeType classifies where a path ends up.
type OutcomeType string

const (
	OutcomePositive OutcomeType = "positive"
	OutcomeNegative OutcomeType = "negative"
	OutcomeNeutral  OutcomeType = "neutral"
	OutcomeMixed    OutcomeType = "mixed"
	OutcomeUnknown  OutcomeType = "unknown"
)

// OutcomeTypes lists every outcome type in reporting order.
var OutcomeTypes = []OutcomeType{
	OutcomePositive,
	OutcomeNegative,
	OutcomeNeutral,
	OutcomeMixed,
	OutcomeUnknown,
}

// Path is a root-to-outcome sequence of nodes.
type Path struct {
	ID                    string      `json:"id"`
	NodeIDs               []string    `json:"node_ids"`
	OutcomeType           OutcomeType `json:"outcome_type"`
	CumulativeProbability float64     `json:"cumulative_probability"`
	RiskScore             float64     `json:"risk_score"`
	OpportunityScore      float64     `json:"opportunity_score"`
	Label                 string      `json:"label"`
}

// OutcomeBucket is one row of the outcome distribution.
type OutcomeBucket struct {
	OutcomeType OutcomeType `json:"outcome_type"`
	Count       int         `json:"count"`
	Fraction    float64     `json:"fraction"`
}

// ScoreSummary aggregates a score across outcome nodes.
type ScoreSummary struct {
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Impact is a coarse bucket of a driver's contribution magnitude.
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Driver is a factor category ranked by its contribution across paths.
type Driver struct {
	Category     string    `json:"category"`
	Contribution float64   `json:"contribution"`
	Direction    Direction `json:"direction"`
	Impact       Impact    `json:"impact"`
	Occurrences  int       `json:"occurrences"`
}

// Severity grades a contradiction.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ContradictionProbabilityConflict flags siblings whose probabilities exceed 1.
const ContradictionProbabilityConflict = "probability_conflict"

// Contradiction is a detected internal inconsistency in a tree.
type Contradiction struct {
	Type        string   `json:"type"`
	NodeID      string   `json:"node_id"`
	Total       float64  `json:"total"`
	Excess      float64  `json:"excess"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// Strength buckets the absolute value of a correlation coefficient.
type Strength string

const (
	StrengthWeak     Strength = "weak"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

// Correlation relates two scores across outcome nodes.
type Correlation struct {
	Variables   [2]string `json:"variables"`
	Coefficient float64   `json:"coefficient"`
	Strength    Strength  `json:"strength"`
	SampleSize  int       `json:"sample_size"`
	Description string    `json:"description"`
}

// AnalysisReport is the read-only aggregate over a tree and its paths.
type AnalysisReport struct {
	TotalPaths          int             `json:"total_paths"`
	OutcomeDistribution []OutcomeBucket `json:"outcome_distribution"`
	Risk                ScoreSummary    `json:"risk"`
	Opportunity         ScoreSummary    `json:"opportunity"`
	TopDrivers          []Driver        `json:"top_drivers"`
	Contradictions      []Contradiction `json:"contradictions"`
	Correlations        []Correlation   `json:"correlations"`

	MostLikelyPathID    string  `json:"most_likely_path_id,omitempty"`
	ExpectedRisk        float64 `json:"expected_risk"`
	ExpectedOpportunity float64 `json:"expected_opportunity"`
}

package llm

// Inputs. Text fields are preformatted by the caller.

type InitialCodingInput struct {
	Text            string
	ResearchContext string
	ExistingCodes   string
}

type DeductiveCodingInput struct {
	Text            string
	ResearchContext string
	AvailableCodes  string
}

type ThemeInput struct {
	CodesText string
}

type RefineInput struct {
	CodeName        string
	CodeDescription string
	Assignments     []string
}

type GroupingInput struct {
	CodesSummary      string
	AssignmentSamples string
}

// Outputs.

type CodeOutput struct {
	Reasoning             string `json:"reasoning"`
	Code                  string `json:"code"`
	Quote                 string `json:"quote"`
	CodeDescription       string `json:"code_description"`
	IsNewCode             bool   `json:"is_new_code"`
	ExistingCodeRationale string `json:"existing_code_rationale"`
	Confidence            int    `json:"confidence"`
}

type MultipleCodesOutput struct {
	Codes         []CodeOutput `json:"codes"`
	AnalysisNotes string       `json:"analysis_notes"`
}

type DeductiveCodingOutput struct {
	Reasoning        string    `json:"reasoning"`
	AssignedCodes    []string  `json:"assigned_codes"`
	Quote            string    `json:"quote"`
	ConfidenceScores []float64 `json:"confidence_scores"`
	Rationale        string    `json:"rationale"`
}

type ThemeOutput struct {
	Reasoning        string   `json:"reasoning"`
	ThemeName        string   `json:"theme_name"`
	ThemeDescription string   `json:"theme_description"`
	RelatedCodes     []string `json:"related_codes"`
}

type RefineAction string

const (
	ActionKeep   RefineAction = "keep"
	ActionModify RefineAction = "modify"
	ActionDelete RefineAction = "delete"
)

type CodeRefinementOutput struct {
	Action                 RefineAction `json:"action"`
	Reasoning              string       `json:"reasoning"`
	RefinedCodeName        string       `json:"refined_code_name"`
	RefinedCodeDescription string       `json:"refined_code_description"`
	Confidence             float64      `json:"confidence"`
}

type CodeGroup struct {
	GroupName        string   `json:"group_name"`
	GroupDescription string   `json:"group_description"`
	CodeNames        []string `json:"code_names"`
	Rationale        string   `json:"rationale"`
}

type CodeGroupingOutput struct {
	Reasoning      string      `json:"reasoning"`
	Groups         []CodeGroup `json:"groups"`
	UngroupedCodes []string    `json:"ungrouped_codes"`
}

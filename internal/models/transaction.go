package models

// LineClass is the outcome of classifying one line of extracted text.
type LineClass string

const (
	LineName      LineClass = "name"      // starts or resumes an entity group
	LineData      LineClass = "data"      // appended to the current entity
	LineOrphan    LineClass = "orphan"    // data line seen before any entity
	LineExcluded  LineClass = "excluded"  // matched an exclusion phrase
	LineDiscarded LineClass = "discarded" // neither a name nor data
)

// LineTrace captures what the classifier did with each input line.
type LineTrace struct {
	LineNum int       `json:"lineNum"`
	Text    string    `json:"text"`
	Class   LineClass `json:"class"`
	Rule    string    `json:"rule,omitempty"` // which name rule matched
	Entity  string    `json:"entity,omitempty"`
}

// Summary holds the counts shown to the user after a batch completes.
type Summary struct {
	Documents    int `json:"documents"`
	Failed       int `json:"failed"`
	Entities     int `json:"entities"`
	Transactions int `json:"transactions"`
	OCRPages     int `json:"ocrPages"`
}

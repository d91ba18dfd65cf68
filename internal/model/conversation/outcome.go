package conversation

// OutcomeState is the execution lifecycle of a turn's generated query.
type OutcomeState string

const (
	OutcomePending   OutcomeState = "pending"
	OutcomeSucceeded OutcomeState = "succeeded"
	OutcomeFailed    OutcomeState = "failed"
)

// Row is one result row keyed by column name.
type Row map[string]any

// QueryOutcome records how a turn's query resolved. Absence of an outcome
// means no query was associated with the turn, which is distinct from
// pending.
type QueryOutcome struct {
	State    OutcomeState `json:"state"`
	Columns  []string     `json:"columns,omitempty"`
	Rows     []Row        `json:"rows,omitempty"`
	RowCount int          `json:"rowCount"`
	Message  string       `json:"message,omitempty"`
}

// QueryResult is the shape returned by the query-execution collaborator.
type QueryResult struct {
	Columns  []string `json:"columns"`
	Rows     []Row    `json:"rows"`
	RowCount int      `json:"rowCount"`
}

package session

// AnswerLedger maps question index to the selected option label.
// Entries are only ever added or overwritten; absence means
// "unanswered". The ledger itself does no validation: the controller
// only hands it indices from the validated range and labels from
// {A,B,C,D}, and serializes all access.
type AnswerLedger struct {
	answers map[int]string
}

// NewLedger creates an empty ledger.
func NewLedger() *AnswerLedger {
	return &AnswerLedger{answers: make(map[int]string)}
}

// Set records a label for a question index, replacing any prior entry.
func (l *AnswerLedger) Set(index int, label string) {
	l.answers[index] = label
}

// Get returns the recorded label for an index, with ok=false when the
// question is unanswered.
func (l *AnswerLedger) Get(index int) (string, bool) {
	label, ok := l.answers[index]
	return label, ok
}

// AnsweredCount returns the number of distinct answered indices.
func (l *AnswerLedger) AnsweredCount() int {
	return len(l.answers)
}

// Snapshot returns a copy of the ledger for submission. Writes after
// the snapshot never affect it.
func (l *AnswerLedger) Snapshot() map[int]string {
	out := make(map[int]string, len(l.answers))
	for idx, label := range l.answers {
		out[idx] = label
	}
	return out
}

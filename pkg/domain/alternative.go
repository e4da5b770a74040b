package domain

// DefaultAlternative asks the engine to take its default path.
const DefaultAlternative = -1

// Alternative is one entry of the choice list offered before a step.
// Index is DefaultAlternative when the step is not a real choice.
type Alternative struct {
	Label string `json:"label"`
	Index int    `json:"index"`
}

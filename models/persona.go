package models

// ProfileFact is one structured fact about the person the avatar speaks as.
type ProfileFact struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// QAPair is a curated question/answer the avatar should answer verbatim-ish.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Persona describes the avatar: whose voice it speaks with, fixed profile facts, and
// curated Q&A pairs. Loaded once at startup from a JSON file.
type Persona struct {
	Name  string        `json:"name"`
	Voice string        `json:"voice"`
	Facts []ProfileFact `json:"facts,omitempty"`
	QA    []QAPair      `json:"qa,omitempty"`
}

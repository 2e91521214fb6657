package search

// ServiceRecord is a single entry of the service catalog as loaded from storage.
type ServiceRecord struct {
	Title       string   `json:"title" yaml:"title" toml:"title"`
	Description string   `json:"description" yaml:"description" toml:"description"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty" toml:"keywords,omitempty"`
}

// PreprocessedService pairs a catalog record with its normalized tokens.
type PreprocessedService struct {
	Service *ServiceRecord
	Tokens  TokenSet
}

// MatchResult is what the matcher hands to the conversational layer
type MatchResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NoMatch is returned whenever no catalog entry shares a stem with the query.
var NoMatch = MatchResult{
	Title:       "No suitable service found",
	Description: "Sorry, we couldn't match your request to any available service.",
}

// Matched reports whether r came from a catalog entry rather than NoMatch.
func (r MatchResult) Matched() bool {
	return r != NoMatch
}

// ScoredService is a catalog entry with its overlap score for a query.
type ScoredService struct {
	Service *ServiceRecord
	Score   int
}

func resultFrom(rec *ServiceRecord) MatchResult {
	return MatchResult{Title: rec.Title, Description: rec.Description}
}

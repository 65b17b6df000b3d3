package model

// Authority is a user-curated record of a verified citation, kept per case
type Authority struct {
	ID        string  `json:"id"`
	Citation  string  `json:"citation"`
	CaseName  *string `json:"caseName,omitempty"`
	URL       string  `json:"url"`
	Source    string  `json:"source"`
	Title     *string `json:"title,omitempty"`
	DateAdded string  `json:"dateAdded"` // RFC 3339
	Notes     *string `json:"notes,omitempty"`
}

// URLCheckResult reports whether a judgment URL resolves to real content
type URLCheckResult struct {
	URL        string  `json:"url"`
	Exists     bool    `json:"exists"`
	StatusCode int     `json:"status_code"`
	Title      *string `json:"title,omitempty"`
}

// FetchedJudgment is the raw content of a judgment page
type FetchedJudgment struct {
	URL         string  `json:"url"`
	Title       *string `json:"title,omitempty"`
	ContentType string  `json:"content_type"`
	Content     string  `json:"content"`
	OK          bool    `json:"ok"`
}

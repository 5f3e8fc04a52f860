package model

// Job is the listing currently being applied to. Populated by whatever
// drives the application flow (CLI args, a file, browser automation).
type Job struct {
	Title       string
	Company     string
	Location    string
	URL         string
	Description string
	Summary     string // LLM-generated summary, set once per job
}

// Resume is the applicant's plain-text resume broken into named sections
// (personal_information, experience_details, projects, ...). Section text is
// interpolated into prompts verbatim.
type Resume struct {
	Sections map[string]string
}

// Section returns the named section's text, or "" when absent.
func (r *Resume) Section(name string) string {
	if r == nil {
		return ""
	}
	return r.Sections[name]
}

// HasSection reports whether the named section is present and non-empty.
func (r *Resume) HasSection(name string) bool {
	return r.Section(name) != ""
}

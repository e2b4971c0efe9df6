// Package domain contains the core data structures and domain logic for the application.
package domain

// RepoSummary holds the metadata shown in the repository detail view.
// It is produced whole by a single fetch and never mutated afterwards.
type RepoSummary struct {
	Name             string  `json:"name" yaml:"name"`
	Description      *string `json:"description" yaml:"description,omitempty"`
	SubscribersCount int     `json:"subscribers_count" yaml:"subscribers_count"`
	StargazersCount  int     `json:"stargazers_count" yaml:"stargazers_count"`
	ForksCount       int     `json:"forks_count" yaml:"forks_count"`
}

// GetDescription returns the description, or the empty string if it is absent.
func (s *RepoSummary) GetDescription() string {
	if s == nil || s.Description == nil {
		return ""
	}
	return *s.Description
}

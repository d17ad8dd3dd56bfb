package model

import "strings"

const SCMTypeGitHub = "github"

const (
	EventPush             = "push"
	EventWorkflowDispatch = "workflow_dispatch"
	EventPullRequest      = "pull_request"
)

// SCM describes the repository the step runs for
type SCM struct {
	Type    string `yaml:"type"`
	Owner   string `yaml:"owner"`
	Repo    string `yaml:"repo"`
	Branch  string `yaml:"branch"`
	Actor   string `yaml:"actor"`
	AssetID string `yaml:"assetId"`
}

// SCMFromEnv computes the SCM context from the GitHub runner environment.
// Malformed values are passed through as they are.
func SCMFromEnv(getenv func(string) string) SCM {
	repository := getenv("GITHUB_REPOSITORY")
	return SCM{
		Type:    SCMTypeGitHub,
		Owner:   segment(repository, 0),
		Repo:    segment(repository, 1),
		Branch:  BranchName(getenv("GITHUB_EVENT_NAME"), getenv("GITHUB_REF"), getenv("GITHUB_HEAD_REF")),
		Actor:   getenv("GITHUB_ACTOR"),
		AssetID: repository,
	}
}

// BranchName returns the third segment of ref for push and workflow_dispatch
// events, headRef for pull requests and an empty string for anything else.
func BranchName(event, ref, headRef string) string {
	switch event {
	case EventPush, EventWorkflowDispatch:
		return segment(ref, 2)
	case EventPullRequest:
		return headRef
	default:
		return ""
	}
}

// segment returns the idx-th slash delimited part of s or an empty string
func segment(s string, idx int) string {
	parts := strings.Split(s, "/")
	if idx >= len(parts) {
		return ""
	}
	return parts[idx]
}

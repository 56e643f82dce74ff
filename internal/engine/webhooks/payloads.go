package webhooks

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Actor struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

type Repository struct {
	FullName string `json:"full_name"`
	Name     string `json:"name"`
	Private  bool   `json:"private"`
}

// Owner returns the owning-organization segment of full_name.
func (r Repository) Owner() string {
	parts := strings.SplitN(r.FullName, "/", 2)
	return parts[0]
}

type Commit struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Author  Actor  `json:"author"`
}

type PushEvent struct {
	Ref        string     `json:"ref"`
	Pusher     Actor      `json:"pusher"`
	Repository Repository `json:"repository"`
	Commits    []Commit   `json:"commits"`
}

func (e *PushEvent) Validate() error {
	if e.Pusher.Login == "" {
		return fmt.Errorf("push event: pusher.login is required")
	}
	if e.Repository.FullName == "" {
		return fmt.Errorf("push event: repository.full_name is required")
	}
	return nil
}

var repositoryActions = map[string]bool{
	"created": true, "deleted": true, "archived": true, "unarchived": true,
	"edited": true, "renamed": true, "transferred": true,
	"publicized": true, "privatized": true,
}

type RepositoryEvent struct {
	Action     string     `json:"action"`
	Repository Repository `json:"repository"`
	Sender     Actor      `json:"sender"`
}

func (e *RepositoryEvent) Validate() error {
	if !repositoryActions[e.Action] {
		return fmt.Errorf("repository event: unsupported action %q", e.Action)
	}
	if e.Sender.Login == "" {
		return fmt.Errorf("repository event: sender.login is required")
	}
	if e.Repository.FullName == "" {
		return fmt.Errorf("repository event: repository.full_name is required")
	}
	return nil
}

var starActions = map[string]bool{"created": true, "deleted": true}

type StarEvent struct {
	Action     string     `json:"action"`
	Repository Repository `json:"repository"`
	Sender     Actor      `json:"sender"`
}

func (e *StarEvent) Validate() error {
	if !starActions[e.Action] {
		return fmt.Errorf("star event: unsupported action %q", e.Action)
	}
	if !strings.Contains(e.Repository.FullName, "/") {
		return fmt.Errorf("star event: repository.full_name must be owner/name")
	}
	return nil
}

type ForkEvent struct {
	Forkee     Repository `json:"forkee"`
	Repository Repository `json:"repository"`
	Sender     Actor      `json:"sender"`
}

func (e *ForkEvent) Validate() error {
	if !strings.Contains(e.Repository.FullName, "/") {
		return fmt.Errorf("fork event: repository.full_name must be owner/name")
	}
	return nil
}

var issueActions = map[string]bool{
	"opened": true, "closed": true, "reopened": true, "edited": true,
	"assigned": true, "unassigned": true, "labeled": true, "unlabeled": true,
}

type Issue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	User   Actor  `json:"user"`
}

type IssuesEvent struct {
	Action     string     `json:"action"`
	Issue      Issue      `json:"issue"`
	Repository Repository `json:"repository"`
	Sender     Actor      `json:"sender"`
}

func (e *IssuesEvent) Validate() error {
	if !issueActions[e.Action] {
		return fmt.Errorf("issues event: unsupported action %q", e.Action)
	}
	if e.Issue.Number == 0 {
		return fmt.Errorf("issues event: issue.number is required")
	}
	if e.Sender.Login == "" {
		return fmt.Errorf("issues event: sender.login is required")
	}
	return nil
}

var pullRequestActions = map[string]bool{
	"opened": true, "closed": true, "reopened": true, "edited": true,
	"assigned": true, "unassigned": true, "review_requested": true,
	"review_request_removed": true, "labeled": true, "unlabeled": true,
	"synchronize": true,
}

type PullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	User   Actor  `json:"user"`
	Merged bool   `json:"merged"`
}

type PullRequestEvent struct {
	Action      string      `json:"action"`
	PullRequest PullRequest `json:"pull_request"`
	Repository  Repository  `json:"repository"`
	Sender      Actor       `json:"sender"`
}

func (e *PullRequestEvent) Validate() error {
	if !pullRequestActions[e.Action] {
		return fmt.Errorf("pull_request event: unsupported action %q", e.Action)
	}
	if e.PullRequest.Number == 0 {
		return fmt.Errorf("pull_request event: pull_request.number is required")
	}
	if e.Sender.Login == "" {
		return fmt.Errorf("pull_request event: sender.login is required")
	}
	return nil
}

type PingEvent struct {
	HookID int64  `json:"hook_id"`
	Zen    string `json:"zen"`
}

func (e *PingEvent) Validate() error {
	if e.HookID == 0 {
		return fmt.Errorf("ping event: hook_id is required")
	}
	return nil
}

type validator interface {
	Validate() error
}

// decode unmarshals the raw body into the typed event and runs its validation.
func decode(body []byte, event validator) error {
	if err := json.Unmarshal(body, event); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return event.Validate()
}

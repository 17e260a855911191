package model

import (
	"time"

	"github.com/guarzo/repolookup/common"
)

// Identity maps a human-entered username to the platform's stable numeric id.
type Identity struct {
	NumericID string `json:"numericId"`
	Login     string `json:"login"`
}

// Repository is one public repository as returned by the upstream listing.
type Repository struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name,omitempty"`
	URL         string    `json:"url"`
	HomepageURL string    `json:"homepage_url,omitempty"`
	Description string    `json:"description,omitempty"`
	OwnerLogin  string    `json:"owner_login,omitempty"`
	Language    string    `json:"language,omitempty"`
	Stars       int       `json:"stargazers_count"`
	Fork        bool      `json:"fork"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// State is the coarse lifecycle of a lookup.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Status pairs a State with the error kind when State is StateError.
type Status struct {
	State State       `json:"state"`
	Kind  common.Kind `json:"kind,omitempty"`
}

func (s Status) String() string {
	if s.State == StateError && s.Kind != common.KindNone {
		return string(s.State) + "(" + string(s.Kind) + ")"
	}
	return string(s.State)
}

// Query is what a caller hands to the resolver: an optional explicit username
// and the caller's own session identity. SessionNumericID is used only when
// SessionUsername is empty.
type Query struct {
	ExplicitUsername  string
	SessionUsername   string
	SessionNumericID  string
	SessionOnPlatform bool
}

// Result is the caller-facing view of one lookup.
type Result struct {
	Target       string       `json:"target,omitempty"`
	Repositories []Repository `json:"repositories"`
	Login        string       `json:"login,omitempty"`
	NumericID    string       `json:"numericId,omitempty"`
	Status       Status       `json:"status"`
	// Superseded is set on the value returned to a caller whose request was
	// overtaken by a newer one; such results are never published as state.
	Superseded bool `json:"superseded,omitempty"`
}

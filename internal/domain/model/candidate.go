// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Status is the assessment lifecycle state of a candidate.
type Status string

// Candidate statuses.
const (
	StatusRegistered   Status = "registered"
	StatusTierAssigned Status = "tier_assigned"
)

// Candidate is the root entity of the store. Tier and TierScore are nil until
// the first assessment and are always written together.
type Candidate struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	Phone             string    `json:"phone,omitempty"`
	Location          string    `json:"location,omitempty"`
	YearsOfExperience float64   `json:"yearsOfExperience"`
	Status            Status    `json:"status"`
	Tier              *int      `json:"tier"`
	TierScore         *float64  `json:"tierScore"`
	NotificationSent  bool      `json:"notificationSent"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
	Skills            []Skill   `json:"skills"`
}

// FullName joins first and last name.
func (c Candidate) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Assessed reports whether a tier has been assigned.
func (c Candidate) Assessed() bool {
	return c.Tier != nil && c.TierScore != nil
}

// NewCandidate carries the registration payload.
type NewCandidate struct {
	Email             string  `json:"email"`
	FirstName         string  `json:"firstName"`
	LastName          string  `json:"lastName"`
	Phone             string  `json:"phone,omitempty"`
	Location          string  `json:"location,omitempty"`
	YearsOfExperience float64 `json:"yearsOfExperience,omitempty"`
}

// Normalize trims whitespace and lowercases the email.
func (n NewCandidate) Normalize() NewCandidate {
	n.Email = strings.ToLower(strings.TrimSpace(n.Email))
	n.FirstName = strings.TrimSpace(n.FirstName)
	n.LastName = strings.TrimSpace(n.LastName)
	n.Phone = strings.TrimSpace(n.Phone)
	n.Location = strings.TrimSpace(n.Location)
	return n
}

// Validate checks the registration payload.
func (n NewCandidate) Validate() error {
	if n.Email == "" {
		return fmt.Errorf("email is required: %w", ErrInvalid)
	}
	if _, err := mail.ParseAddress(n.Email); err != nil {
		return fmt.Errorf("email %q is not valid: %w", n.Email, ErrInvalid)
	}
	if n.FirstName == "" {
		return fmt.Errorf("firstName is required: %w", ErrInvalid)
	}
	if n.LastName == "" {
		return fmt.Errorf("lastName is required: %w", ErrInvalid)
	}
	return validateYears("yearsOfExperience", n.YearsOfExperience)
}

// CandidateUpdate is a partial update; nil fields are left untouched.
type CandidateUpdate struct {
	FirstName         *string  `json:"firstName,omitempty"`
	LastName          *string  `json:"lastName,omitempty"`
	Phone             *string  `json:"phone,omitempty"`
	Location          *string  `json:"location,omitempty"`
	YearsOfExperience *float64 `json:"yearsOfExperience,omitempty"`
}

// Validate checks the fields that are present.
func (u CandidateUpdate) Validate() error {
	if u.FirstName != nil && strings.TrimSpace(*u.FirstName) == "" {
		return fmt.Errorf("firstName must not be empty: %w", ErrInvalid)
	}
	if u.LastName != nil && strings.TrimSpace(*u.LastName) == "" {
		return fmt.Errorf("lastName must not be empty: %w", ErrInvalid)
	}
	if u.YearsOfExperience != nil {
		return validateYears("yearsOfExperience", *u.YearsOfExperience)
	}
	return nil
}

// Apply returns c with the present fields of u copied over.
func (u CandidateUpdate) Apply(c Candidate) Candidate {
	if u.FirstName != nil {
		c.FirstName = strings.TrimSpace(*u.FirstName)
	}
	if u.LastName != nil {
		c.LastName = strings.TrimSpace(*u.LastName)
	}
	if u.Phone != nil {
		c.Phone = strings.TrimSpace(*u.Phone)
	}
	if u.Location != nil {
		c.Location = strings.TrimSpace(*u.Location)
	}
	if u.YearsOfExperience != nil {
		c.YearsOfExperience = *u.YearsOfExperience
	}
	return c
}

// ListFilter selects candidates for listing and export. Take <= 0 means no limit.
type ListFilter struct {
	Skip   int
	Take   int
	Search string
	Tier   *int
}

// Matches reports whether c passes the search and tier predicates. Paging is
// applied by the caller.
func (f ListFilter) Matches(c Candidate) bool {
	if f.Tier != nil && (c.Tier == nil || *c.Tier != *f.Tier) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.FirstName), q) ||
		strings.Contains(strings.ToLower(c.LastName), q) ||
		strings.Contains(strings.ToLower(c.Email), q)
}

// CandidatePage is one page of a filtered candidate listing.
type CandidatePage struct {
	Data  []Candidate `json:"data"`
	Total int         `json:"total"`
	Skip  int         `json:"skip"`
	Take  int         `json:"take"`
}

package models

import (
	"strings"
	"time"
)

// ExchangeSeparator joins exchange topics into the single column the listings
// table stores them in.
const ExchangeSeparator = ","

// Listing represents a tutoring advert published on the board.
type Listing struct {
	ID            int64     `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	Exam          string    `db:"exam" json:"exam"`
	DegreeProgram string    `db:"degree_program" json:"degree_program"`
	HourlyRate    int       `db:"hourly_rate" json:"hourly_rate"`
	Available     bool      `db:"available" json:"available"`
	Exchange      string    `db:"exchange" json:"-"`
	AuthorID      string    `db:"author_id" json:"author_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ExchangeTopics splits the stored exchange column into its topic list.
func (l Listing) ExchangeTopics() []string {
	return SplitExchange(l.Exchange)
}

// SplitExchange parses a delimited exchange string into trimmed, non-empty topics.
func SplitExchange(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ExchangeSeparator)
	topics := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			topics = append(topics, trimmed)
		}
	}
	return topics
}

// JoinExchange serializes topics back into the stored representation.
func JoinExchange(topics []string) string {
	return strings.Join(topics, ExchangeSeparator)
}

// ListingDetail joins a listing with its author for presentation.
type ListingDetail struct {
	Listing
	AuthorEmail     string   `db:"author_email" json:"author_email"`
	AuthorFirstName string   `db:"author_first_name" json:"author_first_name"`
	AuthorLastName  string   `db:"author_last_name" json:"author_last_name"`
	Topics          []string `db:"-" json:"exchange_topics,omitempty"`
}

// ListingFilter captures the board filtering criteria. Nil/empty fields impose
// no constraint.
type ListingFilter struct {
	DegreeProgram string
	Exam          string
	MaxRate       *int
}

// Empty reports whether no filter is set.
func (f ListingFilter) Empty() bool {
	return f.DegreeProgram == "" && f.Exam == "" && f.MaxRate == nil
}

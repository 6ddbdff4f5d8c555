package entities

import "time"

const (
	// MinRatingScore and MaxRatingScore bound a rating's score, inclusive.
	MinRatingScore = 1
	MaxRatingScore = 5

	// MaxReviewLength is the longest review text accepted, in characters.
	MaxReviewLength = 500
)

// SubjectType is the kind of entity a rating aggregates against.
type SubjectType string

const (
	SubjectListing SubjectType = "listing"
	SubjectAgent   SubjectType = "agent"
)

// Valid reports whether t is a rateable subject type.
func (t SubjectType) Valid() bool {
	return t == SubjectListing || t == SubjectAgent
}

// SubjectRef identifies a rated listing or agent.
type SubjectRef struct {
	Type SubjectType `json:"subjectType"`
	ID   string      `json:"subjectId"`
}

func (s SubjectRef) String() string {
	return string(s.Type) + ":" + s.ID
}

// Rating is one rater's score for one subject. There is at most one rating
// per (subject, rater); resubmission updates it in place.
type Rating struct {
	ID          string      `json:"id" db:"id"`
	SubjectType SubjectType `json:"subjectType" db:"subject_type"`
	SubjectID   string      `json:"subjectId" db:"subject_id"`
	RaterID     string      `json:"raterId" db:"rater_id"`
	RaterName   string      `json:"raterName" db:"rater_name"`
	Score       int         `json:"score" db:"score"`
	Review      string      `json:"review" db:"review"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time   `json:"updatedAt" db:"updated_at"`
}

// Subject returns the rated subject.
func (r *Rating) Subject() SubjectRef {
	return SubjectRef{Type: r.SubjectType, ID: r.SubjectID}
}

// RatingTally is the raw sum and count of a subject's current scores.
type RatingTally struct {
	Sum   int
	Count int
}

// RatingAggregate is the derived rating summary stored on a subject.
type RatingAggregate struct {
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int     `json:"totalRatings"`
}

// RatingPage is one page of a subject's ratings.
type RatingPage struct {
	Items      []*Rating `json:"items"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
}

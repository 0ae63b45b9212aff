package model

import (
	"fmt"
	"time"
)

// Status is the lifecycle status of an inquiry
type Status string

const (
	// StatusNew means inquiry was captured but nobody reacted yet
	StatusNew Status = "new"
	// StatusContacted means customer was contacted
	StatusContacted Status = "contacted"
	// StatusScheduled means job was scheduled
	StatusScheduled Status = "scheduled"
	// StatusCompleted means job was done
	StatusCompleted Status = "completed"
	// StatusCancelled means inquiry was cancelled
	StatusCancelled Status = "cancelled"
)

// Statuses lists every known status
var Statuses = []Status{StatusNew, StatusContacted, StatusScheduled, StatusCompleted, StatusCancelled}

// Valid reports whether status is one of the known statuses.
// Any known status may follow any other, there is no transition graph.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus converts raw value to Status
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown inquiry status %q", raw)
	}
	return s, nil
}

// Inquiry is customer service request captured by the backend
type Inquiry struct {
	ID                   string     `json:"id" bson:"_id" validate:"required"`
	Name                 string     `json:"name" bson:"name"`
	Phone                string     `json:"phone" bson:"phone"`
	Email                *string    `json:"email" bson:"email"`
	InquiryDate          time.Time  `json:"inquiry_date" bson:"inquiry_date"`
	PreferredServiceDate *time.Time `json:"preferred_service_date" bson:"preferred_service_date"`
	EstimatedCompletion  *time.Time `json:"estimated_completion" bson:"estimated_completion"`
	Budget               *float64   `json:"budget" bson:"budget"`
	JobDescription       *string    `json:"job_description" bson:"job_description"`
	JobType              string     `json:"job_type,omitempty" bson:"job_type,omitempty"`
	Location             string     `json:"location,omitempty" bson:"location,omitempty"`
	CallSid              *string    `json:"call_sid" bson:"call_sid"`
	Status               Status     `json:"status" bson:"status" validate:"required,oneof=new contacted scheduled completed cancelled"`
	CreatedAt            time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" bson:"updated_at"`
}

// Copy returns deep copy of inquiry, so nullable fields are not shared
func (i *Inquiry) Copy() *Inquiry {
	if i == nil {
		return nil
	}

	c := *i
	c.Email = copyPtr(i.Email)
	c.PreferredServiceDate = copyPtr(i.PreferredServiceDate)
	c.EstimatedCompletion = copyPtr(i.EstimatedCompletion)
	c.Budget = copyPtr(i.Budget)
	c.JobDescription = copyPtr(i.JobDescription)
	c.CallSid = copyPtr(i.CallSid)
	return &c
}

// InquiryListResponse is the envelope returned by inquiry fetch endpoint
type InquiryListResponse struct {
	Success *bool      `json:"success" validate:"required"`
	Data    []*Inquiry `json:"data" validate:"omitempty,dive,required"`
	Error   string     `json:"error,omitempty"`
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

package models

import (
	"strings"
	"time"
)

// Institution is the organisation that awards certificates.
type Institution struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	Address              string    `json:"address,omitempty"`
	ContactInfo          string    `json:"contactInfo,omitempty"`
	AccreditationDetails string    `json:"accreditationDetails,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
}

// NewInstitution creates a new Institution.
func NewInstitution(name, address, contactInfo, accreditation string) *Institution {
	return &Institution{
		Name:                 strings.TrimSpace(name),
		Address:              address,
		ContactInfo:          contactInfo,
		AccreditationDetails: accreditation,
		CreatedAt:            time.Now().UTC(),
	}
}

// Course is a unit of study whose completion earns a certificate.
type Course struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"courseName"`
	Description        string    `json:"description,omitempty"`
	CompletionCriteria string    `json:"completionCriteria,omitempty"`
	TemplateID         *int64    `json:"templateId,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// NewCourse creates a new Course.
func NewCourse(name, description, completionCriteria string, templateID *int64) *Course {
	return &Course{
		Name:               strings.TrimSpace(name),
		Description:        description,
		CompletionCriteria: completionCriteria,
		TemplateID:         templateID,
		CreatedAt:          time.Now().UTC(),
	}
}

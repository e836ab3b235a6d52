package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultDescription = "Not provided"
	DefaultSalary      = "Not disclosed"
	DefaultLocation    = "Remote"
	DefaultJobType     = "Full-time"

	// No provider exposes these yet.
	DefaultExperienceLevel = 1
	DefaultPosition        = 1
)

// Job is the canonical record persisted by ingestion regardless of source.
type Job struct {
	ID              uuid.UUID   `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Requirements    []string    `json:"requirements"`
	Salary          string      `json:"salary"`
	ExperienceLevel int         `json:"experienceLevel"`
	Location        string      `json:"location"`
	JobType         string      `json:"jobType"`
	Position        int         `json:"position"`
	Company         uuid.UUID   `json:"company"`
	CreatedBy       uuid.UUID   `json:"created_by"`
	Applications    []uuid.UUID `json:"applications"`
	Source          string      `json:"source"`
	CreatedAt       time.Time   `json:"created_at"`
}

// Key is the de-duplication key of a Job.
type Key struct {
	Title    string
	Location string
	Company  uuid.UUID
}

func (j Job) Key() Key {
	return Key{Title: j.Title, Location: j.Location, Company: j.Company}
}

// Refs are the placeholder references stamped on every ingested job.
type Refs struct {
	Company   uuid.UUID
	CreatedBy uuid.UUID
}

func (j Job) MarshalBinary() ([]byte, error) {
	return json.Marshal(j)
}

func (j *Job) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, j)
}

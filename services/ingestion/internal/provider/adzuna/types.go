package adzuna

import (
	"net/http"
)

// Config defines Adzuna API client settings.
type Config struct {
	AppID      string
	AppKey     string
	Country    string
	BaseURL    string
	Keyword    string
	PageSize   int
	MaxDaysOld int
	HTTPClient *http.Client
}

type searchResponse struct {
	Count   int       `json:"count"`
	Results []Listing `json:"results"`
}

// Listing is one raw result of the Adzuna search endpoint.
type Listing struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Location     *place    `json:"location"`
	Category     *category `json:"category"`
	ContractType string    `json:"contract_type"`
	ContractTime string    `json:"contract_time"`
	SalaryMin    *float64  `json:"salary_min"`
	SalaryMax    *float64  `json:"salary_max"`
	RedirectURL  string    `json:"redirect_url"`
	Created      string    `json:"created"`
}

type place struct {
	DisplayName string `json:"display_name"`
}

type category struct {
	Label string `json:"label"`
}

package models

import "time"

// Attribution is stamped onto every admin-created record at creation time and
// not kept in sync with later changes to the admin's UserRecord.
type Attribution struct {
	AddedByAdminUID         string    `json:"addedByAdminUID"`
	AddedByAdminName        string    `json:"addedByAdminName"`
	AddedByAdminPhoneNumber string    `json:"addedByAdminPhoneNumber"`
	CreatedAt               time.Time `json:"createdAt"`
}

type SoilType struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	PH               float64  `json:"pH"`
	Nutrients        string   `json:"nutrients"`
	WaterRetention   string   `json:"waterRetention"`
	RecommendedCrops []string `json:"recommendedCrops"`
	Attribution
}

type Distributor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Location string `json:"location"`
	Attribution
}

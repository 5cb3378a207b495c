package sdk

import "time"

// CheckinStatus is a racer's progress through event check-in.
type CheckinStatus string

const (
	CheckinRegistered       CheckinStatus = "registered"
	CheckinCheckedIn        CheckinStatus = "checked_in"
	CheckinPassedInspection CheckinStatus = "passed_inspection"
)

// Racer is a registered participant.
type Racer struct {
	ID            int           `json:"id"`
	FirstName     string        `json:"first_name"`
	LastName      string        `json:"last_name"`
	CarNumber     string        `json:"car_number"`
	Rank          string        `json:"rank"`
	Weight        *float64      `json:"weight,omitempty"`
	CheckinStatus CheckinStatus `json:"checkin_status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	PhotoURL      string        `json:"photo_url,omitempty"`
	Den           string        `json:"den,omitempty"`
	GroupID       *int          `json:"group_id,omitempty"`
}

// FullName returns "First Last".
func (r Racer) FullName() string {
	return r.FirstName + " " + r.LastName
}

// RacerInput creates or patches a racer. Zero-valued optional fields are omitted.
type RacerInput struct {
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	CarNumber string   `json:"car_number,omitempty"`
	Rank      string   `json:"rank,omitempty"`
	Weight    *float64 `json:"weight,omitempty"`
	Den       string   `json:"den,omitempty"`
	GroupID   *int     `json:"group_id,omitempty"`
}

// RaceStatus is the lifecycle state of a race or heat.
type RaceStatus string

const (
	RaceStatusPending    RaceStatus = "pending"
	RaceStatusInProgress RaceStatus = "in_progress"
	RaceStatusCompleted  RaceStatus = "completed"
)

// RaceType selects the server-side scheduling format.
type RaceType string

const (
	RaceTypeRoundRobin  RaceType = "round_robin"
	RaceTypeElimination RaceType = "elimination"
	RaceTypeCustom      RaceType = "custom"
)

// Race is a scheduled competition made of heats.
type Race struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	Status         RaceStatus `json:"status"`
	RaceType       RaceType   `json:"race_type"`
	GroupID        *int       `json:"group_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	TotalHeats     int        `json:"total_heats"`
	CompletedHeats int        `json:"completed_heats"`
}

// RaceInput creates or patches a race.
type RaceInput struct {
	Name             string   `json:"name,omitempty"`
	RaceType         RaceType `json:"race_type,omitempty"`
	GroupID          *int     `json:"group_id,omitempty"`
	IncludeAllRacers *bool    `json:"include_all_racers,omitempty"`
	SelectedRacerIDs []int    `json:"selected_racer_ids,omitempty"`
}

// Heat is one run of a race.
type Heat struct {
	ID         int        `json:"id"`
	RaceID     int        `json:"race_id"`
	HeatNumber int        `json:"heat_number"`
	Status     RaceStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Lanes      []HeatLane `json:"lanes"`
}

// HeatLane is a racer's lane assignment and result within a heat.
type HeatLane struct {
	ID             int      `json:"id"`
	HeatID         int      `json:"heat_id"`
	LaneNumber     int      `json:"lane_number"`
	RacerID        int      `json:"racer_id"`
	RacerName      string   `json:"racer_name"`
	CarNumber      string   `json:"car_number"`
	FinishPosition *int     `json:"finish_position,omitempty"`
	FinishTime     *float64 `json:"finish_time,omitempty"`
	DNF            bool     `json:"dnf"`
}

// HeatResults submits finishing data for a heat.
type HeatResults struct {
	HeatID int          `json:"heat_id"`
	Lanes  []LaneResult `json:"lanes"`
}

// LaneResult is the finishing data for one lane.
type LaneResult struct {
	LaneID         int      `json:"lane_id"`
	FinishPosition *int     `json:"finish_position,omitempty"`
	FinishTime     *float64 `json:"finish_time,omitempty"`
	DNF            bool     `json:"dnf"`
}

// RacerResult is a racer's aggregate standing.
type RacerResult struct {
	RacerID        int      `json:"racer_id"`
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	CarNumber      string   `json:"car_number"`
	Rank           string   `json:"rank"`
	Den            string   `json:"den,omitempty"`
	TotalPoints    float64  `json:"total_points"`
	AvgTime        *float64 `json:"avg_time,omitempty"`
	FastestTime    *float64 `json:"fastest_time,omitempty"`
	RacesCompleted int      `json:"races_completed"`
	Position       int      `json:"position"`
}

// RaceReport is the results summary of one race.
type RaceReport struct {
	RaceID      int           `json:"race_id"`
	Name        string        `json:"name"`
	RaceType    string        `json:"race_type"`
	Status      string        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Results     []RacerResult `json:"results"`
}

// AwardType selects a certificate template.
type AwardType string

const (
	AwardWinner      AwardType = "winner"
	AwardParticipant AwardType = "participant"
	AwardSpeed       AwardType = "speed"
	AwardDesign      AwardType = "design"
	AwardCustom      AwardType = "custom"
)

// CertificateRequest asks the server to render an award certificate.
type CertificateRequest struct {
	RaceID      *int      `json:"race_id,omitempty"`
	RacerID     *int      `json:"racer_id,omitempty"`
	AwardType   AwardType `json:"award_type"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Profile is the passthrough body of GET /auth/me.
type Profile struct {
	ID          string   `mapstructure:"id"`
	Username    string   `mapstructure:"username"`
	Role        string   `mapstructure:"role"`
	IsAdmin     bool     `mapstructure:"is_admin"`
	Permissions []string `mapstructure:"permissions"`
}

package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
)

// Client provides typed access to the derby API. Every call goes through the
// Gateway, so it carries the session credential and a 401 logs the session out.
type Client struct {
	gw *Gateway
}

// ClientOptions configures construction of clients that own their HTTP client.
type ClientOptions struct {
	HTTPClient *http.Client
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the HTTP client used for calls.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// NewClient creates a Client over gw.
func NewClient(gw *Gateway) *Client {
	return &Client{gw: gw}
}

// Gateway returns the underlying gateway.
func (c *Client) Gateway() *Gateway { return c.gw }

// Me returns the server's view of the current user.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var raw map[string]any
	if err := c.gw.Get(ctx, "/auth/me", &raw); err != nil {
		return nil, err
	}

	var profile Profile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &profile,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build profile decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &profile, nil
}

// ListRacers returns every registered racer.
func (c *Client) ListRacers(ctx context.Context) ([]Racer, error) {
	var racers []Racer
	if err := c.gw.Get(ctx, "/racers", &racers); err != nil {
		return nil, err
	}
	return racers, nil
}

// GetRacer returns one racer.
func (c *Client) GetRacer(ctx context.Context, id int) (*Racer, error) {
	var racer Racer
	if err := c.gw.Get(ctx, fmt.Sprintf("/racers/%d", id), &racer); err != nil {
		return nil, err
	}
	return &racer, nil
}

// CreateRacer registers a racer. First name, last name and car number are required.
func (c *Client) CreateRacer(ctx context.Context, input RacerInput) (*Racer, error) {
	if input.FirstName == "" || input.LastName == "" {
		return nil, fmt.Errorf("racer first and last name are required")
	}
	if input.CarNumber == "" {
		return nil, fmt.Errorf("car number is required")
	}
	var racer Racer
	if err := c.gw.Post(ctx, "/racers", input, &racer); err != nil {
		return nil, err
	}
	return &racer, nil
}

// UpdateRacer patches the non-empty fields of input onto a racer.
func (c *Client) UpdateRacer(ctx context.Context, id int, input RacerInput) (*Racer, error) {
	var racer Racer
	if err := c.gw.Patch(ctx, fmt.Sprintf("/racers/%d", id), input, &racer); err != nil {
		return nil, err
	}
	return &racer, nil
}

// DeleteRacer removes a racer.
func (c *Client) DeleteRacer(ctx context.Context, id int) error {
	return c.gw.Delete(ctx, fmt.Sprintf("/racers/%d", id))
}

// CheckinRacer moves a racer to status.
func (c *Client) CheckinRacer(ctx context.Context, id int, status CheckinStatus) (*Racer, error) {
	var racer Racer
	body := map[string]CheckinStatus{"status": status}
	if err := c.gw.Patch(ctx, fmt.Sprintf("/racers/%d/checkin", id), body, &racer); err != nil {
		return nil, err
	}
	return &racer, nil
}

// PhotoField is the multipart form field carrying a racer photo.
const PhotoField = "photo"

// UploadRacerPhoto attaches the image read from r to racer id as a
// multipart upload and returns the updated racer.
func (c *Client) UploadRacerPhoto(ctx context.Context, id int, filename string, r io.Reader) (*Racer, error) {
	if r == nil {
		return nil, fmt.Errorf("photo content is required")
	}
	name := filepath.Base(filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("photo file name is required")
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile(PhotoField, name)
	if err != nil {
		return nil, fmt.Errorf("failed to build photo upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read photo %s: %w", name, err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to build photo upload: %w", err)
	}

	path := fmt.Sprintf("/racers/%d/photo", id)
	data, err := c.gw.Send(ctx, http.MethodPost, path, form.FormDataContentType(), &body)
	if err != nil {
		return nil, err
	}
	var racer Racer
	if err := json.Unmarshal(data, &racer); err != nil {
		return nil, fmt.Errorf("failed to decode POST %s response: %w", path, err)
	}
	return &racer, nil
}

// Ranks lists the scout ranks racers are registered under.
func (c *Client) Ranks(ctx context.Context) ([]string, error) {
	var ranks []string
	if err := c.gw.Get(ctx, "/racers/ranks", &ranks); err != nil {
		return nil, err
	}
	return ranks, nil
}

// Dens lists the dens racers are registered under.
func (c *Client) Dens(ctx context.Context) ([]string, error) {
	var dens []string
	if err := c.gw.Get(ctx, "/racers/dens", &dens); err != nil {
		return nil, err
	}
	return dens, nil
}

// ListRaces returns every race.
func (c *Client) ListRaces(ctx context.Context) ([]Race, error) {
	var races []Race
	if err := c.gw.Get(ctx, "/races", &races); err != nil {
		return nil, err
	}
	return races, nil
}

// GetRace returns one race.
func (c *Client) GetRace(ctx context.Context, id int) (*Race, error) {
	var race Race
	if err := c.gw.Get(ctx, fmt.Sprintf("/races/%d", id), &race); err != nil {
		return nil, err
	}
	return &race, nil
}

// CreateRace schedules a race. Name is required; race type defaults to round robin.
func (c *Client) CreateRace(ctx context.Context, input RaceInput) (*Race, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("race name is required")
	}
	if input.RaceType == "" {
		input.RaceType = RaceTypeRoundRobin
	}
	var race Race
	if err := c.gw.Post(ctx, "/races", input, &race); err != nil {
		return nil, err
	}
	return &race, nil
}

// UpdateRace patches the non-empty fields of input onto a race.
func (c *Client) UpdateRace(ctx context.Context, id int, input RaceInput) (*Race, error) {
	var race Race
	if err := c.gw.Patch(ctx, fmt.Sprintf("/races/%d", id), input, &race); err != nil {
		return nil, err
	}
	return &race, nil
}

// DeleteRace removes a race.
func (c *Client) DeleteRace(ctx context.Context, id int) error {
	return c.gw.Delete(ctx, fmt.Sprintf("/races/%d", id))
}

// StartRace moves a race to in_progress.
func (c *Client) StartRace(ctx context.Context, id int) (*Race, error) {
	return c.raceAction(ctx, id, "start")
}

// CompleteRace moves a race to completed.
func (c *Client) CompleteRace(ctx context.Context, id int) (*Race, error) {
	return c.raceAction(ctx, id, "complete")
}

func (c *Client) raceAction(ctx context.Context, id int, action string) (*Race, error) {
	var race Race
	if err := c.gw.Post(ctx, fmt.Sprintf("/races/%d/%s", id, action), nil, &race); err != nil {
		return nil, err
	}
	return &race, nil
}

// GenerateHeats asks the server to schedule the heats of a race.
func (c *Client) GenerateHeats(ctx context.Context, raceID int) ([]Heat, error) {
	var heats []Heat
	if err := c.gw.Post(ctx, fmt.Sprintf("/races/%d/generate-heats", raceID), nil, &heats); err != nil {
		return nil, err
	}
	return heats, nil
}

// RaceHeats lists the heats of a race.
func (c *Client) RaceHeats(ctx context.Context, raceID int) ([]Heat, error) {
	var heats []Heat
	if err := c.gw.Get(ctx, fmt.Sprintf("/races/%d/heats", raceID), &heats); err != nil {
		return nil, err
	}
	return heats, nil
}

// RaceResults returns the standings of one race.
func (c *Client) RaceResults(ctx context.Context, raceID int) ([]RacerResult, error) {
	var results []RacerResult
	if err := c.gw.Get(ctx, fmt.Sprintf("/races/%d/results", raceID), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// GetHeat returns one heat with its lanes.
func (c *Client) GetHeat(ctx context.Context, id int) (*Heat, error) {
	var heat Heat
	if err := c.gw.Get(ctx, fmt.Sprintf("/heats/%d", id), &heat); err != nil {
		return nil, err
	}
	return &heat, nil
}

// StartHeat moves a heat to in_progress.
func (c *Client) StartHeat(ctx context.Context, id int) (*Heat, error) {
	var heat Heat
	if err := c.gw.Post(ctx, fmt.Sprintf("/heats/%d/start", id), nil, &heat); err != nil {
		return nil, err
	}
	return &heat, nil
}

// SubmitHeatResults records finishing data for the heat named in results.
func (c *Client) SubmitHeatResults(ctx context.Context, results HeatResults) (*Heat, error) {
	if results.HeatID == 0 {
		return nil, fmt.Errorf("heat ID is required")
	}
	var heat Heat
	if err := c.gw.Post(ctx, fmt.Sprintf("/heats/%d/results", results.HeatID), results, &heat); err != nil {
		return nil, err
	}
	return &heat, nil
}

// OverallResults returns the event-wide standings.
func (c *Client) OverallResults(ctx context.Context) ([]RacerResult, error) {
	var results []RacerResult
	if err := c.gw.Get(ctx, "/reports/results", &results); err != nil {
		return nil, err
	}
	return results, nil
}

// RaceReport returns the report of one race.
func (c *Client) RaceReport(ctx context.Context, raceID int) (*RaceReport, error) {
	var report RaceReport
	if err := c.gw.Get(ctx, fmt.Sprintf("/reports/races/%d", raceID), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// RacerHistory returns every result recorded for one racer.
func (c *Client) RacerHistory(ctx context.Context, racerID int) ([]RacerResult, error) {
	var results []RacerResult
	if err := c.gw.Get(ctx, fmt.Sprintf("/reports/racers/%d", racerID), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Standings returns the overall standings.
func (c *Client) Standings(ctx context.Context) ([]RacerResult, error) {
	var results []RacerResult
	if err := c.gw.Get(ctx, "/reports/standings", &results); err != nil {
		return nil, err
	}
	return results, nil
}

// RankStandings returns the standings within one rank.
func (c *Client) RankStandings(ctx context.Context, rank string) ([]RacerResult, error) {
	var results []RacerResult
	if err := c.gw.Get(ctx, "/reports/standings/"+url.PathEscape(rank), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Certificate renders an award certificate and returns the document bytes.
func (c *Client) Certificate(ctx context.Context, req CertificateRequest) ([]byte, error) {
	if req.AwardType == "" {
		return nil, fmt.Errorf("award type is required")
	}
	return c.gw.Raw(ctx, http.MethodPost, "/reports/certificates", req)
}

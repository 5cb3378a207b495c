package sdk_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/jeremysavoy/derby-director/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientMe(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	profile, err := h.client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", profile.ID)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "admin", profile.Role)
	assert.True(t, profile.IsAdmin)
	assert.Equal(t, []string{"manage_races"}, profile.Permissions)
}

func TestClientMeAnonymous(t *testing.T) {
	h := newHarness(t)

	_, err := h.client.Me(context.Background())
	assert.ErrorIs(t, err, sdk.ErrUnauthorized)
}

func TestClientRacers(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.login(t)

	_, err := h.client.CreateRacer(ctx, sdk.RacerInput{FirstName: "Ada"})
	assert.ErrorContains(t, err, "first and last name are required")

	ada, err := h.client.CreateRacer(ctx, sdk.RacerInput{FirstName: "Ada", LastName: "Lovelace", CarNumber: "101", Rank: "Wolf", Den: "Den 3"})
	require.NoError(t, err)
	assert.NotZero(t, ada.ID)
	assert.Equal(t, sdk.CheckinRegistered, ada.CheckinStatus)
	assert.Equal(t, "Ada Lovelace", ada.FullName())

	grace, err := h.client.CreateRacer(ctx, sdk.RacerInput{FirstName: "Grace", LastName: "Hopper", CarNumber: "102", Rank: "Bear", Den: "Den 1"})
	require.NoError(t, err)

	racers, err := h.client.ListRacers(ctx)
	require.NoError(t, err)
	assert.Len(t, racers, 2)

	updated, err := h.client.UpdateRacer(ctx, ada.ID, sdk.RacerInput{CarNumber: "111"})
	require.NoError(t, err)
	assert.Equal(t, "111", updated.CarNumber)
	assert.Equal(t, "Ada", updated.FirstName)

	checked, err := h.client.CheckinRacer(ctx, grace.ID, sdk.CheckinPassedInspection)
	require.NoError(t, err)
	assert.Equal(t, sdk.CheckinPassedInspection, checked.CheckinStatus)

	ranks, err := h.client.Ranks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bear", "Wolf"}, ranks)

	dens, err := h.client.Dens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Den 1", "Den 3"}, dens)

	require.NoError(t, h.client.DeleteRacer(ctx, grace.ID))
	_, err = h.client.GetRacer(ctx, grace.ID)
	apiErr := sdk.AsAPIError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.Equal(t, "Racer not found", apiErr.Detail)

	// a 404 is not an authorization failure
	assert.True(t, h.session.IsAuthenticated())
}

func TestClientRaceLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.login(t)
	h.server.SeedRacers(
		sdk.Racer{ID: 1, FirstName: "A", LastName: "One", CarNumber: "1", Rank: "Wolf"},
		sdk.Racer{ID: 2, FirstName: "B", LastName: "Two", CarNumber: "2", Rank: "Wolf"},
		sdk.Racer{ID: 3, FirstName: "C", LastName: "Three", CarNumber: "3", Rank: "Bear"},
		sdk.Racer{ID: 4, FirstName: "D", LastName: "Four", CarNumber: "4", Rank: "Bear"},
		sdk.Racer{ID: 5, FirstName: "E", LastName: "Five", CarNumber: "5", Rank: "Lion"},
	)

	_, err := h.client.CreateRace(ctx, sdk.RaceInput{})
	assert.ErrorContains(t, err, "race name is required")

	race, err := h.client.CreateRace(ctx, sdk.RaceInput{Name: "Final"})
	require.NoError(t, err)
	assert.Equal(t, sdk.RaceTypeRoundRobin, race.RaceType)
	assert.Equal(t, sdk.RaceStatusPending, race.Status)

	heats, err := h.client.GenerateHeats(ctx, race.ID)
	require.NoError(t, err)
	require.Len(t, heats, 2)
	assert.Len(t, heats[0].Lanes, 4)
	assert.Len(t, heats[1].Lanes, 1)

	listed, err := h.client.RaceHeats(ctx, race.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	started, err := h.client.StartRace(ctx, race.ID)
	require.NoError(t, err)
	assert.Equal(t, sdk.RaceStatusInProgress, started.Status)

	heat, err := h.client.StartHeat(ctx, heats[0].ID)
	require.NoError(t, err)
	assert.Equal(t, sdk.RaceStatusInProgress, heat.Status)

	_, err = h.client.SubmitHeatResults(ctx, sdk.HeatResults{})
	assert.ErrorContains(t, err, "heat ID is required")

	first := 1
	finish := 3.21
	done, err := h.client.SubmitHeatResults(ctx, sdk.HeatResults{
		HeatID: heats[0].ID,
		Lanes:  []sdk.LaneResult{{LaneID: heats[0].Lanes[0].ID, FinishPosition: &first, FinishTime: &finish}},
	})
	require.NoError(t, err)
	assert.Equal(t, sdk.RaceStatusCompleted, done.Status)
	require.NotNil(t, done.Lanes[0].FinishPosition)
	assert.Equal(t, 1, *done.Lanes[0].FinishPosition)

	fetched, err := h.client.GetHeat(ctx, heats[0].ID)
	require.NoError(t, err)
	assert.Equal(t, done.Lanes, fetched.Lanes)

	completed, err := h.client.CompleteRace(ctx, race.ID)
	require.NoError(t, err)
	assert.Equal(t, sdk.RaceStatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)

	results, err := h.client.RaceResults(ctx, race.ID)
	require.NoError(t, err)
	assert.Len(t, results, 5)

	races, err := h.client.ListRaces(ctx)
	require.NoError(t, err)
	assert.Len(t, races, 1)

	require.NoError(t, h.client.DeleteRace(ctx, race.ID))
	_, err = h.client.GetRace(ctx, race.ID)
	assert.NotNil(t, sdk.AsAPIError(err))
}

func TestClientReports(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.login(t)
	h.server.SeedRacers(
		sdk.Racer{ID: 1, FirstName: "A", LastName: "One", CarNumber: "1", Rank: "Wolf Cub"},
		sdk.Racer{ID: 2, FirstName: "B", LastName: "Two", CarNumber: "2", Rank: "Bear"},
	)
	h.server.SeedRaces(sdk.Race{ID: 10, Name: "Heat Day", RaceType: sdk.RaceTypeElimination, Status: sdk.RaceStatusCompleted})

	overall, err := h.client.OverallResults(ctx)
	require.NoError(t, err)
	assert.Len(t, overall, 2)

	standings, err := h.client.Standings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, standings[0].Position)

	wolves, err := h.client.RankStandings(ctx, "Wolf Cub")
	require.NoError(t, err)
	require.Len(t, wolves, 1)
	assert.Equal(t, 1, wolves[0].RacerID)

	report, err := h.client.RaceReport(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Heat Day", report.Name)
	assert.Equal(t, "elimination", report.RaceType)
	assert.Len(t, report.Results, 2)

	history, err := h.client.RacerHistory(ctx, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, history)

	_, err = h.client.Certificate(ctx, sdk.CertificateRequest{})
	assert.ErrorContains(t, err, "award type is required")

	racerID := 1
	pdf, err := h.client.Certificate(ctx, sdk.CertificateRequest{RacerID: &racerID, AwardType: sdk.AwardWinner})
	require.NoError(t, err)
	assert.Contains(t, string(pdf), "%PDF")
}

func TestClientUploadRacerPhoto(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.login(t)

	ada, err := h.client.CreateRacer(ctx, sdk.RacerInput{FirstName: "Ada", LastName: "Lovelace", CarNumber: "101"})
	require.NoError(t, err)

	_, err = h.client.UploadRacerPhoto(ctx, ada.ID, "", strings.NewReader("x"))
	assert.ErrorContains(t, err, "file name is required")
	_, err = h.client.UploadRacerPhoto(ctx, ada.ID, "car.jpg", nil)
	assert.ErrorContains(t, err, "content is required")

	updated, err := h.client.UploadRacerPhoto(ctx, ada.ID, "/home/pack/photos/car.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, ada.ID, updated.ID)
	assert.Equal(t, "/uploads/racers/1/car.jpg", updated.PhotoURL)

	stored, ok := h.server.Photo(ada.ID)
	require.True(t, ok)
	assert.Equal(t, "jpeg-bytes", string(stored))

	token, err := h.session.Token()
	require.NoError(t, err)
	requests := h.server.Requests()
	last := requests[len(requests)-1]
	assert.Equal(t, "/api/racers/1/photo", last.Path)
	assert.Equal(t, "Bearer "+token.AccessToken, last.Authorization)

	_, err = h.client.UploadRacerPhoto(ctx, 99, "car.jpg", strings.NewReader("x"))
	apiErr := sdk.AsAPIError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClientUploadRacerPhotoUnauthorizedLogsOut(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.login(t)

	h.server.Fail("/racers/1/photo", http.StatusUnauthorized, "Token expired")
	_, err := h.client.UploadRacerPhoto(ctx, 1, "car.jpg", strings.NewReader("x"))
	require.ErrorIs(t, err, sdk.ErrUnauthorized)
	assert.False(t, h.session.IsAuthenticated())
	assert.Equal(t, []string{sdk.DefaultLoginPath}, h.nav.Paths())
}

// Package sdktest provides an in-process fake of the derby API for tests.
package sdktest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jeremysavoy/derby-director/pkg/sdk"
)

// Malformed is a credential with three segments that does not decode.
const Malformed = "x.y.z"

var signingKey = []byte("derby-test-signing-key")

// User is an account the fake login endpoint accepts.
type User struct {
	Password    string
	Subject     any
	Role        string
	Permissions []string
}

// Request is a call observed by the fake server.
type Request struct {
	Method        string
	Path          string
	Authorization string
}

type failure struct {
	status int
	detail string
}

// Server is a fake derby API. Its API base URL is URL + "/api".
type Server struct {
	*httptest.Server

	// TokenTTL is the lifetime of issued credentials. Defaults to one hour.
	TokenTTL time.Duration

	mu        sync.Mutex
	users     map[string]User
	failures  map[string]failure
	issue     func(User) string
	requests  []Request
	racers    []sdk.Racer
	races     []sdk.Race
	heats     []sdk.Heat
	nextID    int
	certBytes []byte
	photos    map[int][]byte
}

// NewServer starts a fake API knowing alice/secret (sub 1, admin, manage_races).
// It is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		TokenTTL: time.Hour,
		users: map[string]User{
			"alice": {Password: "secret", Subject: 1, Role: "admin", Permissions: []string{"manage_races"}},
		},
		failures:  make(map[string]failure),
		nextID:    1,
		certBytes: []byte("%PDF-1.4 fake certificate"),
		photos:    make(map[int][]byte),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// APIURL returns the base URL SDK clients should be configured with.
func (s *Server) APIURL() string {
	return s.URL + "/api"
}

// AddUser registers an account for the login endpoint.
func (s *Server) AddUser(username string, u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = u
}

// Fail makes every request to path (relative to the API base) answer status
// with detail as the error body, until Recover is called.
func (s *Server) Fail(path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{status: status, detail: detail}
}

// Recover clears a failure installed by Fail.
func (s *Server) Recover(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, path)
}

// IssueWith replaces the credential minted on successful login.
func (s *Server) IssueWith(fn func(User) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issue = fn
}

// Requests returns the calls observed so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// SeedRacers replaces the racer table.
func (s *Server) SeedRacers(racers ...sdk.Racer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.racers = slices.Clone(racers)
	for _, r := range racers {
		s.nextID = max(s.nextID, r.ID+1)
	}
}

// SeedRaces replaces the race table.
func (s *Server) SeedRaces(races ...sdk.Race) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.races = slices.Clone(races)
	for _, r := range races {
		s.nextID = max(s.nextID, r.ID+1)
	}
}

// SeedHeats replaces the heat table.
func (s *Server) SeedHeats(heats ...sdk.Heat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heats = slices.Clone(heats)
}

// Photo returns the last photo uploaded for racer id.
func (s *Server) Photo(id int) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.photos[id]
	return data, ok
}

// Token mints a signed credential carrying sub, role and permissions that
// expires at exp.
func Token(sub any, role string, permissions []string, exp time.Time) string {
	return Sign(jwt.MapClaims{
		"sub":         sub,
		"role":        role,
		"permissions": permissions,
		"exp":         exp.Unix(),
	})
}

// Sign mints a credential carrying exactly claims.
func Sign(claims jwt.MapClaims) string {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(fmt.Sprintf("sign test token: %v", err))
	}
	return signed
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.injectFailures)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireBearer)

			r.Get("/auth/me", s.handleMe)

			r.Get("/racers", s.listRacers)
			r.Post("/racers", s.createRacer)
			r.Get("/racers/ranks", s.listRanks)
			r.Get("/racers/dens", s.listDens)
			r.Get("/racers/{id}", s.getRacer)
			r.Patch("/racers/{id}", s.updateRacer)
			r.Delete("/racers/{id}", s.deleteRacer)
			r.Patch("/racers/{id}/checkin", s.checkinRacer)
			r.Post("/racers/{id}/photo", s.uploadPhoto)

			r.Get("/races", s.listRaces)
			r.Post("/races", s.createRace)
			r.Get("/races/{id}", s.getRace)
			r.Delete("/races/{id}", s.deleteRace)
			r.Post("/races/{id}/start", s.setRaceStatus(sdk.RaceStatusInProgress))
			r.Post("/races/{id}/complete", s.setRaceStatus(sdk.RaceStatusCompleted))
			r.Get("/races/{id}/heats", s.raceHeats)
			r.Post("/races/{id}/generate-heats", s.generateHeats)
			r.Get("/races/{id}/results", s.standings)

			r.Get("/heats/{id}", s.getHeat)
			r.Post("/heats/{id}/start", s.startHeat)
			r.Post("/heats/{id}/results", s.submitHeatResults)

			r.Get("/reports/results", s.standings)
			r.Get("/reports/standings", s.standings)
			r.Get("/reports/standings/{rank}", s.rankStandings)
			r.Get("/reports/races/{id}", s.raceReport)
			r.Get("/reports/racers/{id}", s.standings)
			r.Post("/reports/certificates", s.certificate)
		})
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api")
		s.mu.Lock()
		f, ok := s.failures[path]
		s.mu.Unlock()
		if ok {
			writeDetail(w, f.status, f.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type claimsKey struct{}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return signingKey, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r, claims)))
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	s.mu.Lock()
	user, ok := s.users[body.Username]
	issue := s.issue
	ttl := s.TokenTTL
	s.mu.Unlock()

	if !ok || user.Password != body.Password {
		writeDetail(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	var token string
	if issue != nil {
		token = issue(user)
	} else {
		token = Token(user.Subject, user.Role, user.Permissions, time.Now().Add(ttl))
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	sub := fmt.Sprint(claims["sub"])
	username := sub
	s.mu.Lock()
	for name, u := range s.users {
		if fmt.Sprint(u.Subject) == sub {
			username = name
			break
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"id":          claims["sub"],
		"username":    username,
		"role":        claims["role"],
		"is_admin":    claims["role"] == "admin",
		"permissions": claims["permissions"],
	})
}

func (s *Server) listRacers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, nonNil(s.racers))
}

func (s *Server) createRacer(w http.ResponseWriter, r *http.Request) {
	var in sdk.RacerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	now := time.Now().UTC()
	s.mu.Lock()
	racer := sdk.Racer{
		ID:            s.nextID,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		CarNumber:     in.CarNumber,
		Rank:          in.Rank,
		Weight:        in.Weight,
		Den:           in.Den,
		GroupID:       in.GroupID,
		CheckinStatus: sdk.CheckinRegistered,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.nextID++
	s.racers = append(s.racers, racer)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, racer)
}

func (s *Server) getRacer(w http.ResponseWriter, r *http.Request) {
	s.withRacer(w, r, func(racer *sdk.Racer) {
		writeJSON(w, http.StatusOK, racer)
	})
}

func (s *Server) updateRacer(w http.ResponseWriter, r *http.Request) {
	var in sdk.RacerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	s.withRacer(w, r, func(racer *sdk.Racer) {
		if in.FirstName != "" {
			racer.FirstName = in.FirstName
		}
		if in.LastName != "" {
			racer.LastName = in.LastName
		}
		if in.CarNumber != "" {
			racer.CarNumber = in.CarNumber
		}
		if in.Rank != "" {
			racer.Rank = in.Rank
		}
		if in.Den != "" {
			racer.Den = in.Den
		}
		if in.Weight != nil {
			racer.Weight = in.Weight
		}
		racer.UpdatedAt = time.Now().UTC()
		writeJSON(w, http.StatusOK, racer)
	})
}

func (s *Server) deleteRacer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.racers, func(r sdk.Racer) bool { return r.ID == id })
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Racer not found")
		return
	}
	s.racers = slices.Delete(s.racers, i, i+1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) checkinRacer(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status sdk.CheckinStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Status == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid check-in status")
		return
	}
	s.withRacer(w, r, func(racer *sdk.Racer) {
		racer.CheckinStatus = in.Status
		writeJSON(w, http.StatusOK, racer)
	})
}

func (s *Server) listRanks(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, distinct(s.racers, func(r sdk.Racer) string { return r.Rank }))
}

func (s *Server) listDens(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, distinct(s.racers, func(r sdk.Racer) string { return r.Den }))
}

func (s *Server) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Expected multipart form")
		return
	}
	file, header, err := r.FormFile(sdk.PhotoField)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Missing photo")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Unreadable photo")
		return
	}

	s.withRacer(w, r, func(racer *sdk.Racer) {
		s.photos[racer.ID] = data
		racer.PhotoURL = fmt.Sprintf("/uploads/racers/%d/%s", racer.ID, header.Filename)
		racer.UpdatedAt = time.Now().UTC()
		writeJSON(w, http.StatusOK, racer)
	})
}

func (s *Server) withRacer(w http.ResponseWriter, r *http.Request, fn func(*sdk.Racer)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.racers {
		if s.racers[i].ID == id {
			fn(&s.racers[i])
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Racer not found")
}

func (s *Server) listRaces(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, nonNil(s.races))
}

func (s *Server) createRace(w http.ResponseWriter, r *http.Request) {
	var in sdk.RaceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	now := time.Now().UTC()
	s.mu.Lock()
	race := sdk.Race{
		ID:        s.nextID,
		Name:      in.Name,
		RaceType:  in.RaceType,
		GroupID:   in.GroupID,
		Status:    sdk.RaceStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nextID++
	s.races = append(s.races, race)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, race)
}

func (s *Server) getRace(w http.ResponseWriter, r *http.Request) {
	s.withRace(w, r, func(race *sdk.Race) {
		writeJSON(w, http.StatusOK, race)
	})
}

func (s *Server) deleteRace(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.races, func(r sdk.Race) bool { return r.ID == id })
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Race not found")
		return
	}
	s.races = slices.Delete(s.races, i, i+1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setRaceStatus(status sdk.RaceStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.withRace(w, r, func(race *sdk.Race) {
			race.Status = status
			now := time.Now().UTC()
			race.UpdatedAt = now
			if status == sdk.RaceStatusCompleted {
				race.CompletedAt = &now
			}
			writeJSON(w, http.StatusOK, race)
		})
	}
}

func (s *Server) withRace(w http.ResponseWriter, r *http.Request, fn func(*sdk.Race)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.races {
		if s.races[i].ID == id {
			fn(&s.races[i])
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Race not found")
}

func (s *Server) raceHeats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	heats := []sdk.Heat{}
	for _, h := range s.heats {
		if h.RaceID == id {
			heats = append(heats, h)
		}
	}
	writeJSON(w, http.StatusOK, heats)
}

// generateHeats schedules one heat per four racers, in registration order.
func (s *Server) generateHeats(w http.ResponseWriter, r *http.Request) {
	const lanes = 4
	s.withRace(w, r, func(race *sdk.Race) {
		now := time.Now().UTC()
		var generated []sdk.Heat
		for start := 0; start < len(s.racers); start += lanes {
			heat := sdk.Heat{
				ID:         s.nextID,
				RaceID:     race.ID,
				HeatNumber: len(generated) + 1,
				Status:     sdk.RaceStatusPending,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			s.nextID++
			for lane, racer := range s.racers[start:min(start+lanes, len(s.racers))] {
				heat.Lanes = append(heat.Lanes, sdk.HeatLane{
					ID:         s.nextID,
					HeatID:     heat.ID,
					LaneNumber: lane + 1,
					RacerID:    racer.ID,
					RacerName:  racer.FullName(),
					CarNumber:  racer.CarNumber,
				})
				s.nextID++
			}
			generated = append(generated, heat)
		}
		s.heats = append(s.heats, generated...)
		race.TotalHeats = len(generated)
		writeJSON(w, http.StatusOK, nonNil(generated))
	})
}

func (s *Server) getHeat(w http.ResponseWriter, r *http.Request) {
	s.withHeat(w, r, func(h *sdk.Heat) {
		writeJSON(w, http.StatusOK, h)
	})
}

func (s *Server) startHeat(w http.ResponseWriter, r *http.Request) {
	s.withHeat(w, r, func(h *sdk.Heat) {
		h.Status = sdk.RaceStatusInProgress
		writeJSON(w, http.StatusOK, h)
	})
}

func (s *Server) submitHeatResults(w http.ResponseWriter, r *http.Request) {
	var in sdk.HeatResults
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	s.withHeat(w, r, func(h *sdk.Heat) {
		for _, result := range in.Lanes {
			for i := range h.Lanes {
				if h.Lanes[i].ID == result.LaneID {
					h.Lanes[i].FinishPosition = result.FinishPosition
					h.Lanes[i].FinishTime = result.FinishTime
					h.Lanes[i].DNF = result.DNF
				}
			}
		}
		h.Status = sdk.RaceStatusCompleted
		writeJSON(w, http.StatusOK, h)
	})
}

func (s *Server) withHeat(w http.ResponseWriter, r *http.Request, fn func(*sdk.Heat)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.heats {
		if s.heats[i].ID == id {
			fn(&s.heats[i])
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Heat not found")
}

// standings ranks every racer by car number; the fake server keeps no timing data.
func (s *Server) standings(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.resultsLocked(""))
}

func (s *Server) rankStandings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.resultsLocked(chi.URLParam(r, "rank")))
}

func (s *Server) raceReport(w http.ResponseWriter, r *http.Request) {
	s.withRace(w, r, func(race *sdk.Race) {
		writeJSON(w, http.StatusOK, sdk.RaceReport{
			RaceID:      race.ID,
			Name:        race.Name,
			RaceType:    string(race.RaceType),
			Status:      string(race.Status),
			CreatedAt:   race.CreatedAt,
			CompletedAt: race.CompletedAt,
			Results:     s.resultsLocked(""),
		})
	})
}

func (s *Server) resultsLocked(rank string) []sdk.RacerResult {
	results := []sdk.RacerResult{}
	for _, racer := range s.racers {
		if rank != "" && racer.Rank != rank {
			continue
		}
		results = append(results, sdk.RacerResult{
			RacerID:   racer.ID,
			FirstName: racer.FirstName,
			LastName:  racer.LastName,
			CarNumber: racer.CarNumber,
			Rank:      racer.Rank,
			Den:       racer.Den,
			Position:  len(results) + 1,
		})
	}
	return results
}

func (s *Server) certificate(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.certBytes)
}

func withClaims(r *http.Request, claims jwt.MapClaims) context.Context {
	return context.WithValue(r.Context(), claimsKey{}, claims)
}

func claimsFrom(r *http.Request) jwt.MapClaims {
	claims, _ := r.Context().Value(claimsKey{}).(jwt.MapClaims)
	return claims
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid id")
		return 0, false
	}
	return id, true
}

func distinct(racers []sdk.Racer, field func(sdk.Racer) string) []string {
	out := []string{}
	for _, r := range racers {
		if v := field(r); v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package dirctx

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	// DerbyFileName is the name of the context file
	DerbyFileName = ".derby"
	// DerbyFileVersion is the current schema version
	DerbyFileVersion = "1"
)

// DirectoryContext binds a working directory to one derby event and server
type DirectoryContext struct {
	Version       string    `json:"version"`
	EventGUID     string    `json:"event_guid"`
	EventName     string    `json:"event_name"`
	ServerURL     string    `json:"server_url"`
	DefaultRaceID int       `json:"default_race_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewDirectoryContext returns a context for a new event with a fresh GUID.
func NewDirectoryContext(eventName, serverURL string) *DirectoryContext {
	now := time.Now().UTC()
	return &DirectoryContext{
		Version:   DerbyFileVersion,
		EventGUID: uuid.Must(uuid.NewV7()).String(),
		EventName: eventName,
		ServerURL: serverURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks if the DirectoryContext is valid
func (dc *DirectoryContext) Validate() error {
	if dc.Version != DerbyFileVersion {
		return fmt.Errorf("unsupported .derby file version: %s (expected %s)", dc.Version, DerbyFileVersion)
	}

	if dc.EventGUID == "" {
		return fmt.Errorf("event_guid is required")
	}

	if _, err := uuid.Parse(dc.EventGUID); err != nil {
		return fmt.Errorf("invalid event_guid format: %w", err)
	}

	if dc.EventName == "" {
		return fmt.Errorf("event_name is required")
	}

	if dc.DefaultRaceID < 0 {
		return fmt.Errorf("default_race_id must not be negative")
	}

	return nil
}

// ReadDerbyContext reads the .derby file from the current directory
// Returns nil, nil if the file doesn't exist
// Returns nil, error if the file is corrupted or invalid
func ReadDerbyContext() (*DirectoryContext, error) {
	data, err := os.ReadFile(DerbyFileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read .derby file: %w", err)
	}

	var ctx DirectoryContext
	if err := json.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("corrupted .derby file (invalid JSON): %w", err)
	}

	if err := ctx.Validate(); err != nil {
		return nil, fmt.Errorf("invalid .derby file: %w", err)
	}

	return &ctx, nil
}

// WriteDerbyContext writes the directory context to .derby atomically
// (temp file + rename).
func WriteDerbyContext(ctx *DirectoryContext) error {
	if err := ctx.Validate(); err != nil {
		return fmt.Errorf("invalid context: %w", err)
	}

	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}
	data = append(data, '\n')

	tmpPath := DerbyFileName + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write .derby.tmp: %w", err)
	}

	if err := os.Rename(tmpPath, DerbyFileName); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename .derby.tmp to .derby: %w", err)
	}

	return nil
}

// RaceRef identifies a race by numeric ID
type RaceRef struct {
	ID int
}

// IsEmpty returns true if no race is set
func (r RaceRef) IsEmpty() bool {
	return r.ID <= 0
}

func (r RaceRef) String() string {
	if r.IsEmpty() {
		return "<empty>"
	}
	return strconv.Itoa(r.ID)
}

// ParseRaceRef parses a command-line race argument. An empty string yields an
// empty ref.
func ParseRaceRef(s string) (RaceRef, error) {
	if s == "" {
		return RaceRef{}, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return RaceRef{}, fmt.Errorf("invalid race id %q", s)
	}
	return RaceRef{ID: id}, nil
}

// ContextRaceRef returns the default race recorded in ctx, if any.
func ContextRaceRef(ctx *DirectoryContext) RaceRef {
	if ctx == nil {
		return RaceRef{}
	}
	return RaceRef{ID: ctx.DefaultRaceID}
}

// ResolveRaceRef applies priority: explicit argument, then the .derby
// default race, else an error.
func ResolveRaceRef(explicitRef, contextRef RaceRef) (RaceRef, error) {
	if !explicitRef.IsEmpty() {
		return explicitRef, nil
	}
	if !contextRef.IsEmpty() {
		return contextRef, nil
	}
	return RaceRef{}, fmt.Errorf("race identifier required: pass a race id or set default_race_id with 'derbyctl init --race'")
}

// GetDerbyFilePath returns the absolute path to the .derby file in the current directory
func GetDerbyFilePath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return filepath.Join(cwd, DerbyFileName), nil
}

package checkpoint

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devraulu/rollcall/pkg/votes"
)

const (
	MinYear = 1985
	MaxYear = 2030
)

var ErrYearOutOfRange = fmt.Errorf("tracked years must lie in [%d, %d)", MinYear, MaxYear)

// Checkpoint is the persisted "captured through" state of a project. A zero
// LastUpdate means nothing has been captured yet.
type Checkpoint struct {
	TrackedYears []int
	LastUpdate   time.Time
	OutputPath   string
}

// MinYear is the first session year an update has to look at.
func (c Checkpoint) MinYear() int {
	if !c.LastUpdate.IsZero() {
		return c.LastUpdate.Year()
	}
	if len(c.TrackedYears) == 0 {
		return MinYear
	}
	return slices.Min(c.TrackedYears)
}

func (c Checkpoint) Validate() error {
	for _, y := range c.TrackedYears {
		if y < MinYear || y >= MaxYear {
			return fmt.Errorf("%w: %d", ErrYearOutOfRange, y)
		}
	}
	return nil
}

type file struct {
	Years      []int   `yaml:"years"`
	LastUpdate *string `yaml:"lastupdate"`
	Output     string  `yaml:"output,omitempty"`
}

func Load(path string) (Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Checkpoint{}, err
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Checkpoint{}, fmt.Errorf("parse checkpoint %s: %w", path, err)
	}

	cp := Checkpoint{
		TrackedYears: f.Years,
		OutputPath:   f.Output,
	}
	if f.LastUpdate != nil && *f.LastUpdate != "" && *f.LastUpdate != "None" {
		cp.LastUpdate, err = time.Parse(votes.DateLayout, *f.LastUpdate)
		if err != nil {
			return Checkpoint{}, fmt.Errorf("parse checkpoint %s: lastupdate: %w", path, err)
		}
	}
	if cp.OutputPath == "" {
		cp.OutputPath = filepath.Join(filepath.Dir(path), "data")
	}
	return cp, cp.Validate()
}

// Save writes the checkpoint through a temporary file so a crash never leaves
// a half-written checkpoint behind.
func Save(path string, cp Checkpoint) error {
	f := file{
		Years:  cp.TrackedYears,
		Output: cp.OutputPath,
	}
	if !cp.LastUpdate.IsZero() {
		s := cp.LastUpdate.Format(votes.DateLayout)
		f.LastUpdate = &s
	}

	data, err := yaml.Marshal(&f)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Init scaffolds a project: the data, data/rollcalls and data/batch
// directories plus a checkpoint file tracking years.
func Init(root string, years []int) (Checkpoint, error) {
	cp := Checkpoint{
		TrackedYears: years,
		OutputPath:   filepath.Join(root, "data"),
	}
	if err := cp.Validate(); err != nil {
		return Checkpoint{}, err
	}

	for _, dir := range []string{cp.OutputPath, filepath.Join(cp.OutputPath, "rollcalls"), filepath.Join(cp.OutputPath, "batch")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Checkpoint{}, err
		}
	}

	path := filepath.Join(root, "config.yml")
	if _, err := os.Stat(path); err == nil {
		return Checkpoint{}, fmt.Errorf("checkpoint %s: %w", path, os.ErrExist)
	} else if !errors.Is(err, os.ErrNotExist) {
		return Checkpoint{}, err
	}

	if err := Save(path, cp); err != nil {
		return Checkpoint{}, err
	}
	slog.Info("initialised project", slog.String("path", root), slog.Any("years", years))
	return cp, nil
}

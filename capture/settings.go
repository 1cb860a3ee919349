package capture

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Settings holds the acquisition and processing parameters for a 3D
// capture. The YAML layout mirrors the settings files shipped with the
// camera SDK, so a file exported from the vendor tooling loads directly.
type Settings struct {
	Aperture                 float64 `yaml:"Acquisition.Aperture"`
	ExposureTimeMicroseconds int     `yaml:"Acquisition.ExposureTime"`

	OutlierRemovalEnabled   bool    `yaml:"Filters.Outlier.Removal.Enabled"`
	OutlierRemovalThreshold float64 `yaml:"Filters.Outlier.Removal.Threshold"`

	GaussianSmoothingEnabled bool    `yaml:"Filters.Smoothing.Gaussian.Enabled"`
	GaussianSmoothingSigma   float64 `yaml:"Filters.Smoothing.Gaussian.Sigma"`
}

// Settings2D holds the parameters for a color-only capture.
type Settings2D struct {
	Aperture                 float64 `yaml:"Acquisition.Aperture"`
	ExposureTimeMicroseconds int     `yaml:"Acquisition.ExposureTime"`
}

// ExposureTime returns the exposure as a duration.
func (s *Settings) ExposureTime() time.Duration {
	return time.Duration(s.ExposureTimeMicroseconds) * time.Microsecond
}

// Validate checks that the settings can be handed to a camera.
func (s *Settings) Validate() error {
	if s.Aperture <= 0 {
		return errors.Errorf("aperture must be positive, got %f", s.Aperture)
	}
	if s.ExposureTimeMicroseconds <= 0 {
		return errors.Errorf("exposure time must be positive, got %d", s.ExposureTimeMicroseconds)
	}
	if s.OutlierRemovalEnabled && s.OutlierRemovalThreshold <= 0 {
		return errors.Errorf("outlier removal threshold must be positive, got %f", s.OutlierRemovalThreshold)
	}
	if s.GaussianSmoothingEnabled && s.GaussianSmoothingSigma <= 0 {
		return errors.Errorf("gaussian smoothing sigma must be positive, got %f", s.GaussianSmoothingSigma)
	}
	return nil
}

// Validate checks that the settings can be handed to a camera.
func (s *Settings2D) Validate() error {
	if s.Aperture <= 0 {
		return errors.Errorf("aperture must be positive, got %f", s.Aperture)
	}
	if s.ExposureTimeMicroseconds <= 0 {
		return errors.Errorf("exposure time must be positive, got %d", s.ExposureTimeMicroseconds)
	}
	return nil
}

// LoadSettings reads 3D capture settings from a YAML file.
func LoadSettings(path string) (*Settings, error) {
	var settings Settings
	if err := loadYAML(path, &settings); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid settings in %s", path)
	}
	return &settings, nil
}

// LoadSettings2D reads 2D capture settings from a YAML file.
func LoadSettings2D(path string) (*Settings2D, error) {
	var settings Settings2D
	if err := loadYAML(path, &settings); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid settings in %s", path)
	}
	return &settings, nil
}

// SaveSettings writes the settings out as YAML.
func SaveSettings(path string, settings *Settings) error {
	return saveYAML(path, settings)
}

// SaveSettings2D writes the settings out as YAML.
func SaveSettings2D(path string, settings *Settings2D) error {
	return saveYAML(path, settings)
}

func loadYAML(path string, out interface{}) error {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "error parsing settings file %s", path)
	}
	return nil
}

func saveYAML(path string, in interface{}) error {
	data, err := yaml.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "error while marshaling settings")
	}
	//nolint:gosec
	return os.WriteFile(path, data, 0o644)
}

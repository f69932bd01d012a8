// Package pipeline runs the equalization chain over measurement CSV files and
// writes EqualizerAPO configs, result CSVs and readmes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mvirta/eqcraft/internal/eqapo"
	"github.com/mvirta/eqcraft/internal/parametric"
	"github.com/mvirta/eqcraft/internal/response"
	"github.com/mvirta/eqcraft/pkg/models"
)

// Options selects inputs and tuning parameters for a batch run.
type Options struct {
	InputDir      string
	OutputDir     string
	Calibration   string
	Compensation  string
	Equalize      bool
	ParametricEQ  bool
	MaxFilters    int
	BassBoost     float64
	Tilt          float64
	MaxGain       float64
	TrebleFLower  float64
	TrebleFUpper  float64
	TrebleMaxGain float64
	TrebleGainK   float64
}

// DefaultOptions returns batch options with the standard tuning values.
func DefaultOptions() Options {
	return Options{
		Equalize:      true,
		MaxFilters:    10,
		BassBoost:     response.DefaultBassBoost,
		Tilt:          response.DefaultTilt,
		MaxGain:       response.DefaultMaxGain,
		TrebleFLower:  response.DefaultTrebleFLower,
		TrebleFUpper:  response.DefaultTrebleFUpper,
		TrebleMaxGain: response.DefaultTrebleMaxGain,
		TrebleGainK:   response.DefaultTrebleGainK,
	}
}

func (o Options) validate() error {
	if o.ParametricEQ && !o.Equalize {
		return errors.New("equalize must be enabled when parametric EQ is enabled")
	}
	return nil
}

// Result holds everything produced for one measurement.
type Result struct {
	Response         *response.FrequencyResponse
	Filters          []models.Filter
	GraphicEQ        string
	ParametricEQ     string
	GraphicPreamp    float64
	ParametricPreamp float64
}

// Process runs the full equalization chain on a single measurement:
// interpolation, optional calibration, centering, optional compensation,
// smoothing, equalization and parametric filter fitting. Calibration and
// compensation must already be interpolated and centered.
func Process(fr *response.FrequencyResponse, calibration, compensation *response.FrequencyResponse, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if err := fr.Interpolate(nil); err != nil {
		return nil, fmt.Errorf("failed to interpolate %q: %w", fr.Name, err)
	}

	if calibration != nil {
		if err := fr.Calibrate(calibration); err != nil {
			return nil, fmt.Errorf("failed to calibrate %q: %w", fr.Name, err)
		}
	}

	if err := fr.Center(); err != nil {
		return nil, fmt.Errorf("failed to center %q: %w", fr.Name, err)
	}

	if compensation != nil {
		if err := fr.Compensate(compensation, opts.BassBoost, opts.Tilt); err != nil {
			return nil, fmt.Errorf("failed to compensate %q: %w", fr.Name, err)
		}
	}

	smoothOpts := response.DefaultSmoothenOptions()
	smoothOpts.TrebleFLower = opts.TrebleFLower
	smoothOpts.TrebleFUpper = opts.TrebleFUpper
	if err := fr.Smoothen(smoothOpts); err != nil {
		return nil, fmt.Errorf("failed to smoothen %q: %w", fr.Name, err)
	}

	result := &Result{Response: fr}
	if !opts.Equalize {
		return result, nil
	}

	eqOpts := response.EqualizeOptions{
		MaxGain:       opts.MaxGain,
		Smoothen:      true,
		TrebleFLower:  opts.TrebleFLower,
		TrebleFUpper:  opts.TrebleFUpper,
		TrebleMaxGain: opts.TrebleMaxGain,
		TrebleGainK:   opts.TrebleGainK,
	}
	if err := fr.Equalize(eqOpts); err != nil {
		return nil, fmt.Errorf("failed to equalize %q: %w", fr.Name, err)
	}

	graphicEQ, err := eqapo.GraphicEQ(fr)
	if err != nil {
		return nil, err
	}
	result.GraphicEQ = graphicEQ
	result.GraphicPreamp = eqapo.GraphicPreamp(fr.Equalization)

	if opts.ParametricEQ {
		fit, err := parametric.Fit(fr.Frequency, fr.Equalization, opts.MaxFilters)
		if err != nil {
			return nil, fmt.Errorf("failed to fit parametric EQ for %q: %w", fr.Name, err)
		}
		fr.ParametricEQ = fit.EQ
		result.Filters = fit.Filters
		result.ParametricEQ = eqapo.ParametricEQ(fit.Filters)
		result.ParametricPreamp = eqapo.ParametricPreamp(fit.EQ)
	}

	return result, nil
}

// Run processes every CSV file under opts.InputDir and writes results under
// opts.OutputDir, preserving relative paths. A run readme listing the
// parameters goes to the output root.
func Run(ctx context.Context, opts Options) error {
	if err := opts.validate(); err != nil {
		return err
	}

	calibration, err := LoadReference(opts.Calibration)
	if err != nil {
		return fmt.Errorf("failed to load calibration: %w", err)
	}
	compensation, err := LoadReference(opts.Compensation)
	if err != nil {
		return fmt.Errorf("failed to load compensation: %w", err)
	}

	files, err := findCSVFiles(opts.InputDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Warn().Str("inputDir", opts.InputDir).Msg("No CSV files found")
		return nil
	}

	runReadmePath := filepath.Join(opts.OutputDir, "README.md")
	runReadmeOccupied := false

	for _, inputPath := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		fr, err := response.ReadCSV(inputPath)
		if err != nil {
			return fmt.Errorf("failed to read %q: %w", inputPath, err)
		}

		relPath, err := filepath.Rel(opts.InputDir, inputPath)
		if err != nil {
			return err
		}
		outputPath := filepath.Join(opts.OutputDir, relPath)
		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}

		result, err := Process(fr, calibration, compensation, opts)
		if err != nil {
			return err
		}

		if opts.Equalize {
			base := strings.TrimSuffix(outputPath, ".csv")
			if _, err := eqapo.WriteGraphicEQ(base+" GraphicEQ.txt", fr); err != nil {
				return err
			}
			if opts.ParametricEQ {
				if _, err := eqapo.WriteParametricEQ(base+" ParametricEQ.txt", result.Filters); err != nil {
					return err
				}
			}
			log.Info().Str("model", fr.Name).Int("filters", len(result.Filters)).Msg("Equalized measurement")
		}

		if err := fr.WriteCSV(outputPath); err != nil {
			return err
		}

		readmePath := filepath.Join(filepath.Dir(outputPath), "README.md")
		err = eqapo.WriteReadme(readmePath, eqapo.ReadmeData{
			Model:        fr.Name,
			Equalization: fr.Equalization,
			GraphicEQ:    result.GraphicEQ,
			ParametricEQ: fr.ParametricEQ,
			Filters:      result.Filters,
		})
		if err != nil {
			return err
		}
		if readmePath == runReadmePath {
			runReadmeOccupied = true
		}
	}

	return writeRunReadme(runReadmePath, runReadmeOccupied, opts)
}

// LoadReference reads a calibration or compensation CSV and prepares it for
// use against measurements on the standard frequency vector. An empty path
// yields nil.
func LoadReference(path string) (*response.FrequencyResponse, error) {
	if path == "" {
		return nil, nil
	}
	fr, err := response.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	if err := fr.Interpolate(nil); err != nil {
		return nil, err
	}
	if err := fr.Center(); err != nil {
		return nil, err
	}
	return fr, nil
}

func findCSVFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan input dir %q: %w", dir, err)
	}
	return files, nil
}

func writeRunReadme(path string, occupied bool, opts Options) error {
	params := []eqapo.RunParam{
		{Name: "input_dir", Value: strconv.Quote(opts.InputDir)},
		{Name: "output_dir", Value: strconv.Quote(opts.OutputDir)},
	}
	if opts.Calibration != "" {
		params = append(params, eqapo.RunParam{Name: "calibration", Value: strconv.Quote(opts.Calibration)})
	}
	if opts.Compensation != "" {
		params = append(params, eqapo.RunParam{Name: "compensation", Value: strconv.Quote(opts.Compensation)})
	}
	params = append(params,
		eqapo.RunParam{Name: "bass_boost", Value: formatFloat(opts.BassBoost)},
		eqapo.RunParam{Name: "tilt", Value: formatFloat(opts.Tilt)},
		eqapo.RunParam{Name: "max_gain", Value: formatFloat(opts.MaxGain)},
		eqapo.RunParam{Name: "treble_f_lower", Value: formatFloat(opts.TrebleFLower)},
		eqapo.RunParam{Name: "treble_f_upper", Value: formatFloat(opts.TrebleFUpper)},
		eqapo.RunParam{Name: "treble_max_gain", Value: formatFloat(opts.TrebleMaxGain)},
		eqapo.RunParam{Name: "treble_gain_k", Value: formatFloat(opts.TrebleGainK)},
	)

	readme := eqapo.RunReadme(time.Now(), params)
	if occupied {
		// A model readme already owns the output root, append the run
		// parameters to it.
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to append run readme: %w", err)
		}
		defer f.Close()
		if _, err := f.WriteString("\n" + readme); err != nil {
			return fmt.Errorf("failed to append run readme: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(path, []byte(readme), 0644); err != nil {
		return fmt.Errorf("failed to write run readme: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

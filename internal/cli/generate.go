package cli

import (
	"github.com/spf13/cobra"

	"github.com/mvirta/eqcraft/internal/pipeline"
	"github.com/mvirta/eqcraft/internal/response"
)

var generateOpts = pipeline.DefaultOptions()

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate equalization results for measurement CSV files",
	Long: `Processes every CSV file under the input directory and writes equalization
results to the output directory, preserving relative paths. Each measurement
gets a result CSV, an EqualizerAPO GraphicEQ config, optionally a parametric
EQ config, and a readme with usage instructions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return pipeline.Run(cmd.Context(), generateOpts)
	},
}

func init() {
	flags := generateCmd.Flags()
	flags.StringVar(&generateOpts.InputDir, "input-dir", "", "Directory with measurement CSV files, scanned recursively")
	flags.StringVar(&generateOpts.OutputDir, "output-dir", "", "Directory for generated results")
	flags.StringVar(&generateOpts.Calibration, "calibration", "", "CSV file with microphone calibration data")
	flags.StringVar(&generateOpts.Compensation, "compensation", "", "CSV file with the compensation (target) curve")
	flags.BoolVar(&generateOpts.Equalize, "equalize", true, "Produce equalization curves and GraphicEQ configs")
	flags.BoolVar(&generateOpts.ParametricEQ, "parametric-eq", false, "Fit parametric EQ filters, requires --equalize")
	flags.IntVar(&generateOpts.MaxFilters, "max-filters", 10, "Maximum number of parametric EQ filters")
	flags.Float64Var(&generateOpts.BassBoost, "bass-boost", response.DefaultBassBoost, "Target gain for sub-bass in dB")
	flags.Float64Var(&generateOpts.Tilt, "tilt", response.DefaultTilt, "Target tilt in dB/octave")
	flags.Float64Var(&generateOpts.MaxGain, "max-gain", response.DefaultMaxGain, "Maximum positive gain in dB")
	flags.Float64Var(&generateOpts.TrebleFLower, "treble-f-lower", response.DefaultTrebleFLower, "Lower bound of the treble transition region in Hz")
	flags.Float64Var(&generateOpts.TrebleFUpper, "treble-f-upper", response.DefaultTrebleFUpper, "Upper bound of the treble transition region in Hz")
	flags.Float64Var(&generateOpts.TrebleMaxGain, "treble-max-gain", response.DefaultTrebleMaxGain, "Maximum positive gain in the treble region in dB")
	flags.Float64Var(&generateOpts.TrebleGainK, "treble-gain-k", response.DefaultTrebleGainK, "Coefficient for treble gain, affects positive and negative gain")
	generateCmd.MarkFlagRequired("input-dir")
	generateCmd.MarkFlagRequired("output-dir")

	rootCmd.AddCommand(generateCmd)
}

package estack

import(
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/abworrall/fits-stacker/pkg/eframe"
	"github.com/abworrall/fits-stacker/pkg/epreview"
)

/* Example config file ...

method: sigmaclip
sigma: 2.5
iterations: 5
lights: ./M42/lights
darks: ./M42/darks
flats: ./M42/flats
bias: ./M42/bias
output: ./M42/out
masters:
  dark: median
  flat: average
preview: true
stretch: auto

*/

// MasterMethods names the combine method used to build each master frame.
type MasterMethods struct {
	Dark     string
	Flat     string
	Bias     string
	DarkFlat string
}

type Config struct {
	Verbosity    int

	Method       string   // how to combine the lights: average, median, sigmaclip
	Sigma        float64  // sigmaclip rejection threshold, in std devs
	Iterations   int      // sigmaclip max rounds
	Workers      int      // goroutines per combine; 0 == one per CPU

	// Input directories, one per frame role; empty means none of that role
	Lights       string
	Darks        string
	Flats        string
	Bias         string
	DarkFlats    string

	Output       string
	Masters      MasterMethods

	WriteHDR     bool     // also write a Radiance .hdr of the stacked image
	Preview      bool     // write a stretched PNG of the stacked image
	Stretch      string   // linear, log, auto, percentile
	PreviewWidth int      // downscale previews to this width; 0 == full size
	RejectionMap bool     // sigmaclip only: PNG of how many samples were discarded per pixel
}

func NewConfig() Config {
	return Config{
		Method:     "average",
		Sigma:      2.5,
		Iterations: 5,
		Output:     ".",
		Masters: MasterMethods{
			Dark:     "median",
			Flat:     "average",
			Bias:     "median",
			DarkFlat: "median",
		},
		Stretch:    "auto",
	}
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	return c, err
}

func LoadConfig(filename string) (Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %v", filename, err)
	}

	c, err := newConfigFromYaml(contents)
	if err != nil {
		return c, fmt.Errorf("config parse %s: %v", filename, err)
	}
	return c, nil
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Printf("Can't marshal config yaml: %v\n", err)
		return ""
	}
	return string(b)
}

// Finalize does sanity checks on the strategy names and numbers. Call
// it once command line overrides have been applied.
func (c *Config)Finalize() error {
	if _, err := c.GetReducer(); err != nil {
		return err
	}
	for _, name := range []string{c.Masters.Dark, c.Masters.Flat, c.Masters.Bias, c.Masters.DarkFlat} {
		if _, err := ReducerByName(name, c.Sigma, c.Iterations); err != nil {
			return fmt.Errorf("masters: %v", err)
		}
	}
	if _, err := epreview.ParseStretch(c.Stretch); err != nil {
		return err
	}
	if c.Sigma < 0 {
		return fmt.Errorf("sigma must be >= 0, got %f", c.Sigma)
	}
	if c.Iterations < 0 {
		return fmt.Errorf("iterations must be >= 0, got %d", c.Iterations)
	}
	if c.Lights == "" {
		return fmt.Errorf("no lights directory configured")
	}
	return nil
}

func (c Config)GetReducer() (PixelReducer, error) {
	return ReducerByName(c.Method, c.Sigma, c.Iterations)
}

func (c Config)GetMasterReducer(role eframe.FrameRole) (PixelReducer, error) {
	name := ""
	switch role {
	case eframe.Dark:     name = c.Masters.Dark
	case eframe.Flat:     name = c.Masters.Flat
	case eframe.Bias:     name = c.Masters.Bias
	case eframe.DarkFlat: name = c.Masters.DarkFlat
	default:
		return nil, fmt.Errorf("no master built for %s frames", role)
	}
	return ReducerByName(name, c.Sigma, c.Iterations)
}

// Dir returns the configured input directory for a role.
func (c Config)Dir(role eframe.FrameRole) string {
	switch role {
	case eframe.Light:    return c.Lights
	case eframe.Dark:     return c.Darks
	case eframe.Flat:     return c.Flats
	case eframe.Bias:     return c.Bias
	case eframe.DarkFlat: return c.DarkFlats
	}
	return ""
}

func ReducerByName(name string, sigma float64, iterations int) (PixelReducer, error) {
	switch name {
	case "average", "avg", "mean": return ReduceByAverage, nil
	case "median":                 return ReduceByMedian, nil
	case "sigmaclip", "sigma":     return ReduceBySigmaClip(sigma, iterations), nil
	default:
		return nil, fmt.Errorf("no combine method named '%s'", name)
	}
}

package main

import(
	"flag"
	"log"
	"os"

	"github.com/abworrall/fits-stacker/pkg/efits"
	"github.com/abworrall/fits-stacker/pkg/estack"
)

var(
	fConfigFile string
	fVerbosity int
	fMethod string
	fSigma float64
	fIterations int
	fWorkers int
	fLights string
	fDarks string
	fFlats string
	fBias string
	fDarkFlats string
	fOutput string
	fWriteHDR bool
	fPreview bool
	fStretch string
	fPreviewWidth int
	fRejectionMap bool
)

func init() {
	flag.StringVar(&fConfigFile, "config", "", "YAML config file; flags override its values")
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")

	flag.StringVar(&fMethod, "method", "average", "how to combine the lights: average, median, sigmaclip")
	flag.Float64Var(&fSigma, "sigma", 2.5, "sigmaclip: reject samples this many std devs from the mean")
	flag.IntVar(&fIterations, "iterations", 5, "sigmaclip: max rejection rounds")
	flag.IntVar(&fWorkers, "workers", 0, "goroutines per combine (0 == one per CPU)")

	flag.StringVar(&fLights, "lights", "", "dir of light frames")
	flag.StringVar(&fDarks, "darks", "", "dir of dark frames")
	flag.StringVar(&fFlats, "flats", "", "dir of flat frames")
	flag.StringVar(&fBias, "bias", "", "dir of bias frames")
	flag.StringVar(&fDarkFlats, "darkflats", "", "dir of dark flat frames")
	flag.StringVar(&fOutput, "o", ".", "output dir")

	flag.BoolVar(&fWriteHDR, "hdr", false, "also write the stack as a Radiance .hdr")
	flag.BoolVar(&fPreview, "preview", false, "write a stretched PNG preview of the stack")
	flag.StringVar(&fStretch, "stretch", "auto", "preview stretch: linear, log, auto, percentile")
	flag.IntVar(&fPreviewWidth, "previewwidth", 0, "downscale previews to this width (0 == full size)")
	flag.BoolVar(&fRejectionMap, "rejectionmap", false, "sigmaclip: write a PNG of per-pixel rejection counts")
	flag.Parse()

	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate|log.Ltime)
	log.Printf("fits-stacker starting\n")
}

// applyFlags overrides the config with any flags that were set on the
// command line.
func applyFlags(c *estack.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":            c.Verbosity = fVerbosity
		case "method":       c.Method = fMethod
		case "sigma":        c.Sigma = fSigma
		case "iterations":   c.Iterations = fIterations
		case "workers":      c.Workers = fWorkers
		case "lights":       c.Lights = fLights
		case "darks":        c.Darks = fDarks
		case "flats":        c.Flats = fFlats
		case "bias":         c.Bias = fBias
		case "darkflats":    c.DarkFlats = fDarkFlats
		case "o":            c.Output = fOutput
		case "hdr":          c.WriteHDR = fWriteHDR
		case "preview":      c.Preview = fPreview
		case "stretch":      c.Stretch = fStretch
		case "previewwidth": c.PreviewWidth = fPreviewWidth
		case "rejectionmap": c.RejectionMap = fRejectionMap
		}
	})

	// A bare arg is taken as the lights dir
	if c.Lights == "" && flag.NArg() > 0 {
		c.Lights = flag.Arg(0)
	}
}

func main() {
	cfg := estack.NewConfig()
	if fConfigFile != "" {
		var err error
		if cfg, err = estack.LoadConfig(fConfigFile); err != nil {
			log.Fatal(err)
		}
		log.Printf("Loaded base configuration from %s\n", fConfigFile)
	}

	applyFlags(&cfg)
	if err := cfg.Finalize(); err != nil {
		log.Fatalf("Bad configuration: %v\n", err)
	}

	if cfg.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", cfg.AsYaml())
	}

	s := estack.NewSession(cfg, efits.DirLoader{Verbosity: cfg.Verbosity})
	if err := s.Run(); err != nil {
		log.Fatalf("Stacking failed: %v\n", err)
	}
}

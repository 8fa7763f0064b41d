package app

import (
	"errors"
	"flag"
	"fmt"
	"strings"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"
)

type ImageFormat string

type Config struct {
	DBPath     string
	SessionID  int64
	OutputFile string
	Format     ImageFormat
	FontPath   string
	MinTempo   *float64
	MaxTempo   *float64
	SwingType  string
	Limit      uint64
	Verbose    bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format: ImagePNG,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var imageFormat string
	var minTempo, maxTempo float64
	flag.StringVar(&c.DBPath, "db", "", "Path to the session database file")
	flag.Int64Var(&c.SessionID, "s", 1, "Session ID")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the chart output file (without extension); omit for text report only")
	flag.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	flag.StringVar(&c.FontPath, "font", "", "Path to a TTF font used for chart annotations")
	flag.Float64Var(&minTempo, "min-tempo", 0, "Only include swings with a tempo ratio at or above this value")
	flag.Float64Var(&maxTempo, "max-tempo", 0, "Only include swings with a tempo ratio at or below this value")
	flag.StringVar(&c.SwingType, "type", "", "Only include swings of this classified type")
	flag.Uint64Var(&c.Limit, "n", 0, "Maximum number of swings to include, 0 for all")
	flag.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	flag.Parse()

	imageFormat = strings.ToLower(imageFormat)

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "min-tempo" {
			c.MinTempo = &minTempo
		}
		if f.Name == "max-tempo" {
			c.MaxTempo = &maxTempo
		}
	})

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.SessionID <= 0 {
		err = errors.New("session id is required")
	} else if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	if c.OutputFile != "" {
		c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	}
	return c, nil
}

// Package config carries the run configuration: logging, quality-check
// policy constants, geographic scope, the election-year alignment map, the
// county name alias table, and the rural-urban code lookup. Domain literals
// live here so the core components stay free of embedded constants and can
// be tested with synthetic maps.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"countydata/internal/adapter"
	"countydata/internal/integrator"
	"countydata/internal/quality"
	"countydata/internal/temporal"
)

// Config is the complete pipeline configuration.
type Config struct {
	Logging    LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Quality    QualityConfig     `yaml:"quality" envconfig:"QUALITY"`
	Geography  GeographyConfig   `yaml:"geography" envconfig:"GEOGRAPHY"`
	Years      YearsConfig       `yaml:"years"`
	Columns    ColumnsConfig     `yaml:"columns"`
	Aliases    map[string]string `yaml:"aliases"`
	RuralUrban RuralUrbanConfig  `yaml:"rural_urban"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
}

// QualityConfig holds the validator policy constants. The turnout bounds and
// tolerance have no stated derivation upstream, so they are configuration,
// not hard-coded law.
type QualityConfig struct {
	LowTurnout              float64 `yaml:"low_turnout" envconfig:"LOW_TURNOUT" validate:"min=0,max=100"`
	HighTurnout             float64 `yaml:"high_turnout" envconfig:"HIGH_TURNOUT" validate:"min=0,max=100"`
	TurnoutTolerance        float64 `yaml:"turnout_tolerance" envconfig:"TURNOUT_TOLERANCE" validate:"min=0"`
	ExpectedCountiesPerYear int     `yaml:"expected_counties_per_year" envconfig:"EXPECTED_COUNTIES_PER_YEAR" validate:"min=1"`
}

// Thresholds converts the section into the validator's parameter type.
func (c QualityConfig) Thresholds() quality.Thresholds {
	return quality.Thresholds{
		LowTurnout:              c.LowTurnout,
		HighTurnout:             c.HighTurnout,
		TurnoutTolerance:        c.TurnoutTolerance,
		ExpectedCountiesPerYear: c.ExpectedCountiesPerYear,
	}
}

// GeographyConfig scopes the run to one state's counties.
type GeographyConfig struct {
	StatePrefix string `yaml:"state_prefix" envconfig:"STATE_PREFIX" validate:"len=2,number"`
	GeoIDPrefix string `yaml:"geo_id_prefix" envconfig:"GEO_ID_PREFIX" validate:"required"`
}

// Geography converts the section into the adapter's parameter type.
func (c GeographyConfig) Geography() adapter.Geography {
	return adapter.Geography{StatePrefix: c.StatePrefix, GeoIDPrefix: c.GeoIDPrefix}
}

// YearsConfig enumerates the election years and maps each to the source-year
// label carrying the data aligned to it. 2024 maps to "2023" because no
// same-year economic source exists yet.
type YearsConfig struct {
	ElectionYears []int          `yaml:"election_years" validate:"min=1"`
	SourceYearMap map[int]string `yaml:"source_year_map" validate:"min=1"`
}

// YearMap converts the section into the aligner's parameter type, restricted
// to the configured election years so stale map entries do not widen the run.
func (c YearsConfig) YearMap() temporal.YearMap {
	m := make(temporal.YearMap, len(c.ElectionYears))
	for _, year := range c.ElectionYears {
		if label, ok := c.SourceYearMap[year]; ok {
			m[year] = label
		}
	}
	return m
}

// ColumnsConfig names the columns of the election fact table and the FIPS
// reference table as supplied by the caller.
type ColumnsConfig struct {
	County           string `yaml:"county" validate:"required"`
	Year             string `yaml:"year" validate:"required"`
	RegisteredVoters string `yaml:"registered_voters" validate:"required"`
	VotesCast        string `yaml:"votes_cast" validate:"required"`
	TurnoutPercent   string `yaml:"turnout_percent" validate:"required"`
	ReferenceFIPS    string `yaml:"reference_fips" validate:"required"`
	ReferenceCounty  string `yaml:"reference_county" validate:"required"`
}

// RuralUrbanBand maps an inclusive code range to a coarse category.
type RuralUrbanBand struct {
	Min   int    `yaml:"min"`
	Max   int    `yaml:"max"`
	Label string `yaml:"label"`
}

// RuralUrbanConfig is the static lookup collapsing the 1-9 continuum codes
// into descriptions and three coarse categories.
type RuralUrbanConfig struct {
	Variable          string           `yaml:"variable" validate:"required"`
	DescriptionColumn string           `yaml:"description_column" validate:"required"`
	CategoryColumn    string           `yaml:"category_column" validate:"required"`
	Descriptions      map[int]string   `yaml:"descriptions"`
	Bands             []RuralUrbanBand `yaml:"bands"`
}

// Lookup converts the section into the integrator's parameter type.
func (c RuralUrbanConfig) Lookup() integrator.CodeLookup {
	lookup := integrator.CodeLookup{
		Variable:          c.Variable,
		DescriptionColumn: c.DescriptionColumn,
		CategoryColumn:    c.CategoryColumn,
		Descriptions:      c.Descriptions,
	}
	for _, b := range c.Bands {
		lookup.Bands = append(lookup.Bands, integrator.CodeBand{Min: b.Min, Max: b.Max, Label: b.Label})
	}
	return lookup
}

// Default returns the configuration the source system shipped with: Florida
// scope, the 2016-2024 election years with 2024 aligned to 2023 sources, the
// known county name variants, and the USDA rural-urban lookup.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Quality: QualityConfig{
			LowTurnout:              30,
			HighTurnout:             95,
			TurnoutTolerance:        0.5,
			ExpectedCountiesPerYear: 67,
		},
		Geography: GeographyConfig{StatePrefix: "12", GeoIDPrefix: "0500000US"},
		Years: YearsConfig{
			ElectionYears: []int{2016, 2018, 2020, 2022, 2024},
			SourceYearMap: map[int]string{
				2016: "2016",
				2018: "2018",
				2020: "2020",
				2022: "2022",
				2024: "2023",
			},
		},
		Columns: ColumnsConfig{
			County:           "County",
			Year:             "Year",
			RegisteredVoters: "Registered_Voters",
			VotesCast:        "Votes_Cast",
			TurnoutPercent:   "Turnout_Percent",
			ReferenceFIPS:    "FIPS",
			ReferenceCounty:  "County_Name",
		},
		Aliases: map[string]string{
			"Saint Johns": "St. Johns",
			"St Johns":    "St. Johns",
			"Saint Lucie": "St. Lucie",
			"St Lucie":    "St. Lucie",
			"Dade":        "Miami-Dade",
			"Miami Dade":  "Miami-Dade",
			"DeSoto":      "Desoto",
			"De Soto":     "Desoto",
		},
		RuralUrban: RuralUrbanConfig{
			Variable:          "Rural_Urban_Code",
			DescriptionColumn: "Rural_Urban_Description",
			CategoryColumn:    "Urban_Rural_Category",
			Descriptions: map[int]string{
				1: "Metro - Large (1M+ pop)",
				2: "Metro - Medium (250K-1M pop)",
				3: "Metro - Small (<250K pop)",
				4: "Nonmetro - Urban (20K+, adjacent to metro)",
				5: "Nonmetro - Urban (20K+, not adjacent)",
				6: "Nonmetro - Urban (2.5-20K, adjacent to metro)",
				7: "Nonmetro - Urban (2.5-20K, not adjacent)",
				8: "Nonmetro - Rural (<2.5K, adjacent to metro)",
				9: "Nonmetro - Rural (<2.5K, not adjacent)",
			},
			Bands: []RuralUrbanBand{
				{Min: 1, Max: 3, Label: "Metropolitan"},
				{Min: 4, Max: 7, Label: "Micropolitan/Small Urban"},
				{Min: 8, Max: 9, Label: "Rural"},
			},
		},
	}
}

// Load builds the configuration: defaults, then the optional YAML file, then
// environment variables, then validation. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process("COUNTYDATA", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks structural tags plus the cross-field rules the tags cannot
// express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Quality.LowTurnout >= c.Quality.HighTurnout {
		return fmt.Errorf("low turnout threshold %.1f must be below high threshold %.1f",
			c.Quality.LowTurnout, c.Quality.HighTurnout)
	}
	for _, year := range c.Years.ElectionYears {
		if _, ok := c.Years.SourceYearMap[year]; !ok {
			return fmt.Errorf("election year %d has no source year mapping", year)
		}
	}
	for variant, canonical := range c.Aliases {
		if canonical == "" {
			return fmt.Errorf("alias for %q maps to an empty canonical name", variant)
		}
	}
	return nil
}

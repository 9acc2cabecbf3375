package dashboard

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/ternarybob/probo/internal/browser"
	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/harness"
	"github.com/ternarybob/probo/internal/runlog"
)

// sensorPattern describes one sensor parameter and the text patterns that
// reveal its value in the rendered page. Patterns are tried in order; the
// first capture group of the first match wins.
type sensorPattern struct {
	Name     string
	Patterns []*regexp.Regexp
}

// The dashboard renders values inline ("25.5 °C") on some pages and as
// embedded JSON ("temp": 25.5) on others, so each sensor carries both forms.
var sensorPatterns = []sensorPattern{
	{"Temperature", compileAll(`(\d+\.?\d*)\s*°C?`, `temp["']:\s*(\d+\.?\d*)`)},
	{"Humidity", compileAll(`(\d+\.?\d*)\s*%`, `humidity["']:\s*(\d+\.?\d*)`)},
	{"Pressure", compileAll(`(\d+\.?\d*)\s*(?:mb|hPa)`, `pressure["']:\s*(\d+\.?\d*)`)},
	{"Wind Speed", compileAll(`(\d+\.?\d*)\s*m/s`, `wind_speed["']:\s*(\d+\.?\d*)`)},
	{"Wind Direction", compileAll(`(\d+\.?\d*)\s*°`, `wind_dir["']:\s*(\d+\.?\d*)`)},
	{"Rain Gauge", compileAll(`(\d+\.?\d*)\s*mm`, `rain["']:\s*(\d+\.?\d*)`)},
	{"Pyrano", compileAll(`(\d+\.?\d*)\s*W/m²`, `solar["']:\s*(\d+\.?\d*)`)},
	{"Air Pressure", compileAll(`air_pressure["']:\s*(\d+\.?\d*)`, `(\d+\.?\d*)\s*hPa`)},
	{"Watertemp", compileAll(`watertemp["']:\s*(\d+\.?\d*)`, `water.*temp["']:\s*(\d+\.?\d*)`)},
	{"Timestamp", compileAll(`(\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2})`, `time["']:\s*["']([^"']+)`)},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		compiled = append(compiled, regexp.MustCompile(`(?i)`+pattern))
	}
	return compiled
}

// ExtractSensorData scans page text for every known sensor parameter and
// returns the values found, keyed by parameter name.
func ExtractSensorData(pageText string) map[string]string {
	found := make(map[string]string)
	for _, sensor := range sensorPatterns {
		for _, pattern := range sensor.Patterns {
			match := pattern.FindStringSubmatch(pageText)
			if match == nil {
				continue
			}
			value := firstGroup(match)
			if value != "" {
				found[sensor.Name] = value
				break
			}
		}
	}
	return found
}

func firstGroup(match []string) string {
	for _, group := range match[1:] {
		if group != "" {
			return group
		}
	}
	return ""
}

// SensorCount returns how many sensor parameters are known
func SensorCount() int {
	return len(sensorPatterns)
}

// SensorSuite validates sensor data completeness across all station pages.
// Each parameter gets its own step result; the suite verdict requires the
// configured ratio of parameters to be present somewhere on the dashboard.
type SensorSuite struct {
	driver   browser.Driver
	config   *common.Config
	log      *runlog.Logger
	recorder *harness.Recorder
}

func NewSensorSuite(driver browser.Driver, config *common.Config, log *runlog.Logger, recorder *harness.Recorder) *SensorSuite {
	return &SensorSuite{driver: driver, config: config, log: log, recorder: recorder}
}

// Run visits every accessible station page, merges the sensor values found
// on each, and records one step result per parameter.
func (s *SensorSuite) Run() (bool, error) {
	s.log.Info("Starting sensor data validation", nil)

	accessible := VisitStations(s.driver, s.config, s.log)
	if len(accessible) == 0 {
		s.recorder.Record("Station Navigation", false, "No station pages could be accessed", true)
		return false, fmt.Errorf("no station pages accessible")
	}
	s.recorder.Record("Station Navigation", true,
		fmt.Sprintf("Accessed %d of %d station pages", len(accessible), len(s.config.Target.StationPaths)), true)

	merged := make(map[string]string)
	for _, station := range accessible {
		if err := s.driver.Open(station.URL); err != nil {
			s.log.Error(fmt.Sprintf("Failed to revisit %s", station.Name), map[string]string{"error": err.Error()})
			continue
		}
		time.Sleep(s.config.Browser.SettleDelay)

		source, err := s.driver.Source()
		if err != nil {
			s.log.Error(fmt.Sprintf("Failed to read %s", station.Name), map[string]string{"error": err.Error()})
			continue
		}

		pageData := ExtractSensorData(source)
		s.log.Info(fmt.Sprintf("Found %d sensors on %s", len(pageData), station.Name), nil)
		for name, value := range pageData {
			if _, seen := merged[name]; !seen {
				merged[name] = value
			}
		}
	}

	successCount := 0
	for _, sensor := range sensorPatterns {
		value, present := merged[sensor.Name]
		stepName := sensor.Name + " Validation"
		if present {
			s.recorder.Record(stepName, true, "Found: "+value, false)
			successCount++
		} else {
			s.recorder.Record(stepName, false, "Sensor data not found", false)
		}
	}

	total := len(sensorPatterns)
	ratio := float64(successCount) / float64(total)
	s.log.Info("Sensor completeness", map[string]string{
		"found":   strconv.Itoa(successCount),
		"total":   strconv.Itoa(total),
		"percent": fmt.Sprintf("%.1f", ratio*100),
	})

	return ratio >= s.config.Verdict.SensorThreshold, nil
}

// Package dashboard holds the validation suites the harness runs against
// the microclimate dashboard: station navigation, sensor completeness,
// chart detection, and the password-protected download flow.
package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/probo/internal/browser"
	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/runlog"
)

// Station is one dashboard page under test
type Station struct {
	Name string
	URL  string
}

// Stations derives the station list from configuration, one entry per
// configured station path.
func Stations(config *common.Config) []Station {
	urls := config.StationURLs()
	stations := make([]Station, 0, len(urls))
	for i, url := range urls {
		stations = append(stations, Station{
			Name: stationName(config.Target.StationPaths[i]),
			URL:  url,
		})
	}
	return stations
}

// SubStations returns only the station1/station2 pages, the ones that
// render charts and expose the download flow.
func SubStations(config *common.Config) []Station {
	all := Stations(config)
	subs := make([]Station, 0, len(all))
	for _, station := range all {
		if strings.Contains(station.URL, "/station") {
			subs = append(subs, station)
		}
	}
	return subs
}

// stationName turns "petengoran/station1" into "Petengoran Station1"
func stationName(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	name := strings.Join(parts, " ")
	if len(parts) == 1 {
		name += " Main"
	}
	return name
}

// VisitStations opens every station page and returns the ones that load
// without a not-found marker. Navigation errors skip the page, not the run.
func VisitStations(driver browser.Driver, config *common.Config, log *runlog.Logger) []Station {
	accessible := make([]Station, 0)

	for _, station := range Stations(config) {
		log.Info(fmt.Sprintf("Navigating to %s", station.Name), map[string]string{"url": station.URL})

		if err := driver.Open(station.URL); err != nil {
			log.Error(fmt.Sprintf("Failed to open %s", station.Name), map[string]string{
				"url":   station.URL,
				"error": err.Error(),
			})
			continue
		}
		time.Sleep(config.Browser.SettleDelay)

		source, err := driver.Source()
		if err != nil {
			log.Error(fmt.Sprintf("Failed to read %s", station.Name), map[string]string{"error": err.Error()})
			continue
		}

		lower := strings.ToLower(source)
		if strings.Contains(lower, "404") || strings.Contains(lower, "not found") {
			log.Warn(fmt.Sprintf("%s not available", station.Name), map[string]string{"url": station.URL})
			continue
		}

		log.Info(fmt.Sprintf("%s loaded successfully", station.Name), nil)
		accessible = append(accessible, station)
	}

	log.Info("Station navigation complete", map[string]string{
		"accessible": strconv.Itoa(len(accessible)),
		"total":      strconv.Itoa(len(config.Target.StationPaths)),
	})
	return accessible
}

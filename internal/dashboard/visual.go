package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/probo/internal/browser"
	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/harness"
	"github.com/ternarybob/probo/internal/runlog"
)

// chartIndicatorScript counts script tags whose body mentions charting.
// Runs in the page so the harness never pulls full script bodies over the wire.
const chartIndicatorScript = `
(() => {
	const keywords = ['chart', 'plot', 'graph', 'canvas', 'svg'];
	let count = 0;
	for (const script of document.querySelectorAll('script')) {
		const body = (script.innerHTML || '').toLowerCase();
		if (keywords.some(k => body.includes(k))) count++;
	}
	return count;
})()`

const chartDivSelector = "div[class*='chart'], div[class*='graph'], div[id*='chart'], div[id*='graph']"

// VisualSuite detects rendered charts on the sub-station pages. A page
// counts as charted when any indicator fires: canvas or svg elements,
// chart-flavored containers, chart library markers, or chart scripts.
type VisualSuite struct {
	driver   browser.Driver
	config   *common.Config
	log      *runlog.Logger
	recorder *harness.Recorder
}

func NewVisualSuite(driver browser.Driver, config *common.Config, log *runlog.Logger, recorder *harness.Recorder) *VisualSuite {
	return &VisualSuite{driver: driver, config: config, log: log, recorder: recorder}
}

// Run inspects every sub-station page and records one summary step result
func (v *VisualSuite) Run() (bool, error) {
	v.log.Info("Starting visual element validation", nil)

	totalCanvas := 0
	totalSVG := 0
	chartedPages := make([]string, 0)

	for _, station := range SubStations(v.config) {
		indicators, canvasCount, svgCount, err := v.inspectPage(station)
		if err != nil {
			v.log.Error(fmt.Sprintf("Error checking %s", station.Name), map[string]string{"error": err.Error()})
			continue
		}

		v.log.Info(fmt.Sprintf("Chart analysis for %s", station.Name), map[string]string{
			"canvas":     strconv.Itoa(canvasCount),
			"svg":        strconv.Itoa(svgCount),
			"indicators": strconv.Itoa(indicators),
		})

		if indicators > 0 {
			chartedPages = append(chartedPages, station.Name)
			totalCanvas += canvasCount
			totalSVG += svgCount
		} else {
			v.log.Warn(fmt.Sprintf("No charts detected on %s", station.Name), nil)
		}
	}

	if len(chartedPages) > 0 {
		v.recorder.Record("Chart Detection", true,
			fmt.Sprintf("Charts detected on %d pages: %s", len(chartedPages), strings.Join(chartedPages, ", ")), true)
	} else {
		v.recorder.Record("Chart Detection", false, "No charts detected on any station page", true)
	}

	v.log.Info("Visual validation complete", map[string]string{
		"canvas_total": strconv.Itoa(totalCanvas),
		"svg_total":    strconv.Itoa(totalSVG),
		"pages":        strconv.Itoa(len(chartedPages)),
	})

	return len(chartedPages) > 0, nil
}

func (v *VisualSuite) inspectPage(station Station) (indicators, canvasCount, svgCount int, err error) {
	if err := v.driver.Open(station.URL); err != nil {
		return 0, 0, 0, err
	}
	time.Sleep(v.config.Browser.SettleDelay)
	v.scrollThrough()

	canvasCount, err = v.driver.Count("canvas")
	if err != nil {
		return 0, 0, 0, err
	}
	svgCount, err = v.driver.Count("svg")
	if err != nil {
		return 0, 0, 0, err
	}
	chartDivs, err := v.driver.Count(chartDivSelector)
	if err != nil {
		return 0, 0, 0, err
	}

	var chartScripts int
	if err := v.driver.Evaluate(chartIndicatorScript, &chartScripts); err != nil {
		return 0, 0, 0, err
	}

	source, err := v.driver.Source()
	if err != nil {
		return 0, 0, 0, err
	}
	libraries := 0
	lower := strings.ToLower(source)
	for _, marker := range []string{"chart.js", "chartjs", "plotly", "d3.js", "d3.min.js"} {
		if strings.Contains(lower, marker) {
			libraries++
		}
	}

	indicators = canvasCount + svgCount + chartDivs + chartScripts + libraries
	return indicators, canvasCount, svgCount, nil
}

// scrollThrough scrolls to the bottom and back so lazy-rendered charts load
func (v *VisualSuite) scrollThrough() {
	_ = v.driver.Evaluate("window.scrollTo(0, document.body.scrollHeight)", nil)
	time.Sleep(v.config.Browser.SettleDelay)
	_ = v.driver.Evaluate("window.scrollTo(0, 0)", nil)
	time.Sleep(v.config.Browser.SettleDelay)
}

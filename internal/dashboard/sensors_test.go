package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/probo/internal/models"
)

const fullSensorPage = `
<html><body>
<div class="reading">28.4 °C</div>
<div class="reading">72.1 %</div>
<div class="reading">1011.2 mb</div>
<div class="reading">3.7 m/s</div>
<div class="reading">215 °</div>
<div class="reading">1.2 mm</div>
<div class="reading">455.8 W/m²</div>
<script>var data = {"air_pressure": 1011.2, "watertemp": 23.6, "time": "2023-06-14 09:30:00"};</script>
<span>2023-06-14 09:30</span>
</body></html>`

func TestExtractSensorData_FullPage(t *testing.T) {
	data := ExtractSensorData(fullSensorPage)

	assert.Equal(t, "28.4", data["Temperature"])
	assert.Equal(t, "72.1", data["Humidity"])
	assert.Equal(t, "1011.2", data["Pressure"])
	assert.Equal(t, "3.7", data["Wind Speed"])
	assert.Equal(t, "1.2", data["Rain Gauge"])
	assert.Equal(t, "455.8", data["Pyrano"])
	assert.Equal(t, "1011.2", data["Air Pressure"])
	assert.Equal(t, "23.6", data["Watertemp"])
	assert.Equal(t, "2023-06-14 09:30", data["Timestamp"])
	assert.Contains(t, data, "Wind Direction")
}

func TestExtractSensorData_JSONForm(t *testing.T) {
	page := `<script>{"temp": 19.5, "humidity": 88, "wind_speed": 0.4, "rain": 12.0}</script>`
	data := ExtractSensorData(page)

	assert.Equal(t, "19.5", data["Temperature"])
	assert.Equal(t, "88", data["Humidity"])
	assert.Equal(t, "0.4", data["Wind Speed"])
	assert.Equal(t, "12.0", data["Rain Gauge"])
	assert.NotContains(t, data, "Pyrano")
}

func TestExtractSensorData_EmptyPage(t *testing.T) {
	assert.Empty(t, ExtractSensorData("<html><body>Nothing here</body></html>"))
}

func TestExtractSensorData_FirstMatchWins(t *testing.T) {
	page := `<div>10.0 mm</div><div>99.9 mm</div>`
	assert.Equal(t, "10.0", ExtractSensorData(page)["Rain Gauge"])
}

func TestSensorCount(t *testing.T) {
	assert.Equal(t, 10, SensorCount())
}

func TestSensorSuite_Run(t *testing.T) {
	config := testConfig()
	log, recorder := testHarness(t)

	driver := newFakeDriver()
	for _, url := range config.StationURLs() {
		driver.pages[url] = fullSensorPage
	}

	suite := NewSensorSuite(driver, config, log, recorder)
	passed, err := suite.Run()
	require.NoError(t, err)
	assert.True(t, passed)

	results := recorder.Results()
	// One navigation result plus one per sensor parameter
	require.Len(t, results, 1+SensorCount())
	assert.Equal(t, "Station Navigation", results[0].Name)
	assert.True(t, results[0].Success)

	for _, result := range results[1:] {
		assert.True(t, result.Success, result.Name)
	}
}

func TestSensorSuite_BelowThreshold(t *testing.T) {
	config := testConfig()
	log, recorder := testHarness(t)

	// Only two of ten parameters present on any page
	driver := newFakeDriver()
	for _, url := range config.StationURLs() {
		driver.pages[url] = `<div>55 %</div><script>{"temp": 30.1}</script>`
	}

	suite := NewSensorSuite(driver, config, log, recorder)
	passed, err := suite.Run()
	require.NoError(t, err)
	assert.False(t, passed)

	failures := 0
	for _, result := range recorder.Results() {
		if result.Status == models.StepStatusFailed {
			failures++
		}
	}
	assert.Equal(t, SensorCount()-2, failures)
}

func TestSensorSuite_NoAccessiblePages(t *testing.T) {
	config := testConfig()
	log, recorder := testHarness(t)

	driver := newFakeDriver()
	for _, url := range config.StationURLs() {
		driver.pages[url] = `<html><body>404 Not Found</body></html>`
	}

	suite := NewSensorSuite(driver, config, log, recorder)
	passed, err := suite.Run()
	require.Error(t, err)
	assert.False(t, passed)

	results := recorder.Results()
	require.Len(t, results, 1)
	assert.Equal(t, models.StepStatusFailed, results[0].Status)
}

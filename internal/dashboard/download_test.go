package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/probo/internal/models"
)

func resultsByName(t *testing.T, results []models.StepResult) map[string]models.StepResult {
	t.Helper()
	byName := make(map[string]models.StepResult, len(results))
	for _, result := range results {
		byName[result.Name] = result
	}
	return byName
}

func TestDownloadSuite_FullFlow(t *testing.T) {
	config := testConfig()
	log, recorder := testHarness(t)

	driver := newFakeDriver()
	driver.evals["/download|unduh/i"] = true         // download affordance click
	driver.evals["input[type='date']"] = true        // date range filled
	driver.evals["/download|unduh|export/i"] = true  // export button click
	driver.evals["input[type='password']"] = true    // password submitted
	driver.counts[modalSelector] = 1
	driver.counts[notificationSelector] = 1

	suite := NewDownloadSuite(driver, config, log, recorder)
	passed, err := suite.Run()
	require.NoError(t, err)
	assert.True(t, passed)

	results := resultsByName(t, recorder.Results())
	require.Len(t, results, 3)
	assert.True(t, results["Download Button"].Success)
	assert.True(t, results["Password Modal"].Success)
	assert.Contains(t, results["Password Modal"].Details, "wrong password was rejected")
	assert.True(t, results["Notification"].Success)
}

func TestDownloadSuite_NoDownloadAffordance(t *testing.T) {
	config := testConfig()
	log, recorder := testHarness(t)

	driver := newFakeDriver()
	// Every evaluation answers false

	suite := NewDownloadSuite(driver, config, log, recorder)
	passed, err := suite.Run()
	require.NoError(t, err)
	assert.False(t, passed)

	results := resultsByName(t, recorder.Results())
	require.Len(t, results, 3)
	assert.False(t, results["Download Button"].Success)
	assert.False(t, results["Password Modal"].Success)
	assert.False(t, results["Notification"].Success)
}

func TestDownloadSuite_ModalWithoutNotification(t *testing.T) {
	config := testConfig()
	log, recorder := testHarness(t)

	driver := newFakeDriver()
	driver.evals["/download|unduh/i"] = true
	driver.evals["input[type='date']"] = true
	driver.evals["/download|unduh|export/i"] = true
	driver.evals["input[type='password']"] = true
	driver.counts[modalSelector] = 1
	// notification selector count stays zero

	suite := NewDownloadSuite(driver, config, log, recorder)
	passed, err := suite.Run()
	require.NoError(t, err)
	assert.True(t, passed)

	results := resultsByName(t, recorder.Results())
	assert.True(t, results["Password Modal"].Success)
	assert.NotContains(t, results["Password Modal"].Details, "rejected")
	assert.False(t, results["Notification"].Success)
}

func TestDownloadSuite_StopsAfterFirstSuccess(t *testing.T) {
	config := testConfig()
	log, recorder := testHarness(t)

	driver := newFakeDriver()
	driver.evals["/download|unduh/i"] = true
	driver.evals["input[type='date']"] = true
	driver.evals["/download|unduh|export/i"] = true
	driver.evals["input[type='password']"] = true
	driver.counts[modalSelector] = 1

	suite := NewDownloadSuite(driver, config, log, recorder)
	_, err := suite.Run()
	require.NoError(t, err)

	// Only the first sub-station page was opened
	require.Len(t, driver.opened, 1)
	assert.Contains(t, driver.opened[0], "/station")
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyDocument = `{
  "intro": {"clientName": "Acme", "projectLocationName": "Pune"},
  "satDroneSection": {"location": {"lat": 0, "lng": 0}, "audio": {"audioUrl": "sat.mp3", "durationInSeconds": 5, "transcript": "Aerial"}},
  "locationSection": {"nearbyPoints": [], "audio": {"durationInSeconds": 0, "transcript": ""}, "sectionDurationInSeconds": 8},
  "internalSection": {"wideShotVideoUrl": "wide.mp4", "audio": {"durationInSeconds": 5, "transcript": ""}},
  "dockingSection": {"dockPanVideoUrl": "", "audio": {"durationInSeconds": 3, "transcript": ""}},
  "complianceSection": {"fireSafetyVideoUrl": "", "safetyFeatures": [], "audio": {"durationInSeconds": 1, "transcript": ""}}
}`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		cfgFile, verbose, format, outputPath, mediaDir = "", false, "", "", ""
		introFlag, outroFlag = "", ""
		configInitForce = false
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(legacyDocument), 0644))
	return path
}

func TestTimelineCommand(t *testing.T) {
	out, err := run(t, "timeline", "--format", "json", writeFixture(t))
	require.NoError(t, err)

	var tl struct {
		TotalFrames int `json:"totalFrames"`
		Entries     []struct {
			Name             string `json:"name"`
			DurationInFrames int    `json:"durationInFrames"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &tl))

	// intro, satDrone, location, wide, dock, utilities, docking, compliance, outro
	require.Len(t, tl.Entries, 9)
	assert.Equal(t, 180, tl.Entries[1].DurationInFrames)
	assert.Equal(t, 240, tl.Entries[2].DurationInFrames)
	assert.Equal(t, 150+180+240+180+180+180+120+60+150-8*15, tl.TotalFrames)
}

func TestTimelineIntroOverride(t *testing.T) {
	out, err := run(t, "timeline", "-f", "json", "--intro", "00:02.5", "--outro", "0", writeFixture(t))
	require.NoError(t, err)

	var tl struct {
		Entries []struct {
			Name             string `json:"name"`
			DurationInFrames int    `json:"durationInFrames"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &tl))
	require.Len(t, tl.Entries, 9)
	assert.Equal(t, 75, tl.Entries[0].DurationInFrames)
	assert.Equal(t, 0, tl.Entries[8].DurationInFrames)

	_, err = run(t, "timeline", "--intro", "five", writeFixture(t))
	assert.ErrorContains(t, err, "--intro")
}

func TestPlanCommandText(t *testing.T) {
	out, err := run(t, "plan", writeFixture(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Plan 1920x1080 @ 30 fps")
	assert.Contains(t, out, "Satellite & Drone")
}

func TestMigrateCommand(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out", "doc.json")
	_, err := run(t, "migrate", writeFixture(t), "-o", dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"schemaVersion": 3`)
	assert.Contains(t, string(data), `"internalWideShotSection"`)
	assert.NotContains(t, string(data), `"internalSection"`)
}

func TestCommandErrors(t *testing.T) {
	_, err := run(t, "sections", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = run(t, "sections", "--format", "xml", writeFixture(t))
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "showcase.yaml")

	_, err := run(t, "config", "init", path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = run(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")
}

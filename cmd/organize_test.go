package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"photodedupe/config"
)

func TestApplyFlagOverridesOnlyTouchesSetFlags(t *testing.T) {
	defer resetOrganizeFlags()
	organizeFlags.imageThreshold = 0.95
	organizeFlags.dryRun = true

	cfg := config.Default()
	applyFlagOverrides(&cfg)

	assert.Equal(t, 0.95, cfg.Similarity.ImageSimilarityThreshold)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, config.Default().Similarity.VideoSimilarityThreshold, cfg.Similarity.VideoSimilarityThreshold)
}

func TestResolveDirJoinsRelativeToDestination(t *testing.T) {
	assert.Equal(t, "/dest/duplicates", resolveDir("duplicates", "/dest"))
}

func TestResolveDirKeepsAbsolute(t *testing.T) {
	assert.Equal(t, "/var/dups", resolveDir("/var/dups", "/dest"))
}

func resetOrganizeFlags() {
	organizeFlags = organizeOptions{}
}

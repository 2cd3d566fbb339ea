package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitHost(t *testing.T) {
	user, host := splitHost("deploy@tracker.example.com")
	assert.Equal(t, "deploy", user)
	assert.Equal(t, "tracker.example.com", host)

	user, host = splitHost("10.0.0.5")
	assert.Equal(t, "root", user)
	assert.Equal(t, "10.0.0.5", host)
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, `'plain'`, shellQuote("plain"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}

func TestDataCmd_RequiresProfile(t *testing.T) {
	cmd := DataCmd()
	cmd.SetArgs([]string{"wipe", "--yes"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	err := cmd.Execute()

	assert.ErrorContains(t, err, `required flag(s) "profile" not set`)
}

func TestWipe_RefusesWithoutConfirmation(t *testing.T) {
	cmd := DataCmd()
	cmd.SetArgs([]string{"wipe", "--profile", "p1"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	err := cmd.Execute()

	assert.ErrorContains(t, err, "without --yes")
}

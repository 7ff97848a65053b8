package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candy-drop/pkg/machine"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	var names []string
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"state", "gallery", "countdown", "connect", "mint", "watch", "history"} {
		assert.Contains(t, names, want)
	}

	flag := mintCmd.Flags().Lookup("dry-run")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestPrintStats(t *testing.T) {
	goLive := time.Date(2021, 10, 18, 14, 38, 10, 0, time.UTC)
	stats := &machine.Stats{
		ItemsAvailable: 10,
		ItemsRedeemed:  4,
		ItemsRemaining: 6,
		Price:          1_500_000_000,
		GoLive:         goLive,
		GoLiveSet:      true,
		GoLiveDisplay:  goLive.Format(machine.DisplayLayout),
	}

	var buf bytes.Buffer
	printStats(&buf, stats, goLive.Add(-time.Minute))
	out := buf.String()
	assert.Contains(t, out, "Items remaining: 6")
	assert.Contains(t, out, "Price:           1.5000 SOL")
	assert.Contains(t, out, "Go live date:    10/18/2021, 2:38:10 PM")
	assert.Contains(t, out, "not live yet")

	buf.Reset()
	stats.ItemsRedeemed, stats.ItemsRemaining = 10, 0
	printStats(&buf, stats, goLive)
	assert.Contains(t, buf.String(), "SOLD OUT")
}

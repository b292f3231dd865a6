package cmd

import (
	"testing"

	"github.com/roamchat/roam/internal/log"
	"github.com/roamchat/roam/internal/nav"
)

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"chat": false, "mcp": false, "version": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestLoggingSink(t *testing.T) {
	// Must not panic on either variant.
	sink := loggingSink(log.NewNop())
	sink(nav.MapUpdate{Kind: nav.KindLocation, Location: &nav.Location{Query: "Paris"}})
	sink(nav.MapUpdate{Kind: nav.KindRoute, Route: &nav.Route{Origin: "Oslo", Destination: "Bergen"}})
}

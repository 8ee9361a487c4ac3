// cmd/felobs/root_test.go
package felobs

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/accelsw/felobs/epics"
	"github.com/accelsw/felobs/observe"
)

func findCommand(t *testing.T, parent *cobra.Command, name string) *cobra.Command {
	t.Helper()
	for _, sub := range parent.Commands() {
		if sub.Name() == name {
			return sub
		}
	}
	t.Fatalf("command %q not registered under %q", name, parent.Name())
	return nil
}

func TestRootSubcommands(t *testing.T) {
	for _, name := range []string{"sample", "loss", "rate", "watch", "stability", "list"} {
		findCommand(t, rootCmd, name)
	}

	list := findCommand(t, rootCmd, "list")
	findCommand(t, list, "channels")
	findCommand(t, list, "commands")
}

func TestCommands_HaveDescriptions(t *testing.T) {
	var walk func(cmd *cobra.Command)
	walk = func(cmd *cobra.Command) {
		if cmd.Short == "" {
			t.Errorf("%s: missing Short description", cmd.CommandPath())
		}
		if cmd.Long == "" {
			t.Errorf("%s: missing Long description", cmd.CommandPath())
		}
		for _, sub := range cmd.Commands() {
			if !sub.IsAvailableCommand() || sub.IsAdditionalHelpTopicCommand() {
				continue
			}
			walk(sub)
		}
	}
	walk(rootCmd)
}

func TestListAllCommands(t *testing.T) {
	var buf bytes.Buffer
	listAllCommands(&buf, rootCmd)

	out := buf.String()
	if !strings.Contains(out, "Commands and Subcommands:") {
		t.Fatalf("missing heading in output:\n%s", out)
	}
	for _, path := range []string{"felobs sample", "felobs stability", "felobs list channels"} {
		if !strings.Contains(out, path) {
			t.Errorf("output missing %q:\n%s", path, out)
		}
	}
}

func TestObservableChannels(t *testing.T) {
	cfg := epics.DefaultConfig()

	sxr := observableChannels(cfg)
	want := []string{
		observe.BeamRateChannel,
		cfg.LossChannel,
		observe.SXRGasChannel,
		observe.SXRGasScalarChannel,
	}
	if !slices.Equal(sxr, want) {
		t.Errorf("SXR channels = %v, want %v", sxr, want)
	}

	cfg.HXR = true
	hxr := observableChannels(cfg)
	want = []string{
		observe.BeamRateChannel,
		cfg.LossChannel,
		"GDET:FEE1:241:ENRCHSTCUHBR",
	}
	if !slices.Equal(hxr, want) {
		t.Errorf("HXR channels = %v, want %v", hxr, want)
	}
}

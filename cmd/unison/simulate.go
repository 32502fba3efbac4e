package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/modkit-go/unison/pkg/blackboard"
	"github.com/modkit-go/unison/pkg/handle"
	"github.com/modkit-go/unison/pkg/host"
	"github.com/modkit-go/unison/pkg/version"
)

func newSimulateCmd() *cobra.Command {
	var raiseTwice bool
	var hostAbsent bool

	cmd := &cobra.Command{
		Use:   "simulate <manifest.toml>",
		Short: "Simulate a host load sequence for a manifest of module copies",
		Long: `Simulate loads every module copy declared in the manifest against one
simulated host root, raises the post-load event, and reports which copy's
library version won the election.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := LoadManifest(args[0])
			if err != nil {
				return err
			}

			result := runSimulation(manifest, raiseTwice, hostAbsent)
			renderResult(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&raiseTwice, "raise-twice", false, "Raise the post-load event twice to demonstrate the one-shot hook")
	cmd.Flags().BoolVar(&hostAbsent, "host-absent", false, "Simulate an unreachable host root (every registration is skipped)")

	return cmd
}

// moduleResult is one row of the simulation outcome.
type moduleResult struct {
	Name    string
	Version string
	Status  string
}

// simResult is the aggregate outcome of one simulated load sequence.
type simResult struct {
	Modules   []moduleResult
	Winner    string
	HasWinner bool
	Callbacks []string
}

// runSimulation drives the manifest's module copies through the full load
// sequence: obtain the registry, register a candidate each, raise post-load,
// then use the shared board for steady-state traffic.
func runSimulation(manifest *Manifest, raiseTwice, hostAbsent bool) *simResult {
	result := &simResult{}

	var root *host.Root
	if !hostAbsent {
		root = host.NewRoot()
	}

	// Load phase: every copy registers its candidate.
	for _, spec := range manifest.Modules {
		h, err := handle.Obtain(root)
		if err != nil {
			// Non-fatal by contract: log and skip registration for this copy.
			log.Warn().Err(err).Str("module", spec.Name).Msg("Skipping registration, host not ready")
			result.Modules = append(result.Modules, moduleResult{spec.Name, spec.Version, "skipped (host not ready)"})
			continue
		}

		h.AddCandidate(spec.Version, spec.Name, initializerFor(spec))

		status := "stood down"
		if !version.IsValid(spec.Version) {
			status = "rejected (malformed version)"
		}
		result.Modules = append(result.Modules, moduleResult{spec.Name, spec.Version, status})
	}

	if root == nil {
		return result
	}

	// The host reaches its late lifecycle point.
	root.RaisePostLoad()
	if raiseTwice {
		root.RaisePostLoad()
	}

	// Steady-state phase: every copy publishes through the shared board.
	for _, spec := range manifest.Modules {
		h, err := handle.Obtain(root)
		if err != nil {
			continue
		}

		board := h.Board()
		lock := board.GetOrCreateLock(blackboard.KeyStartupCallbacks)
		lock.Lock()
		callbacks, _ := blackboard.GetAs[[]string](board, blackboard.KeyStartupCallbacks)
		board.Put(blackboard.KeyStartupCallbacks, append(callbacks, "ready:"+spec.Name))
		lock.Unlock()
	}

	h, err := handle.Obtain(root)
	if err == nil {
		if winner, ok := h.AuthoritativeVersion(); ok {
			result.Winner = winner
			result.HasWinner = true
			for i, m := range result.Modules {
				if m.Version == winner {
					result.Modules[i].Status = "elected"
					break
				}
			}
		}
		result.Callbacks, _ = blackboard.GetAs[[]string](h.Board(), blackboard.KeyStartupCallbacks)
	}

	return result
}

// initializerFor builds the run-once initialization bundle for one module
// copy. The winning copy publishes the shared tables every copy reads later.
func initializerFor(spec ModuleSpec) func(*blackboard.Board) error {
	return func(board *blackboard.Board) error {
		if spec.PanicInit {
			panic(fmt.Sprintf("%s: induced initializer panic", spec.Name))
		}
		if spec.FailInit {
			return fmt.Errorf("%s: induced initializer failure", spec.Name)
		}

		board.Put("unison.initialized-by", spec.Name)
		board.Put(blackboard.KeyStartupCallbacks, []string{})
		return nil
	}
}

// renderResult prints the outcome table and the election verdict.
func renderResult(result *simResult) {
	rows := pterm.TableData{{"Module", "Version", "Status"}}
	for _, m := range result.Modules {
		rows = append(rows, []string{m.Name, m.Version, m.Status})
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		log.Error().Err(err).Msg("Failed to render result table")
	}

	if result.HasWinner {
		pterm.Success.Printfln("Authoritative version: %s", formatBold(result.Winner))
		pterm.Info.Printfln("Startup callbacks registered: %d", len(result.Callbacks))
	} else {
		pterm.Warning.Println("No election result (no electable candidates or host never loaded)")
	}
}

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/davecgh/go-spew/spew"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/tv42/zbase32"
	"golang.org/x/exp/slices"

	"github.com/mobilecoinofficial/nanos-core/framing"
)

// printBalances renders the per-token summary view the device display would
// show before an approval gate, standing in for the out-of-scope device
// display driver named in §1.
func printBalances(fee, tombstone uint64, balances []framing.TokenBalance, recipients []string) {
	// Stable, deterministic ordering for the printed table regardless of
	// the first-seen order the summary engine accumulated token ids in.
	sorted := append([]framing.TokenBalance(nil), balances...)
	slices.SortFunc(sorted, func(a, b framing.TokenBalance) bool {
		return a.TokenID < b.TokenID
	})

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Token", "Outflow", "Change back", "Net"})
	for _, b := range sorted {
		t.AppendRow(table.Row{b.TokenID, b.Outflow, b.ChangeBack, b.Net})
	}
	t.Render()

	fmt.Printf("fee: %d  tombstone: %d\n", fee, tombstone)

	recips := append([]string(nil), recipients...)
	sort.Strings(recips)
	for _, r := range recips {
		fmt.Printf("recipient: %s\n", r)
	}
}

// digestLabel renders a 32-byte digest the way the teacher's own
// dictation-friendly encoding choice (zbase32, per cmd/lncli's own payment
// request display) does for values a support call might need read aloud,
// per SPEC_FULL §7 — used only in trace/log output, never on the wire.
func digestLabel(digest [32]byte) string {
	return zbase32.EncodeToString(digest[:])
}

// dumpDebug spews a Go-syntax dump of v when --debug is set, mirroring the
// teacher's own use of go-spew for verbose peer/channel state dumps.
func dumpDebug(debug bool, label string, v interface{}) {
	if !debug {
		return
	}
	fmt.Fprintf(os.Stderr, "--- %s ---\n%s", label, spew.Sdump(v))
}

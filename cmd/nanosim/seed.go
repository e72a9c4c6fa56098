package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// testMnemonicSeed is the fixed 32-byte seed behind every "test mnemonic"
// scenario in spec §8; it has no meaning beyond this simulator and must
// never be treated as a real wallet seed.
var testMnemonicSeed = [32]byte{
	0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
	0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
	0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17,
	0x18, 0x19, 0x1a, 0x1b, 0x1c, 0x1d, 0x1e, 0x1f,
}

// loadSeed returns the configured seed file's bytes, or — absent a
// --seed-file flag — prompts for the seed on the terminal with input echo
// disabled, the way a CLI tool handling secret material should. An empty
// entry at the prompt, or a stdin that is not a terminal, selects the
// fixed test-mnemonic seed used by every scripted scenario below.
func loadSeed(cfg *config) ([]byte, error) {
	if cfg.SeedFile != "" {
		data, err := os.ReadFile(cfg.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("nanosim: read seed file: %w", err)
		}
		return data, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return testMnemonicSeed[:], nil
	}

	fmt.Fprint(os.Stderr, "seed (leave empty for the fixed test mnemonic): ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("nanosim: read seed from terminal: %w", err)
	}
	if len(raw) == 0 {
		return testMnemonicSeed[:], nil
	}
	return raw, nil
}

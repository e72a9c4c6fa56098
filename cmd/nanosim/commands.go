package main

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/mobilecoinofficial/nanos-core/coreengine"
	"github.com/mobilecoinofficial/nanos-core/framing"
	"github.com/mobilecoinofficial/nanos-core/keyprovider"
	"github.com/mobilecoinofficial/nanos-core/primitives"
)

// app holds everything a command needs to run one scripted scenario: the
// process-wide engine plus the key provider used to precompute the
// off-device half of the ring a real host wallet would already know (it
// scanned the chain for its own one-time output key and is choosing decoys
// from public commitments).
type app struct {
	cfg *config
	eng *coreengine.Engine
	kp  *keyprovider.Provider
}

// buildCLIApp assembles the urfave/cli command tree, one subcommand per
// spec §8 end-to-end scenario, mirroring the teacher's cmd/lncli structure
// (one Command per RPC, a shared fatal-on-error top level).
func buildCLIApp(a *app) *cli.App {
	cliApp := cli.NewApp()
	cliApp.Name = "nanosim"
	cliApp.Usage = "in-process simulator for the hardware-wallet transaction engine"
	cliApp.Commands = []cli.Command{
		{
			Name:   "appinfo",
			Usage:  "query AppInfo (§8 scenario 1, first half)",
			Action: a.cmdAppInfo,
		},
		{
			Name:  "walletkeys",
			Usage: "derive an account's wallet keys (§8 scenario 1)",
			Flags: []cli.Flag{
				cli.UintFlag{Name: "account", Value: 0},
			},
			Action: a.cmdWalletKeys,
		},
		{
			Name:  "subaddress",
			Usage: "derive a subaddress key pair (§8 scenario 2)",
			Flags: []cli.Flag{
				cli.UintFlag{Name: "account", Value: 0},
				cli.Uint64Flag{Name: "subaddress", Value: 1},
			},
			Action: a.cmdSubaddressKeys,
		},
		{
			Name:  "keyimage",
			Usage: "derive a key image twice and confirm determinism (§8 scenario 3)",
			Flags: []cli.Flag{
				cli.Uint64Flag{Name: "subaddress", Value: 0},
			},
			Action: a.cmdKeyImage,
		},
		{
			Name:  "identsign",
			Usage: "run an IdentSign challenge, approved or rejected (§8 scenarios 4-5)",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "uri", Value: "mob://example"},
				cli.BoolFlag{Name: "reject"},
			},
			Action: a.cmdIdentSign,
		},
		{
			Name:  "ringsign",
			Usage: "build and sign an MLSAG ring, twice, and confirm determinism (§8 scenario 6)",
			Flags: []cli.Flag{
				cli.UintFlag{Name: "account", Value: 0},
				cli.Uint64Flag{Name: "subaddress", Value: 0},
				cli.IntFlag{Name: "real-index", Value: 3},
				cli.IntFlag{Name: "ring-size", Value: 11},
				cli.Uint64Flag{Name: "value", Value: 1000},
				cli.Uint64Flag{Name: "token", Value: 0},
			},
			Action: a.cmdRingSign,
		},
		{
			Name:   "summary-unbalanced",
			Usage:  "build a deliberately unbalanced summary and confirm the tx is rejected (§8 scenario 7)",
			Action: a.cmdSummaryUnbalanced,
		},
		{
			Name:   "summary-balanced",
			Usage:  "build, approve, and display a balanced summary (§8 scenario 7, happy path)",
			Action: a.cmdSummaryBalanced,
		},
	}
	return cliApp
}

// update is a small wrapper that logs the debug dump and surfaces non-success
// statuses as Go errors, so every command can just check err.
func (a *app) update(evt framing.Event) (framing.Output, error) {
	out := a.eng.Update(evt)
	dumpDebug(a.cfg.Debug, fmt.Sprintf("%T", evt), evt)
	if out.Status() != framing.StatusSuccess {
		return out, fmt.Errorf("nanosim: %T: status %s", evt, out.Status())
	}
	return out, nil
}

func (a *app) cmdAppInfo(*cli.Context) error {
	out, err := a.update(&framing.AppInfoEvent{})
	if err != nil {
		return err
	}
	info := out.(framing.OutputAppInfo)
	fmt.Printf("protocol_version=%d name=%s\n", info.ProtocolVersion, info.Name)
	return nil
}

func (a *app) cmdWalletKeys(ctx *cli.Context) error {
	account := uint32(ctx.Uint("account"))
	out, err := a.update(&framing.WalletKeysEvent{AccountIndex: account})
	if err != nil {
		return err
	}
	keys := out.(framing.OutputWalletKeys)
	fmt.Printf("view_public=%x\nspend_public=%x\n", keys.ViewPublic, keys.SpendPublic)
	return nil
}

func (a *app) cmdSubaddressKeys(ctx *cli.Context) error {
	account := uint32(ctx.Uint("account"))
	sub := ctx.Uint64("subaddress")
	out, err := a.update(&framing.SubaddressKeysEvent{AccountIndex: account, SubaddressIndex: sub})
	if err != nil {
		return err
	}
	keys := out.(framing.OutputSubaddressKeys)
	fmt.Printf("view_public=%x\nspend_public=%x\n", keys.ViewPublic, keys.SpendPublic)

	change, err := a.update(&framing.SubaddressKeysEvent{AccountIndex: account, SubaddressIndex: keyprovider.ChangeSubaddressIndex})
	if err != nil {
		return err
	}
	changeKeys := change.(framing.OutputSubaddressKeys)
	fmt.Printf("change_view_public=%x\nchange_spend_public=%x\n", changeKeys.ViewPublic, changeKeys.SpendPublic)
	return nil
}

func (a *app) cmdKeyImage(ctx *cli.Context) error {
	sub := ctx.Uint64("subaddress")
	txPublic := primitives.EncodePoint(primitives.HashToPoint("nanosim-demo-tx-public"))

	first, err := a.update(&framing.KeyImageEvent{SubaddressIndex: sub, TxPublic: txPublic})
	if err != nil {
		return err
	}
	second, err := a.update(&framing.KeyImageEvent{SubaddressIndex: sub, TxPublic: txPublic})
	if err != nil {
		return err
	}

	i1 := first.(framing.OutputKeyImage).KeyImage
	i2 := second.(framing.OutputKeyImage).KeyImage
	fmt.Printf("key_image=%x\n", i1)
	if i1 != i2 {
		return fmt.Errorf("nanosim: key image determinism violated: %x != %x", i1, i2)
	}
	fmt.Println("determinism: OK (identical on repeat)")
	return nil
}

func (a *app) cmdIdentSign(ctx *cli.Context) error {
	uri := ctx.String("uri")
	reject := ctx.Bool("reject")

	var challenge [32]byte
	for i := range challenge {
		challenge[i] = byte(i + 1)
	}

	pending, err := a.update(&framing.IdentSignEvent{IdentityIndex: 0, URI: uri, Challenge: challenge})
	if err != nil {
		return err
	}
	if _, ok := pending.(framing.OutputPending); !ok {
		return fmt.Errorf("nanosim: expected Pending, got %T", pending)
	}

	out, err := a.update(framing.ApprovalEvent{Approved: !reject})
	if reject {
		if err == nil {
			return fmt.Errorf("nanosim: expected rejection status")
		}
		fmt.Println("rejected: status", out.Status())
		return nil
	}
	if err != nil {
		return err
	}
	sig := out.(framing.OutputIdentSignature)
	fmt.Printf("public_key=%x\nsignature=%x\n", sig.PublicKey, sig.Signature)
	return nil
}

// ringMember is one row of a simulated ring, matching the wire shape of
// TxAddTxOut.
type ringMember struct {
	targetPublic [32]byte
	commitment   [32]byte
}

// buildDemoRing derives a valid real row using exactly the formula
// ringengine.Init uses internally (the nanosim process is standing in for
// the host wallet, which already knows its own one-time output key from
// chain-scanning) plus deterministic decoy rows for every other index.
func (a *app) buildDemoRing(accountIndex uint32, subaddress uint64, realIndex, ringSize int, value, tokenID uint64) (members []ringMember, blinding, outputBlinding [32]byte, realCommitment [32]byte, err error) {
	blindingScalar := primitives.HashToScalar([]byte("nanosim-demo-blinding"))
	outputBlindingScalar := primitives.HashToScalar([]byte("nanosim-demo-output-blinding"))
	blinding = primitives.EncodeScalar(blindingScalar)
	outputBlinding = primitives.EncodeScalar(outputBlindingScalar)

	// Mirrors ringengine.Init's own derivation of an ephemeral DH point from
	// fields already on the wire (see DESIGN.md's Open Question on
	// TxRingInit's missing tx_public field); nanosim must replicate it
	// exactly to compute the same one-time public key the engine will.
	txPublic := primitives.HashToPoint("mc-ring-tx-public", blinding[:], outputBlinding[:], encodeU64(subaddress))
	onetimePriv, derr := a.kp.DeriveOneTimePrivate(accountIndex, subaddress, txPublic, uint64(realIndex))
	if derr != nil {
		err = derr
		return
	}
	onetimePub := primitives.NewPoint().ScalarBaseMult(onetimePriv)
	realTarget := primitives.EncodePoint(onetimePub)
	realCommitment = primitives.EncodePoint(primitives.PedersenCommit(value, tokenID, blindingScalar))

	members = make([]ringMember, ringSize)
	for i := 0; i < ringSize; i++ {
		if i == realIndex {
			members[i] = ringMember{targetPublic: realTarget, commitment: realCommitment}
			continue
		}
		decoyTarget := primitives.EncodePoint(primitives.HashToPoint("nanosim-decoy-target", encodeU64(uint64(i))))
		decoyCommitment := primitives.EncodePoint(primitives.HashToPoint("nanosim-decoy-commitment", encodeU64(uint64(i))))
		members[i] = ringMember{targetPublic: decoyTarget, commitment: decoyCommitment}
	}
	return
}

func encodeU64(v uint64) []byte {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b[:]
}

// ringRunResult captures one full build-then-sign pass, for the
// determinism comparison §8 scenario 6 asks for.
type ringRunResult struct {
	cZero      [32]byte
	keyImage   [32]byte
	responses  [][2][32]byte
}

func (a *app) runRingOnce(accountIndex uint32, subaddress uint64, realIndex, ringSize int, value, tokenID uint64, seed [32]byte, messageDigest [32]byte) (*ringRunResult, error) {
	members, blinding, outputBlinding, realCommitment, err := a.buildDemoRing(accountIndex, subaddress, realIndex, ringSize, value, tokenID)
	if err != nil {
		return nil, err
	}

	if _, err := a.update(&framing.TxInitEvent{AccountIndex: accountIndex, NumRings: 1}); err != nil {
		return nil, err
	}
	if _, err := a.update(&framing.TxRingInitEvent{
		RealIndex: byte(realIndex), Value: value, TokenID: tokenID,
		Blinding: blinding, OutputBlinding: outputBlinding, Subaddress: subaddress,
	}); err != nil {
		return nil, err
	}
	if _, err := a.update(&framing.TxSetMessageEvent{Digest: messageDigest}); err != nil {
		return nil, err
	}
	for i, m := range members {
		if _, err := a.update(&framing.TxAddTxOutEvent{Index: byte(i), TargetPublic: m.targetPublic, Commitment: m.commitment}); err != nil {
			return nil, err
		}
	}
	if _, err := a.update(&framing.TxSetBlindingEvent{RealCommitment: realCommitment}); err != nil {
		return nil, err
	}
	if _, err := a.update(&framing.TxRingSignEvent{Seed: seed}); err != nil {
		return nil, err
	}

	kiOut, err := a.update(&framing.TxGetKeyImageEvent{})
	if err != nil {
		return nil, err
	}

	result := &ringRunResult{keyImage: kiOut.(framing.OutputKeyImage).KeyImage}
	for i := range members {
		respOut, err := a.update(&framing.TxGetResponseEvent{Index: byte(i)})
		if err != nil {
			return nil, err
		}
		resp := respOut.(framing.OutputTxResponse)
		result.cZero = resp.CZero
		result.responses = append(result.responses, [2][32]byte{resp.ResponseTarget, resp.ResponseCommitment})
	}

	if _, err := a.update(&framing.TxCompleteEvent{}); err != nil {
		return nil, err
	}
	return result, nil
}

func (a *app) cmdRingSign(ctx *cli.Context) error {
	accountIndex := uint32(ctx.Uint("account"))
	subaddress := ctx.Uint64("subaddress")
	realIndex := ctx.Int("real-index")
	ringSize := ctx.Int("ring-size")
	value := ctx.Uint64("value")
	tokenID := ctx.Uint64("token")

	var seed [32]byte // seed=0, per §8 scenario 6
	messageDigest := primitives.Blake2bSum256([]byte("nanosim-ring-message"), encodeU64(value), encodeU64(tokenID))
	fmt.Printf("message_digest=%s\n", digestLabel(messageDigest))

	first, err := a.runRingOnce(accountIndex, subaddress, realIndex, ringSize, value, tokenID, seed, messageDigest)
	if err != nil {
		return err
	}
	second, err := a.runRingOnce(accountIndex, subaddress, realIndex, ringSize, value, tokenID, seed, messageDigest)
	if err != nil {
		return err
	}

	fmt.Printf("key_image=%x\nc_zero=%x\n", first.keyImage, first.cZero)
	if first.keyImage != second.keyImage || first.cZero != second.cZero {
		return fmt.Errorf("nanosim: determinism violated across identical seeds")
	}
	for i := range first.responses {
		if first.responses[i] != second.responses[i] {
			return fmt.Errorf("nanosim: response row %d differs across identical seeds", i)
		}
	}
	fmt.Println("determinism: OK (identical c_zero, key_image, and responses on repeat)")
	return nil
}

func (a *app) cmdSummaryUnbalanced(*cli.Context) error {
	const accountIndex = uint32(0)
	const tokenID = uint64(0)
	const fee = uint64(0)
	const outputValue = uint64(100)
	const inputValue = uint64(99) // deliberately short by one vs. outputValue+fee

	if _, err := a.update(&framing.TxInitEvent{AccountIndex: accountIndex, NumRings: 0}); err != nil {
		return err
	}

	if _, err := a.update(&framing.TxSummaryInitEvent{
		BlockVersion: 3, NumOutputs: 1, NumInputs: 1, Fee: fee, TokenID: tokenID, Tombstone: 1000,
	}); err != nil {
		return err
	}

	blindingScalar := primitives.HashToScalar([]byte("nanosim-unbalanced-blinding"))
	blindingBytes := primitives.EncodeScalar(blindingScalar)
	commitment := primitives.EncodePoint(primitives.PedersenCommit(outputValue, tokenID, blindingScalar))
	target := primitives.EncodePoint(primitives.HashToPoint("nanosim-unbalanced-target"))

	// The message digest the host signs is the hash of the exact byte
	// sequence SummaryEngine accumulates across AddTxOut, its unblinding,
	// and AddTxIn — nanosim must replicate that accumulation, the same
	// way buildDemoRing replicates ringengine.Init's derivation, or
	// TxSummaryBuild fails on a digest mismatch before it ever reaches
	// the mass-balance check this scenario is exercising.
	messageDigest := primitives.Blake2bSum256(
		[]byte{0}, target[:], commitment[:],
		encodeU64(outputValue), encodeU64(tokenID), blindingBytes[:], []byte{0},
		encodeU64(inputValue), encodeU64(tokenID), blindingBytes[:],
	)
	if _, err := a.update(&framing.TxSetMessageEvent{Digest: messageDigest}); err != nil {
		return err
	}

	if _, err := a.update(&framing.TxSummaryAddTxOutEvent{
		Flags: 0, TargetPublic: target, AmountCommitment: commitment,
	}); err != nil {
		return err
	}
	if _, err := a.update(&framing.TxSummaryAddTxOutUnblindingEvent{
		Value: outputValue, TokenID: tokenID, Blinding: blindingBytes, FogID: 0,
	}); err != nil {
		return err
	}
	if _, err := a.update(&framing.TxSummaryAddTxInEvent{
		Value: inputValue, TokenID: tokenID, Blinding: blindingBytes,
	}); err != nil {
		return err
	}

	buildOut := a.eng.Update(&framing.TxSummaryBuildEvent{})
	if buildOut.Status() == framing.StatusSuccess {
		return fmt.Errorf("nanosim: expected TxSummaryBuild to fail with UnbalancedSummary")
	}
	fmt.Printf("TxSummaryBuild: status=%s (expected UnbalancedSummary)\n", buildOut.Status())

	// Per §8 scenario 7: once the summary is rejected, both TxRingInit and
	// TxRingSign check the summary's rejected flag before anything else and
	// answer UserRejected; the scenario exercises that path via TxRingInit.
	ringInitOut := a.eng.Update(&framing.TxRingInitEvent{
		RealIndex: 0, Value: outputValue, TokenID: tokenID,
		Blinding: blindingBytes, OutputBlinding: blindingBytes, Subaddress: 0,
	})
	fmt.Printf("TxRingInit after rejected summary: status=%s (expected UserRejected/0x6985)\n", ringInitOut.Status())
	if ringInitOut.Status() == framing.StatusSuccess {
		return fmt.Errorf("nanosim: expected TxRingInit to be refused after a rejected summary")
	}
	return nil
}

// cmdSummaryBalanced runs the happy-path counterpart to summary-unbalanced:
// a one-output, one-input summary whose inputs exactly cover the outputs
// plus fee, approved by the user and rendered the way the device display
// would show it before a ring-signing pass proceeds.
func (a *app) cmdSummaryBalanced(*cli.Context) error {
	const accountIndex = uint32(0)
	const tokenID = uint64(0)
	const fee = uint64(10)
	const outputValue = uint64(990)
	const inputValue = uint64(1000) // covers outputValue + fee exactly

	if _, err := a.update(&framing.TxInitEvent{AccountIndex: accountIndex, NumRings: 0}); err != nil {
		return err
	}
	if _, err := a.update(&framing.TxSummaryInitEvent{
		BlockVersion: 3, NumOutputs: 1, NumInputs: 1, Fee: fee, TokenID: tokenID, Tombstone: 2000,
	}); err != nil {
		return err
	}

	blindingScalar := primitives.HashToScalar([]byte("nanosim-balanced-blinding"))
	blindingBytes := primitives.EncodeScalar(blindingScalar)
	commitment := primitives.EncodePoint(primitives.PedersenCommit(outputValue, tokenID, blindingScalar))
	target := primitives.EncodePoint(primitives.HashToPoint("nanosim-balanced-target"))

	messageDigest := primitives.Blake2bSum256(
		[]byte{0}, target[:], commitment[:],
		encodeU64(outputValue), encodeU64(tokenID), blindingBytes[:], []byte{0},
		encodeU64(inputValue), encodeU64(tokenID), blindingBytes[:],
	)
	if _, err := a.update(&framing.TxSetMessageEvent{Digest: messageDigest}); err != nil {
		return err
	}

	if _, err := a.update(&framing.TxSummaryAddTxOutEvent{
		Flags: 0, TargetPublic: target, AmountCommitment: commitment,
	}); err != nil {
		return err
	}
	if _, err := a.update(&framing.TxSummaryAddTxOutUnblindingEvent{
		Value: outputValue, TokenID: tokenID, Blinding: blindingBytes, FogID: 0,
	}); err != nil {
		return err
	}
	if _, err := a.update(&framing.TxSummaryAddTxInEvent{
		Value: inputValue, TokenID: tokenID, Blinding: blindingBytes,
	}); err != nil {
		return err
	}

	if _, err := a.update(&framing.TxSummaryBuildEvent{}); err != nil {
		return err
	}

	out, err := a.update(framing.ApprovalEvent{Approved: true})
	if err != nil {
		return err
	}
	ready := out.(framing.OutputSummaryReady)
	printBalances(ready.Fee, ready.Tombstone, ready.Balances, ready.Recipients)
	return nil
}

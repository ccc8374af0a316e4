package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/Fantasim/hdada/internal/address"
	"github.com/Fantasim/hdada/internal/challenge"
	"github.com/Fantasim/hdada/internal/hdkey"
	"github.com/Fantasim/hdada/internal/models"
	"github.com/Fantasim/hdada/internal/signer"
	"github.com/Fantasim/hdada/internal/wallet"
)

func runSign(args []string) error {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	account := fs.Uint("account", 0, "Account index")
	chain := fs.String("chain", string(models.ChainExternal), "Chain: external, internal or stake")
	index := fs.Uint("index", 0, "Address index")
	message := fs.String("message", "", "Message to sign")
	messageFile := fs.String("message-file", "", "Sign the raw contents of this file instead")
	encoding := fs.String("encoding", signer.EncodingUTF8, "Encoding of -message: utf8, hex or base64")
	fs.Parse(args)

	cfg, err := loadCLIConfig()
	if err != nil {
		return err
	}

	chainIndex, ok := models.Chain(*chain).Index()
	if !ok {
		return fmt.Errorf("unknown chain %q", *chain)
	}
	msg, err := messageBytes(*message, *messageFile, *encoding)
	if err != nil {
		return err
	}

	keys, err := newKeyService(cfg)
	if err != nil {
		return err
	}
	result, err := keys.Sign(context.Background(), uint32(*account), chainIndex, uint32(*index), msg)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func messageBytes(message, file, encoding string) ([]byte, error) {
	switch {
	case message != "" && file != "":
		return nil, errors.New("use either -message or -message-file")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		return data, nil
	default:
		return signer.DecodeMessage(message, encoding)
	}
}

type verifyResult struct {
	Valid           bool  `json:"valid"`
	ControlsAddress *bool `json:"controlsAddress,omitempty"`
}

func runVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	pubkey := fs.String("pubkey", "", "Hex Ed25519 public key (required)")
	signature := fs.String("signature", "", "Hex or base64 signature (required)")
	message := fs.String("message", "", "Signed message")
	messageFile := fs.String("message-file", "", "Verify against the raw contents of this file instead")
	encoding := fs.String("encoding", signer.EncodingUTF8, "Encoding of -message: utf8, hex or base64")
	addr := fs.String("address", "", "Also report whether the key controls this address")
	batch := fs.String("batch", "", "Verify a JSON array of {publicKey, message, signature, address} items from this file")
	fs.Parse(args)

	if *batch != "" {
		return verifyBatchFile(*batch)
	}
	if *pubkey == "" || *signature == "" {
		return errors.New("-pubkey and -signature are required")
	}

	pub, err := hdkey.ParsePublicKey(*pubkey)
	if err != nil {
		return err
	}
	sig, err := signer.ParseSignature(*signature)
	if err != nil {
		return err
	}
	msg, err := messageBytes(*message, *messageFile, *encoding)
	if err != nil {
		return err
	}

	res := verifyResult{Valid: signer.Verify(pub, msg, sig)}
	if *addr != "" {
		a, err := address.Parse(*addr)
		if err != nil {
			return err
		}
		controls := challenge.Controls(a, pub)
		res.ControlsAddress = &controls
	}

	if err := printJSON(res); err != nil {
		return err
	}
	if !res.Valid {
		os.Exit(2)
	}
	return nil
}

// verifyBatchFile checks every item of a JSON array and prints the report.
// The exit status is 2 when any item is invalid.
func verifyBatchFile(path string) error {
	items, err := loadVerifyItems(path)
	if err != nil {
		return err
	}

	report := challenge.VerifyBatch(items)
	if err := printJSON(report); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d/%d valid\n", report.Valid, report.Total)
	if report.Invalid > 0 {
		os.Exit(2)
	}
	return nil
}

func loadVerifyItems(path string) ([]models.VerifyItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var items []models.VerifyItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s contains no items", path)
	}
	return items, nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: hdada inspect <address>")
	}
	addr, err := address.Parse(fs.Arg(0))
	if err != nil {
		return err
	}
	return printJSON(wallet.InspectAddress(addr))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

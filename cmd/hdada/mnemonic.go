package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Fantasim/hdada/internal/address"
	"github.com/Fantasim/hdada/internal/config"
	"github.com/Fantasim/hdada/internal/hdkey"
	"github.com/Fantasim/hdada/internal/keystore"
	"github.com/Fantasim/hdada/internal/logging"
	"github.com/Fantasim/hdada/internal/mnemonic"
)

func runMnemonic(args []string) error {
	fs := flag.NewFlagSet("mnemonic", flag.ExitOnError)
	words := fs.Int("words", config.DefaultWordCount, "Word count: 12, 15 or 24")
	fs.Parse(args)

	m, err := mnemonic.Generate(*words)
	if err != nil {
		return err
	}
	defer m.Zero()

	fmt.Println(m.String())
	return nil
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	file := fs.String("file", "", "Read the mnemonic from this file (default: stdin)")
	fs.Parse(args)

	if err := logging.SetupCLI("warn"); err != nil {
		return err
	}

	phrase, err := readPhrase(*file)
	if err != nil {
		return err
	}

	m, err := mnemonic.Validate(phrase)
	if err != nil {
		var detail *mnemonic.InvalidMnemonicError
		if errors.As(err, &detail) && detail.Reason == mnemonic.ReasonChecksum {
			fmt.Fprintln(os.Stderr, "every word is known: check the word order or a mistyped word")
		}
		return err
	}
	defer m.Zero()

	fmt.Printf("valid %d-word mnemonic\n", m.WordCount())
	return nil
}

func runKeystore(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: hdada keystore <create|list|delete> [flags]")
	}

	cfg, err := loadCLIConfig()
	if err != nil {
		return err
	}

	switch args[0] {
	case "create":
		return keystoreCreate(cfg, args[1:])
	case "list":
		return keystoreList(cfg, args[1:])
	case "delete":
		return keystoreDelete(cfg, args[1:])
	default:
		return fmt.Errorf("unknown keystore command %q", args[0])
	}
}

func keystoreCreate(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("keystore create", flag.ExitOnError)
	name := fs.String("name", cfg.KeystoreName, "Wallet name")
	file := fs.String("file", "", "Import the mnemonic from this file (\"-\" for stdin)")
	generate := fs.Bool("generate", false, "Generate a new mnemonic instead of importing one")
	words := fs.Int("words", config.DefaultWordCount, "Word count when generating")
	fs.Parse(args)

	if *name == "" {
		return errors.New("-name is required")
	}

	var (
		m   mnemonic.Mnemonic
		err error
	)
	if *generate {
		m, err = mnemonic.Generate(*words)
	} else {
		var phrase string
		if phrase, err = readPhrase(*file); err == nil {
			m, err = mnemonic.Validate(phrase)
		}
	}
	if err != nil {
		return err
	}
	defer m.Zero()

	network, err := networkOf(cfg)
	if err != nil {
		return err
	}
	stake, err := stakeLabel(m, cfg.Passphrase, network)
	if err != nil {
		return err
	}

	password := []byte(cfg.KeystorePassword)
	if len(password) == 0 {
		if password, err = promptNewSecret("New keystore password: "); err != nil {
			return err
		}
	}
	defer clear(password)

	ks, err := keystore.New(cfg.KeystoreDir)
	if err != nil {
		return err
	}
	if err := ks.Create(*name, m, password, stake); err != nil {
		return err
	}

	if *generate {
		fmt.Fprintln(os.Stderr, "Write down this mnemonic. It is the only backup of the wallet:")
		fmt.Println(m.String())
	}
	fmt.Fprintf(os.Stderr, "wallet %q stored in %s (stake address %s)\n", *name, cfg.KeystoreDir, stake)
	return nil
}

// stakeLabel derives the account 0 stake address, stored in clear next to the
// encrypted mnemonic so wallets can be told apart without a password.
func stakeLabel(m mnemonic.Mnemonic, passphrase string, network address.Network) (string, error) {
	root := hdkey.RootKeyFromMnemonic(m, passphrase)
	defer root.Zero()

	key, err := hdkey.DerivePath(root, hdkey.AddressPath(0, hdkey.ChainStake, 0))
	if err != nil {
		return "", err
	}
	defer key.Zero()

	addr, err := address.StakeAddress(key.PublicKey(), network)
	if err != nil {
		return "", err
	}
	return addr.String(), nil
}

func keystoreList(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("keystore list", flag.ExitOnError)
	fs.Parse(args)

	ks, err := keystore.New(cfg.KeystoreDir)
	if err != nil {
		return err
	}
	entries, err := ks.List()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tWORDS\tCREATED\tSTAKE ADDRESS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", e.Name, e.WordCount, e.CreatedAt.Format("2006-01-02 15:04"), e.StakeAddress)
	}
	return tw.Flush()
}

func keystoreDelete(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("keystore delete", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	fs.Parse(args)

	if *name == "" {
		return errors.New("-name is required")
	}
	ks, err := keystore.New(cfg.KeystoreDir)
	if err != nil {
		return err
	}
	return ks.Delete(*name)
}

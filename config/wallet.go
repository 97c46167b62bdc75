package config

import (
	"encoding/hex"
	"flag"
	"fmt"
	"strconv"

	"github.com/tinychain-project/tinychain/internal/wallet"
	"github.com/tinychain-project/tinychain/pkg/types"
)

// WalletConfig is the wallet's text-based key-value document (spec.md §6):
// owned keypairs, a recipient address book, the default node endpoint, and
// a fee policy.
type WalletConfig struct {
	MyKeys      []wallet.KeyPair
	Contacts    []wallet.Contact
	DefaultNode string
	FeeConfig   wallet.FeePolicy
}

// WalletFlags is the wallet REPL's command-line configuration (spec.md §6).
type WalletFlags struct {
	GenerateConfig bool
	Output         string
	ConfigPath     string
	NodeAddr       string
}

// ParseWalletFlags parses the wallet CLI surface: generate-config --output
// PATH produces a dummy config; otherwise --config PATH and --node ADDR
// select the config file and override its default node endpoint.
func ParseWalletFlags(args []string) (*WalletFlags, error) {
	f := &WalletFlags{}
	if len(args) > 0 && args[0] == "generate-config" {
		f.GenerateConfig = true
		fs := flag.NewFlagSet("generate-config", flag.ContinueOnError)
		fs.StringVar(&f.Output, "output", "wallet.conf", "path to write the generated config")
		if err := fs.Parse(args[1:]); err != nil {
			return nil, err
		}
		return f, nil
	}

	fs := flag.NewFlagSet("tinywallet", flag.ContinueOnError)
	fs.StringVar(&f.ConfigPath, "config", "wallet.conf", "path to the wallet config file")
	fs.StringVar(&f.NodeAddr, "node", "", "override the config's default node endpoint")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// GenerateDummyConfig writes a WalletConfig with one freshly-generated
// keypair, an empty address book, the local node's default endpoint, and a
// zero percent fee — enough scaffolding for `generate-config --output PATH`
// to hand a user a file they can edit by hand.
func GenerateDummyConfig(path string) error {
	priv, err := wallet.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("generate dummy key: %w", err)
	}
	cfg := &WalletConfig{
		MyKeys:      []wallet.KeyPair{priv},
		DefaultNode: fmt.Sprintf("127.0.0.1:%d", DefaultPort),
		FeeConfig:   wallet.Percent(0),
	}
	return SaveWalletConfig(path, cfg)
}

// LoadWalletConfig reads and parses a wallet config document at path.
func LoadWalletConfig(path string) (*WalletConfig, error) {
	values, err := loadKV(path)
	if err != nil {
		return nil, err
	}

	cfg := &WalletConfig{DefaultNode: values["default_node"]}

	switch values["fee_config.type"] {
	case "percent":
		v, err := strconv.ParseUint(values["fee_config.value"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("fee_config.value: %w", err)
		}
		cfg.FeeConfig = wallet.Percent(v)
	default:
		v, _ := strconv.ParseUint(values["fee_config.value"], 10, 64)
		cfg.FeeConfig = wallet.Fixed(v)
	}

	keyCount, _ := strconv.Atoi(values["my_keys.count"])
	for i := 0; i < keyCount; i++ {
		prefix := fmt.Sprintf("my_keys.%d.", i)
		pub, err := parsePublicKey(values[prefix+"public"])
		if err != nil {
			return nil, fmt.Errorf("%spublic: %w", prefix, err)
		}
		priv, err := parsePrivateKey(values[prefix+"private"])
		if err != nil {
			return nil, fmt.Errorf("%sprivate: %w", prefix, err)
		}
		cfg.MyKeys = append(cfg.MyKeys, wallet.KeyPair{
			Name:    values[prefix+"name"],
			Public:  pub,
			Private: priv,
		})
	}

	contactCount, _ := strconv.Atoi(values["contacts.count"])
	for i := 0; i < contactCount; i++ {
		prefix := fmt.Sprintf("contacts.%d.", i)
		key, err := parsePublicKey(values[prefix+"key"])
		if err != nil {
			return nil, fmt.Errorf("%skey: %w", prefix, err)
		}
		cfg.Contacts = append(cfg.Contacts, wallet.Contact{
			Name: values[prefix+"name"],
			Key:  key,
		})
	}

	return cfg, nil
}

// SaveWalletConfig writes cfg to path in the "key = value" document format.
func SaveWalletConfig(path string, cfg *WalletConfig) error {
	var pairs [][2]string
	pairs = append(pairs, [2]string{"default_node", cfg.DefaultNode})

	feeType := "fixed"
	if cfg.FeeConfig.Type == wallet.FeePercent {
		feeType = "percent"
	}
	pairs = append(pairs, [2]string{"fee_config.type", feeType})
	pairs = append(pairs, [2]string{"fee_config.value", strconv.FormatUint(cfg.FeeConfig.Value, 10)})

	pairs = append(pairs, [2]string{"my_keys.count", strconv.Itoa(len(cfg.MyKeys))})
	for i, kp := range cfg.MyKeys {
		prefix := fmt.Sprintf("my_keys.%d.", i)
		pairs = append(pairs,
			[2]string{prefix + "name", kp.Name},
			[2]string{prefix + "public", kp.Public.String()},
			[2]string{prefix + "private", hex.EncodeToString(kp.Private[:])},
		)
	}

	pairs = append(pairs, [2]string{"contacts.count", strconv.Itoa(len(cfg.Contacts))})
	for i, c := range cfg.Contacts {
		prefix := fmt.Sprintf("contacts.%d.", i)
		pairs = append(pairs,
			[2]string{prefix + "name", c.Name},
			[2]string{prefix + "key", c.Key.String()},
		)
	}

	return writeKV(path, pairs)
}

func parsePublicKey(s string) (types.PublicKey, error) {
	var pk types.PublicKey
	raw, err := hex.DecodeString(s)
	if err != nil {
		return pk, err
	}
	if len(raw) != types.PublicKeySize {
		return pk, fmt.Errorf("public key must be %d bytes, got %d", types.PublicKeySize, len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}

func parsePrivateKey(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("private key must be 32 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

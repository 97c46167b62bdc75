// Command tinywallet is spec.md §4.10's wallet REPL: it fetches UTXOs for
// every owned key, builds and submits transactions, and reports balances.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tinychain-project/tinychain/config"
	"github.com/tinychain-project/tinychain/internal/p2p"
	"github.com/tinychain-project/tinychain/internal/wallet"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tinywallet:", err)
		os.Exit(1)
	}
}

func run() error {
	flags, err := config.ParseWalletFlags(os.Args[1:])
	if err != nil {
		return err
	}

	if flags.GenerateConfig {
		if err := config.GenerateDummyConfig(flags.Output); err != nil {
			return fmt.Errorf("generate config: %w", err)
		}
		fmt.Printf("wrote a dummy config to %s\n", flags.Output)
		return nil
	}

	cfg, err := config.LoadWalletConfig(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", flags.ConfigPath, err)
	}
	nodeAddr := cfg.DefaultNode
	if flags.NodeAddr != "" {
		nodeAddr = flags.NodeAddr
	}
	if nodeAddr == "" {
		return fmt.Errorf("no node address: set default_node in %s or pass --node", flags.ConfigPath)
	}

	host, err := p2p.New(p2p.Config{ListenAddr: "127.0.0.1", Port: 0})
	if err != nil {
		return fmt.Errorf("start p2p host: %w", err)
	}
	defer host.Close()

	client := wallet.NewClient(host, nodeAddr, cfg.MyKeys, cfg.FeeConfig)
	repl(client, cfg.Contacts)
	return nil
}

// repl implements spec.md §4.10's three REPL commands: balance, send <name>
// <amount>, exit. All errors surface directly to the REPL (spec.md §9).
func repl(client *wallet.Client, contacts []wallet.Contact) {
	byName := make(map[string]wallet.Contact, len(contacts))
	for _, c := range contacts {
		byName[c.Name] = c
	}

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			fmt.Print("> ")
			continue
		}

		switch fields[0] {
		case "exit":
			return

		case "balance":
			if err := client.FetchUTXOs(ctx); err != nil {
				fmt.Println("error:", err)
				break
			}
			b := client.Balance()
			fmt.Printf("spendable: %d, reserved: %d\n", b.Spendable, b.Reserved)

		case "send":
			if len(fields) != 3 {
				fmt.Println("error: usage: send <name> <amount>")
				break
			}
			contact, ok := byName[fields[1]]
			if !ok {
				fmt.Printf("error: unknown contact %q\n", fields[1])
				break
			}
			amount, err := strconv.ParseUint(fields[2], 10, 64)
			if err != nil {
				fmt.Println("error: invalid amount:", err)
				break
			}
			if err := client.FetchUTXOs(ctx); err != nil {
				fmt.Println("error:", err)
				break
			}
			tx, err := client.CreateTransaction(contact.Key, amount)
			if err != nil {
				fmt.Println("error:", err)
				break
			}
			if err := client.SendTransaction(ctx, tx); err != nil {
				fmt.Println("error:", err)
				break
			}
			fmt.Println("sent")

		default:
			fmt.Printf("error: unknown command %q\n", fields[0])
		}

		fmt.Print("> ")
	}
}

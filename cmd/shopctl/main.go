// shopctl keeps a shopper's cart on disk and starts checkout against the
// storefront API.
//
//	shopctl cart add -variant v-1 -name Silla -model Negra -price 125000 -qty 1 -stock 4
//	shopctl cart inc v-1
//	shopctl cart ls
//	shopctl checkout -shipping local -name "Ana Pérez" -phone 5550001111 ...
//	shopctl cart clear
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/BosskingGM/office-gama/internal/cart"
	"github.com/BosskingGM/office-gama/internal/core/domain"
)

const usage = `usage:
  shopctl cart add -variant ID -name NAME [-model MODEL] -price MINOR -qty N -stock N [-image URL]
  shopctl cart inc|dec|rm VARIANT_ID
  shopctl cart clear
  shopctl cart ls
  shopctl checkout -shipping pickup|local|national [-name ...] [-phone ...] [-address ...] [-city ...] [-postal ...]

environment:
  SHOPCTL_CART   cart file (default ~/.shopctl/cart.json)
  SHOPCTL_API    storefront API base URL (default http://localhost:8080)
  SHOPCTL_TOKEN  bearer token of the signed-in shopper`

var errUsage = errors.New(usage)

func main() {
	log.SetFlags(0)
	if err := run(context.Background(), os.Args[1:], os.Getenv, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, getenv func(string) string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	store, err := cart.New(cart.NewFileStorage(cartPath(getenv)))
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	switch args[0] {
	case "cart":
		return runCart(store, args[1:], out)
	case "checkout":
		client := newAPIClient(envOr(getenv, "SHOPCTL_API", "http://localhost:8080"), getenv("SHOPCTL_TOKEN"))
		return runCheckout(ctx, store, client, args[1:], out)
	default:
		return errUsage
	}
}

func runCart(store *cart.Store, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch cmd := args[0]; cmd {
	case "add":
		fs := flag.NewFlagSet("cart add", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		var line domain.CartLine
		fs.StringVar(&line.VariantID, "variant", "", "variant id")
		fs.StringVar(&line.ProductName, "name", "", "product name")
		fs.StringVar(&line.ModelLabel, "model", "", "model label")
		fs.Int64Var(&line.UnitPrice, "price", 0, "unit price in minor units")
		fs.IntVar(&line.Quantity, "qty", 1, "quantity")
		fs.IntVar(&line.StockCeiling, "stock", 0, "available stock")
		fs.StringVar(&line.ImageRef, "image", "", "image url")
		if err := fs.Parse(args[1:]); err != nil {
			return fmt.Errorf("%v\n%s", err, usage)
		}
		if err := store.Add(line); err != nil {
			return err
		}
	case "inc", "dec", "rm":
		if len(args) != 2 {
			return errUsage
		}
		var err error
		switch cmd {
		case "inc":
			err = store.Increase(args[1])
		case "dec":
			err = store.Decrease(args[1])
		default:
			err = store.Remove(args[1])
		}
		if err != nil {
			return err
		}
	case "clear":
		if err := store.Clear(); err != nil {
			return err
		}
	case "ls":
	default:
		return errUsage
	}

	return printCart(store, out)
}

func runCheckout(ctx context.Context, store *cart.Store, client *apiClient, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	shipping := fs.String("shipping", string(domain.ShippingPickup), "pickup, local or national")
	var customer domain.Customer
	fs.StringVar(&customer.FullName, "name", "", "recipient full name")
	fs.StringVar(&customer.Phone, "phone", "", "contact phone")
	fs.StringVar(&customer.Address, "address", "", "street address")
	fs.StringVar(&customer.City, "city", "", "city")
	fs.StringVar(&customer.PostalCode, "postal", "", "postal code")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v\n%s", err, usage)
	}

	lines := store.Snapshot()
	if len(lines) == 0 {
		return errors.New("cart is empty")
	}

	resp, err := client.Checkout(ctx, checkoutRequest{
		Items:          lines,
		ShippingMethod: domain.ShippingMethod(*shipping),
		Customer:       customer,
	})
	if err != nil {
		return err
	}

	// The cart stays until the shopper confirms the purchase went through.
	fmt.Fprintf(out, "Shipping: %s\n", domain.FormatMoney(resp.ShippingCost, domain.DefaultCurrency))
	fmt.Fprintf(out, "Total:    %s\n", domain.FormatMoney(store.Subtotal()+resp.ShippingCost, domain.DefaultCurrency))
	fmt.Fprintf(out, "Pay at:   %s\n", resp.URL)
	fmt.Fprintln(out, "Run `shopctl cart clear` once the payment is confirmed.")
	return nil
}

func printCart(store *cart.Store, out io.Writer) error {
	lines := store.Snapshot()
	if len(lines) == 0 {
		_, err := fmt.Fprintln(out, "cart is empty")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tPRODUCT\tQTY\tSTOCK\tAMOUNT")
	for _, l := range lines {
		name := l.ProductName
		if l.ModelLabel != "" {
			name += " - " + l.ModelLabel
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", l.VariantID, name, l.Quantity, l.StockCeiling,
			domain.FormatMoney(l.Amount(), domain.DefaultCurrency))
	}
	fmt.Fprintf(w, "\t\t\tSubtotal\t%s\n", domain.FormatMoney(store.Subtotal(), domain.DefaultCurrency))
	return w.Flush()
}

func cartPath(getenv func(string) string) string {
	if p := getenv("SHOPCTL_CART"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "cart.json"
	}
	return filepath.Join(home, ".shopctl", "cart.json")
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

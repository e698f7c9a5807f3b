// Command storefront is the shopper's client for the storefront services. It
// lists products, edits the persisted cart and places orders from the
// command line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/hamperland/storefront/internal/cart"
	"github.com/hamperland/storefront/internal/checkout"
	"github.com/hamperland/storefront/internal/kv"
	"github.com/hamperland/storefront/internal/orders"
	"github.com/hamperland/storefront/internal/products"
	"github.com/hamperland/storefront/internal/storefront"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"
)

const (
	defaultStateDir = ".hamperland"
	sessionTTL      = 30 * time.Minute
)

const usage = `usage: storefront <command> [arguments]

commands:
  products                     list the catalog
  cart                         show the cart
  add <product-id> [qty]       add a product to the cart
  update <product-id> <qty>    change the quantity of a cart line
  remove <product-id>          drop a cart line
  checkout [flags]             place an order for the cart
  order <order-id>             show a placed order
  done <order-id>              leave the confirmation of an order

REDIS_URL selects Redis for the cart and session; otherwise state is kept
in files under STATE_DIR.
`

var errUsage = errors.New("invalid arguments")

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic(fmt.Errorf("could not load .env: %w", err))
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, logger); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// stores are the cart's durable store and the session store the order
// confirmation is kept in.
type stores struct {
	cart    kv.Store
	session kv.Store
	closers []io.Closer
}

func (s *stores) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			slog.Warn("Could not close store", "error", err)
		}
	}
}

func openStores(ctx context.Context) (*stores, error) {
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		durable, err := kv.NewRedisStore(ctx, kv.RedisStoreOptions{RedisURL: redisURL, Namespace: "hamperland"})
		if err != nil {
			return nil, err
		}
		session, err := kv.NewRedisStore(ctx, kv.RedisStoreOptions{RedisURL: redisURL, Namespace: "hamperland:session", TTL: sessionTTL})
		if err != nil {
			durable.Close()
			return nil, err
		}
		return &stores{cart: durable, session: session, closers: []io.Closer{durable, session}}, nil
	}

	dir := os.Getenv("STATE_DIR")
	if dir == "" {
		dir = defaultStateDir
	}
	durable, err := kv.NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	session, err := kv.NewFileStore(filepath.Join(dir, "session"))
	if err != nil {
		return nil, err
	}
	return &stores{cart: durable, session: session}, nil
}

func run(ctx context.Context, args []string, out io.Writer, logger *slog.Logger) error {
	if len(args) == 0 {
		return errUsage
	}

	client, err := storefront.NewClientFromEnv(logger)
	if err != nil {
		return err
	}
	st, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	c, err := cart.Load(ctx, st.cart)
	if err != nil {
		return err
	}
	co := storefront.NewCheckout(client, c, st.session, logger)

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "products":
		list, err := client.FetchProducts(ctx)
		if err != nil {
			return err
		}
		printProducts(out, list)
		return nil

	case "cart":
		printCart(out, c)
		return nil

	case "add":
		if len(rest) < 1 || len(rest) > 2 {
			return errUsage
		}
		qty := 1
		if len(rest) == 2 {
			if qty, err = parseQty(rest[1]); err != nil {
				return err
			}
		}
		product, err := findProduct(ctx, client, rest[0])
		if err != nil {
			return err
		}
		if err := c.AddItem(ctx, *product, qty); err != nil {
			return err
		}
		printCart(out, c)
		return nil

	case "update":
		if len(rest) != 2 {
			return errUsage
		}
		qty, err := parseQty(rest[1])
		if err != nil {
			return err
		}
		if err := c.UpdateQty(ctx, rest[0], qty); err != nil {
			return err
		}
		printCart(out, c)
		return nil

	case "remove":
		if len(rest) != 1 {
			return errUsage
		}
		if err := c.RemoveItem(ctx, rest[0]); err != nil {
			return err
		}
		printCart(out, c)
		return nil

	case "checkout":
		form, err := parseForm(rest, out)
		if err != nil {
			return err
		}
		confirmation, err := co.PlaceOrder(ctx, *form)
		var validationErr *checkout.ValidationError
		if errors.As(err, &validationErr) {
			for _, formErr := range co.Errors.Active() {
				fmt.Fprintln(out, formErr.Message)
			}
			return err
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Order %s placed\n", confirmation.OrderID)
		printOrder(out, confirmation.Order)
		return nil

	case "order":
		if len(rest) != 1 {
			return errUsage
		}
		confirmation, err := co.Confirmation(ctx, rest[0])
		if err != nil {
			return err
		}
		printOrder(out, confirmation.Order)
		return nil

	case "done":
		if len(rest) != 1 {
			return errUsage
		}
		return co.DismissConfirmation(ctx, rest[0])
	}

	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func parseQty(s string) (int, error) {
	qty, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: quantity %q is not a number", errUsage, s)
	}
	return qty, nil
}

func parseForm(args []string, out io.Writer) (*storefront.Form, error) {
	var form storefront.Form
	var payment string

	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&form.ShippingAddress.Name, "name", "", "Full name")
	fs.StringVar(&form.ShippingAddress.Phone, "phone", "", "10 digit phone number")
	fs.StringVar(&form.ShippingAddress.Address, "address", "", "Street address")
	fs.StringVar(&form.ShippingAddress.City, "city", "", "City")
	fs.StringVar(&form.ShippingAddress.State, "state", "", "State")
	fs.StringVar(&form.ShippingAddress.Pincode, "pincode", "", "6 digit pincode")
	fs.StringVar(&payment, "payment", string(orders.PaymentCOD), "Payment method, cod or upi")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}

	form.PaymentMethod = orders.PaymentMethod(payment)
	return &form, nil
}

func findProduct(ctx context.Context, client *storefront.Client, id string) (*products.Product, error) {
	list, err := client.FetchProducts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, fmt.Errorf("product %q not found", id)
}

func money(price float64) string {
	return decimal.NewFromFloat(price).StringFixed(2)
}

func printProducts(out io.Writer, list []products.Product) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK")
	for _, p := range list {
		stock := "-"
		if n, tracked := p.StockLimit(); tracked {
			stock = strconv.Itoa(n)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, money(p.Price), stock)
	}
	w.Flush()
}

func printCart(out io.Writer, c *cart.Cart) {
	if c.Len() == 0 {
		fmt.Fprintln(out, "Cart is empty")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tQTY\tPRICE")
	for _, item := range c.Items() {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", item.ID, item.Name, item.Qty, money(item.Price))
	}
	fmt.Fprintf(w, "\t\t%d\t%s\n", c.TotalItems(), c.TotalPrice().StringFixed(2))
	w.Flush()
}

func printOrder(out io.Writer, order orders.Order) {
	fmt.Fprintf(out, "Order %s %s (%s, payment %s)\n", order.OrderID, order.OrderStatus, order.PaymentMethod, order.PaymentStatus)
	for _, item := range order.Items {
		fmt.Fprintf(out, "  %d x %s @ %s\n", item.Qty, item.Name, money(item.Price))
	}
	fmt.Fprintf(out, "Total: %d items, %s\n", order.Totals.TotalItems, money(order.Totals.TotalPrice))
	addr := order.ShippingAddress
	fmt.Fprintf(out, "Ship to: %s, %s, %s, %s %s (%s)\n", addr.Name, addr.Address, addr.City, addr.State, addr.Pincode, addr.Phone)
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/dalfonso89/currency-converter/internal/models"

	"github.com/sirupsen/logrus"
)

// ErrExit is returned by Execute when the user asks to quit
var ErrExit = errors.New("exit requested")

const defaultBaseCurrency = "USD"

// RatesClient is the subset of the exchange rate client the dispatcher needs
type RatesClient interface {
	FetchAllRates(ctx context.Context, baseCurrency string) (models.RateSet, error)
	FetchRate(ctx context.Context, from, to string) (models.RatePair, error)
	Convert(ctx context.Context, from, to string, amount float64) (models.ConversionResult, error)
}

// KeyStore persists the API key
type KeyStore interface {
	Load() (string, error)
	Save(apiKey string) error
	Remove() error
}

type command int

const (
	commandHelp command = iota
	commandAllRates
	commandRate
	commandConvert
	commandKey
	commandExit
)

var commandNames = map[string]command{
	"help":    commandHelp,
	"all":     commandAllRates,
	"rates":   commandAllRates,
	"list":    commandAllRates,
	"rate":    commandRate,
	"convert": commandConvert,
	"key":     commandKey,
	"exit":    commandExit,
}

// Dispatcher maps a command token to an operation and prints the outcome
type Dispatcher struct {
	client RatesClient
	keys   KeyStore
	out    io.Writer
	logger *logrus.Logger
}

// NewDispatcher creates a new dispatcher writing to out
func NewDispatcher(client RatesClient, keys KeyStore, out io.Writer, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		client: client,
		keys:   keys,
		out:    out,
		logger: logger,
	}
}

// Execute runs one command. The only error it returns is ErrExit; every other
// failure is printed for the user.
func (d *Dispatcher) Execute(ctx context.Context, name string, args []string) error {
	cmd, ok := commandNames[name]
	if !ok {
		d.printf("Command not recognized. Type help for a list of commands.\n")
		return nil
	}

	d.logger.WithFields(logrus.Fields{"command": name, "args": len(args)}).Debug("Dispatching command")

	switch cmd {
	case commandHelp:
		d.help()
	case commandAllRates:
		d.allRates(ctx, args)
	case commandRate:
		d.rate(ctx, args)
	case commandConvert:
		d.convert(ctx, args)
	case commandKey:
		d.key(args)
	case commandExit:
		return ErrExit
	}
	return nil
}

func (d *Dispatcher) help() {
	d.printf("==== Help ====\n")
	d.printf("Available commands:\n")
	d.printf("help - Get a list of commands\n")
	d.printf("all [BASE_CURRENCY] - Get all exchange rates for base currency (default is USD)\n")
	d.printf("rate [CURRENCY_1] [CURRENCY_2] - Get the exchange rate between two currencies\n")
	d.printf("convert [CURRENCY_FROM] [CURRENCY_TO] [AMOUNT] - Convert an amount from one currency to another\n")
	d.printf("key [view/set/remove] [API_KEY] - View, set, or remove the API key\n")
	d.printf("exit - Exit the program\n")
	d.printf("==============\n")
}

func (d *Dispatcher) allRates(ctx context.Context, args []string) {
	baseCurrency := defaultBaseCurrency
	if len(args) == 0 {
		d.printf("Base currency not provided. Using %s as the base currency.\n", defaultBaseCurrency)
	} else {
		baseCurrency = args[0]
	}

	d.printf("Getting all exchange rates for %s...\n", baseCurrency)
	rateSet, err := d.client.FetchAllRates(ctx, baseCurrency)
	if err != nil {
		d.failed(ctx, "Error getting exchange rates", err)
		return
	}

	codes := make([]string, 0, len(rateSet.ConversionRates))
	for code := range rateSet.ConversionRates {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	d.printf("Exchange rates for %s:\n", rateSet.BaseCode)
	for _, code := range codes {
		d.printf("%s: %s\n", code, models.FormatAmount(rateSet.ConversionRates[code]))
	}
}

func (d *Dispatcher) rate(ctx context.Context, args []string) {
	if len(args) != 2 {
		d.printf("Please provide two currencies to get the exchange rate between.\n")
		d.printf("[Example: rate USD EUR]\n")
		return
	}

	d.printf("Getting the exchange rate between %s and %s...\n", args[0], args[1])
	ratePair, err := d.client.FetchRate(ctx, args[0], args[1])
	if err != nil {
		d.failed(ctx, "Error getting exchange rate", err)
		return
	}

	d.printf("Exchange rate from %s to %s: %s\n", ratePair.BaseCode, ratePair.TargetCode, models.FormatAmount(ratePair.ConversionRate))
}

func (d *Dispatcher) convert(ctx context.Context, args []string) {
	if len(args) < 3 {
		d.printf("Please provide a currency to convert from, a currency to convert to, and an amount to convert.\n")
		d.printf("[Example: convert USD EUR 100]\n")
		return
	}

	from, to := args[0], args[1]
	amount, err := strconv.ParseFloat(args[2], 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		d.printf("Invalid amount provided. Please provide a valid number.\n")
		return
	}

	formattedAmount := models.FormatAmount(amount)
	d.printf("Converting %s %s to %s...\n", formattedAmount, from, to)
	conversion, err := d.client.Convert(ctx, from, to, amount)
	if err != nil {
		d.failed(ctx, "Error converting currency", err)
		return
	}

	d.printf("%s %s is equal to %s %s.\n", formattedAmount, from, models.FormatAmount(conversion.ConversionResult), to)
	d.printf("Exchange rate used: %s\n", models.FormatAmount(conversion.ConversionRate))
}

func (d *Dispatcher) key(args []string) {
	if len(args) == 0 {
		d.printf("Please provide a command to view, set, or remove the API key.\n")
		d.printf("[Example: key view]\n")
		return
	}

	switch args[0] {
	case "view":
		apiKey, err := d.keys.Load()
		if err != nil {
			d.printf("Error reading API key: %v\n", err)
			return
		}
		d.printf("API key: %s\n", apiKey)
	case "set":
		if len(args) < 2 {
			d.printf("Please provide an API key to set.\n")
			d.printf("[Example: key set YOUR_API_KEY]\n")
			return
		}
		if err := d.keys.Save(args[1]); err != nil {
			d.printf("Error setting API key: %v\n", err)
			return
		}
		d.printf("API key set.\n")
	case "remove":
		if err := d.keys.Remove(); err != nil {
			d.printf("Error removing API key: %v\n", err)
			return
		}
		d.printf("API key removed.\n")
	default:
		d.printf("Command not recognized. Please provide a command to view, set, or remove the API key.\n")
		d.printf("[Example: key view]\n")
	}
}

// failed prints a request error unless ctx is done, in which case the
// caller is shutting down and only the exit message is shown.
func (d *Dispatcher) failed(ctx context.Context, prefix string, err error) {
	if ctx.Err() != nil {
		d.logger.WithError(err).Debug("Request abandoned on shutdown")
		return
	}
	d.printf("%s: %v\n", prefix, err)
}

func (d *Dispatcher) printf(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(d.out, format, args...); err != nil {
		d.logger.Errorf("Failed to write output: %v", err)
	}
}

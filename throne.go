package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/BourgeoisBear/throne/aggapi"
	"github.com/BourgeoisBear/throne/fetch"
	"github.com/BourgeoisBear/throne/geo"
	"github.com/BourgeoisBear/throne/rdap"
	"github.com/BourgeoisBear/throne/ripestat"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

func (m *Modes) AnsiMsg(iWri io.Writer, title, msg string, attrs ...color.Attribute) (int, error) {

	if m.Color && (len(attrs) > 0) {
		c := color.New(attrs...)
		c.EnableColor()
		title = c.Sprint(title)
	}

	if len(msg) > 0 {
		return iWri.Write([]byte(title + ": " + msg + "\n"))
	}

	return iWri.Write([]byte(title + "\n"))
}

func (m *Modes) printErr(iWri io.Writer, err error, cfgPath string) {

	if err == nil {
		return
	}

	m.AnsiMsg(iWri, "error", err.Error(), color.FgRed, color.Bold)

	if errors.Is(err, aggapi.ErrNoAPIKey) {
		m.AnsiMsg(iWri, "hint", fmt.Sprintf(
			"set throne_key in %s or export %s; accounts are created at %sauth/login",
			cfgPath, EnvAPIKey, aggapi.BaseURL,
		), color.FgYellow)
	}
}

// Endpoints override the public service URLs. Empty fields keep the
// defaults.
type Endpoints struct {
	Bootstrap string
	RIPEstat  string
	API       string
	Geo       string
}

func NewServices(hc *http.Client, log *slog.Logger, cfg Config, ep Endpoints) *Services {
	fc := fetch.New(hc, log)
	return &Services{
		RDAP: rdap.NewQuerier(fc, ep.Bootstrap),
		Stat: ripestat.New(fc, ep.RIPEstat),
		Agg:  aggapi.New(cfg.Key, ep.API, fc),
		Geo:  geo.New(fc, ep.Geo),
		Log:  log.With("name", "throne"),
	}
}

func (m *Modes) doREPL(base CmdExecParams, cmd string, timeout time.Duration) error {

	cmd = strings.TrimSpace(cmd)
	if len(cmd) == 0 {
		return nil
	}
	if m.UpdateFromCmd(cmd) {
		return nil
	}

	iCmd, err := m.ParseCmd(cmd)
	if err != nil {
		return err
	}

	// interrupt cancels the running query only
	ctx, stop := signal.NotifyContext(base.Ctx, os.Interrupt)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	base.Modes = *m
	base.Ctx = ctx
	base.Cmd = cmd
	base.Svc.Log.Debug("query", "cmd", cmd)
	return iCmd.Exec(base)
}

func main() {

	var E error
	var mode Modes
	cfgPath := DefaultConfigPath()
	defer func() {
		if E != nil {
			mode.printErr(os.Stderr, E, cfgPath)
			os.Exit(1)
		}
	}()

	// default to pretty & color if TTY
	bIsTty := false
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		bIsTty = true
	}

	// flags
	var bVerbose bool
	var timeout time.Duration
	var ep Endpoints
	flag.BoolVar(&mode.Color, "color", bIsTty, "force color output on/off")
	flag.BoolVar(&mode.Pretty, "pretty", bIsTty, "force pretty print on/off")
	flag.BoolVar(&bVerbose, "verbose", false, "log lookup details to stderr")
	flag.StringVar(&cfgPath, "config", cfgPath, "path to API key config")
	flag.DurationVar(&timeout, "timeout", 0, "per-query time limit (0 for none)")
	flag.StringVar(&ep.Bootstrap, "bootstrap", rdap.BootstrapURL, "RDAP bootstrap service")
	flag.StringVar(&ep.RIPEstat, "ripestat", ripestat.BaseURL, "RIPEstat data API")
	flag.StringVar(&ep.API, "api", aggapi.BaseURL, "throne aggregation API")
	flag.StringVar(&ep.Geo, "geo", geo.BaseURL, "ip-api geolocation endpoint")

	var iWri io.Writer = os.Stdout
	flag.CommandLine.SetOutput(iWri)
	flag.Usage = func() {

		fmt.Fprint(iWri, `USAGE
  throne [OPTION]... [QUERY]...

Network intelligence lookups: RDAP registration data from the regional
internet registries, RIPEstat routing overviews, route collector views,
geolocation and domain WHOIS.  With no QUERY arguments, queries are read
interactively.

OPTION
`)
		flag.PrintDefaults()

		fmt.Fprint(iWri, `
QUERY
  ip ADDR_OR_PREFIX [+]
    registration and routing info for an address or prefix.
    example: ip 1.1.1.1

    add the suffix '+' to also report on every announcing AS.
    example: ip 1.1.1.1 +

  as ASN [agg]
    AS overview and registry contacts.
    example: as 59

    add 'agg' to take contacts from the throne API (key required).
    example: as 2792 agg

  pfx PREFIX
    announcing AS, holder and covering block of a prefix.
    example: pfx 193.0.0.0/21

  lg ADDR_OR_PREFIX [LOC|*]
    route collector view from one location (default US-NY) or all ('*').
    locations: US-NY US-FL US-CA UK NL SG DE ZA JP
    example: lg 140.78.0.0/16 DE

  raw ip ADDR | raw as ASN
    dump the RDAP document without normalization.

  geo ADDR
    geolocation from ip-api.com.

  dom DOMAIN
    domain WHOIS from the throne API (key required).

  pretty | nopretty
    toggle aligned output in interactive mode`)

		fmt.Fprint(iWri, "\n")
	}

	flag.Parse()

	// logging
	lvl := slog.LevelWarn
	if bVerbose {
		lvl = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(log)

	cfg, E := LoadConfig(cfgPath)
	if E != nil {
		return
	}

	base := CmdExecParams{
		Ctx: context.Background(),
		Svc: NewServices(&http.Client{}, log, cfg, ep),
		Out: os.Stdout,
	}

	// command REPL
	sCmds := flag.Args()
	if len(sCmds) == 0 {

		// stdin command mode
		rl, e2 := readline.New("> ")
		if e2 != nil {
			E = e2
			return
		}
		defer rl.Close()

		for {
			line, e2 := rl.Readline()
			if e2 != nil {
				if e2 == readline.ErrInterrupt || e2 == io.EOF {
					return
				}
				E = e2
				return
			}

			if e2 := mode.doREPL(base, line, timeout); e2 != nil {
				mode.printErr(os.Stderr, e2, cfgPath)
			}
		}

	} else {

		// args command mode
		for ix := range sCmds {
			// abort on first error in args mode
			if err := mode.doREPL(base, sCmds[ix], timeout); err != nil {
				E = err
				return
			}
		}
	}
}

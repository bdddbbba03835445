package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/lip/internal/client/client"
	"github.com/dmitrijs2005/lip/internal/common"
	"github.com/dmitrijs2005/lip/internal/netx"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// outboundIP and publicIP are address detection seams.
var outboundIP = netx.OutboundIP
var publicIP = netx.PublicIP

const usage = `Commands:
  create     -id ID [-lifetime SECONDS] [-p ACCESS] [-m MASTER]
  token      -id ID [-mode read|write] [-p ACCESS]
  invalidate -id ID -jwt TOKEN [-p ACCESS]
  update     -jwt TOKEN (-ip ADDRESS | -auto | -lookup URL) [-port PORT]
  retrieve   -jwt TOKEN
  delete     -id ID [-m MASTER]
  ping
Passwords left out are prompted for without echo.`

// ErrUnknownCommand is returned by exec for a command name it does not know.
var ErrUnknownCommand = errors.New("unknown command")

func (a *App) exec(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "create":
		return a.Create(ctx, args)
	case "token", "jwt":
		return a.Token(ctx, args)
	case "invalidate", "invalidatejwt":
		return a.Invalidate(ctx, args)
	case "update":
		return a.Update(ctx, args)
	case "retrieve":
		return a.Retrieve(ctx, args)
	case "delete":
		return a.Delete(ctx, args)
	case "ping":
		return a.Ping(ctx)
	case "help", "-h", "--help":
		a.println(usage)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
}

func (a *App) Create(ctx context.Context, args []string) error {
	fs := a.flagSet("create")
	id := fs.String("id", "", "address id")
	access := fs.String("p", "", "access password")
	master := fs.String("m", "", "master password")
	life := fs.Int64("lifetime", 0, "seconds until expiry, -1 for never")
	if err := a.parse(fs, args, id); err != nil {
		return err
	}

	var lifetime *int64
	if isSet(fs, "lifetime") {
		lifetime = life
	}

	if err := a.ask(id, "Enter address id"); err != nil {
		return err
	}
	if err := a.askSecret(access, "Access password"); err != nil {
		return err
	}
	if err := a.askSecret(master, "Master password"); err != nil {
		return err
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	res, err := a.api.Create(ctx, *id, *access, *master, lifetime)
	if err != nil {
		return a.fail(err)
	}
	a.println(res.Info)
	return nil
}

func (a *App) Token(ctx context.Context, args []string) error {
	fs := a.flagSet("token")
	id := fs.String("id", "", "address id")
	mode := fs.String("mode", "read", "token mode: read or write")
	access := fs.String("p", "", "access password")
	if err := a.parse(fs, args, id); err != nil {
		return err
	}

	if err := a.ask(id, "Enter address id"); err != nil {
		return err
	}
	if err := a.askSecret(access, "Access password"); err != nil {
		return err
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	token, err := a.api.Token(ctx, *id, *access, *mode)
	if err != nil {
		return a.fail(err)
	}
	a.println(token)
	return nil
}

func (a *App) Invalidate(ctx context.Context, args []string) error {
	fs := a.flagSet("invalidate")
	id := fs.String("id", "", "address id")
	token := fs.String("jwt", "", "write token to invalidate")
	access := fs.String("p", "", "access password")
	if err := a.parse(fs, args, id); err != nil {
		return err
	}

	if err := a.ask(id, "Enter address id"); err != nil {
		return err
	}
	if err := a.ask(token, "Enter write token"); err != nil {
		return err
	}
	if err := a.askSecret(access, "Access password"); err != nil {
		return err
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	res, err := a.api.Invalidate(ctx, *id, *access, *token)
	if err != nil {
		return a.fail(err)
	}
	a.println(res.Info)
	return nil
}

func (a *App) Update(ctx context.Context, args []string) error {
	fs := a.flagSet("update")
	token := fs.String("jwt", "", "write token")
	endpoint := fs.String("ip", "", "address to publish, IP or IP:port")
	auto := fs.Bool("auto", false, "publish this host's outbound address")
	lookup := fs.String("lookup", "", "publish the address reported by this echo URL")
	port := fs.Uint("port", 0, "port to append to a detected address")
	if err := a.parse(fs, args, endpoint); err != nil {
		return err
	}
	if *port > 65535 {
		return fmt.Errorf("update: port %d out of range", *port)
	}

	if err := a.ask(token, "Enter write token"); err != nil {
		return err
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	if *endpoint == "" && (*auto || *lookup != "") {
		detected, err := a.detect(ctx, *lookup)
		if err != nil {
			return a.fail(err)
		}
		*endpoint = netx.WithPort(detected, uint16(*port))
	}
	if err := a.ask(endpoint, "Enter address to publish"); err != nil {
		return err
	}

	res, err := a.api.Update(ctx, *token, *endpoint)
	if err != nil {
		return a.fail(err)
	}
	a.println("published " + res.Info)
	return nil
}

// detect finds the address to publish: the one lookupURL reports when set,
// otherwise the local outbound address towards the lip server.
func (a *App) detect(ctx context.Context, lookupURL string) (netip.Addr, error) {
	if lookupURL != "" {
		return publicIP(ctx, &http.Client{}, lookupURL)
	}
	return outboundIP(a.serverHostPort())
}

func (a *App) serverHostPort() string {
	addr := a.config.ServerAddr
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil || u.Host == "" {
		return a.config.ServerAddr
	}
	if u.Port() != "" {
		return u.Host
	}
	if u.Scheme == "https" {
		return net.JoinHostPort(u.Hostname(), "443")
	}
	return net.JoinHostPort(u.Hostname(), "80")
}

func (a *App) Retrieve(ctx context.Context, args []string) error {
	fs := a.flagSet("retrieve")
	token := fs.String("jwt", "", "read token")
	if err := a.parse(fs, args, token); err != nil {
		return err
	}

	if err := a.ask(token, "Enter read token"); err != nil {
		return err
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	res, err := a.api.Retrieve(ctx, *token)
	if err != nil {
		return a.fail(err)
	}

	a.println("endpoint:    " + orDash(res.Info))
	if res.LastUpdate != nil {
		a.println("last update: " + formatMillis(*res.LastUpdate))
	}
	if res.Lifetime != nil {
		a.println("lifetime:    " + formatLifetime(*res.Lifetime))
	}
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	fs := a.flagSet("delete")
	id := fs.String("id", "", "address id")
	master := fs.String("m", "", "master password")
	if err := a.parse(fs, args, id); err != nil {
		return err
	}

	if err := a.ask(id, "Enter address id"); err != nil {
		return err
	}
	if err := a.askSecret(master, "Master password"); err != nil {
		return err
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	res, err := a.api.Delete(ctx, *id, *master)
	if err != nil {
		return a.fail(err)
	}
	a.println(res.Info)
	return nil
}

func (a *App) Ping(ctx context.Context) error {
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	if err := a.api.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return a.fail(err)
	}
	a.setMode(ModeOnline)
	a.println("server is up")
	return nil
}

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

// parse parses args into fs. A single positional argument fills positional
// when its flag was not given, so "retrieve TOKEN" works like
// "retrieve -jwt TOKEN".
func (a *App) parse(fs *flag.FlagSet, args []string, positional *string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("%s: unexpected arguments %v", fs.Name(), fs.Args()[1:])
	}
	if fs.NArg() == 1 && *positional == "" {
		*positional = fs.Arg(0)
	}
	return nil
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func (a *App) ask(dst *string, prompt string) error {
	if *dst != "" {
		return nil
	}
	v, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func (a *App) askSecret(dst *string, prompt string) error {
	if *dst != "" {
		return nil
	}
	pw, err := getPassword(a.out, prompt)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)
	*dst = string(pw)
	return nil
}

func (a *App) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

// fail reports err to the user and hands it back to the caller.
func (a *App) fail(err error) error {
	var se *client.StatusError
	if errors.As(err, &se) {
		a.println("error: " + se.Info)
		return err
	}
	if errors.Is(err, client.ErrUnavailable) {
		a.setMode(ModeOffline)
	}
	a.println("error: " + err.Error())
	return err
}

func (a *App) println(s string) {
	fmt.Fprintln(a.out, s)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatMillis(ms int64) string {
	if ms < 0 {
		return "never"
	}
	return time.UnixMilli(ms).Local().Format(time.RFC3339)
}

func formatLifetime(sec int64) string {
	if sec < 0 {
		return "unlimited"
	}
	return (time.Duration(sec) * time.Second).String() + " left"
}

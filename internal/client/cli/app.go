package cli

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/lip/internal/client/client"
	"github.com/dmitrijs2005/lip/internal/client/config"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// API is the server surface the commands need. *client.HTTPClient
// satisfies it.
type API interface {
	Create(ctx context.Context, id, accessPw, masterPw string, lifetime *int64) (*client.Response, error)
	Token(ctx context.Context, id, accessPw, mode string) (string, error)
	Invalidate(ctx context.Context, id, accessPw, token string) (*client.Response, error)
	Update(ctx context.Context, token, endpoint string) (*client.Response, error)
	Retrieve(ctx context.Context, token string) (*client.Response, error)
	Delete(ctx context.Context, id, masterPw string) (*client.Response, error)
	Ping(ctx context.Context) error
}

type App struct {
	config *config.Config
	api    API
	reader *bufio.Reader
	out    io.Writer

	mu   sync.Mutex
	mode Mode
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewHTTPClient(c.ServerAddr, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return &App{config: c, api: apiClient, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != mode {
		a.mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Run executes a single command when args names one, otherwise it starts
// the interactive prompt and blocks until the user leaves it.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return a.exec(ctx, args[0], args[1:])
	}

	printlnFn("lip CLI (type 'help' for commands)")
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	runREPL(ctx, a, a.status, a.reader)
	return nil
}

func (a *App) status() string {
	mode := a.Mode()
	if mode == "" {
		return a.config.ServerAddr
	}
	return a.config.ServerAddr + " " + string(mode)
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.api.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

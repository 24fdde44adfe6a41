// Command movie-search searches the movie catalog from the terminal.
//
// One-shot mode prints a single result page:
//
//	movie-search --title matrix --year 1999 --page 2
//
// --all collects every page of the search, and --interactive reads commands
// (title, year, search, page, next, prev, quit) from stdin.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/Sternrassler/movie-search-client/internal/config"
	"github.com/Sternrassler/movie-search-client/pkg/cache"
	"github.com/Sternrassler/movie-search-client/pkg/client"
	"github.com/Sternrassler/movie-search-client/pkg/logging"
	"github.com/Sternrassler/movie-search-client/pkg/metrics"
	"github.com/Sternrassler/movie-search-client/pkg/movie"
	"github.com/Sternrassler/movie-search-client/pkg/pagination"
	"github.com/Sternrassler/movie-search-client/pkg/query"
	"github.com/Sternrassler/movie-search-client/pkg/search"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	configPath  string
	title       string
	year        string
	page        int
	all         bool
	interactive bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := pflag.NewFlagSet("movie-search", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file (default: $CONFIG_PATH, then env only)")
	fs.StringVarP(&opts.title, "title", "t", "", "title filter (substring match)")
	fs.StringVarP(&opts.year, "year", "y", "", "release year filter")
	fs.IntVarP(&opts.page, "page", "p", 1, "result page to show")
	fs.BoolVarP(&opts.all, "all", "a", false, "collect every page of the search")
	fs.BoolVarP(&opts.interactive, "interactive", "i", false, "read commands from stdin")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.all && opts.interactive {
		return opts, errors.New("--all and --interactive are mutually exclusive")
	}
	if opts.page < 1 {
		return opts, fmt.Errorf("--page must be >= 1 (got %d)", opts.page)
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "movie-search: %v\n", err)
		return exitUsage
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "movie-search: %v\n", err)
		return exitUsage
	}

	logCfg := cfg.Log.Logging()
	logCfg.Output = stderr
	logger := logging.Setup(logCfg)

	store := newStore(ctx, cfg.Cache, logger)

	searchClient, err := client.New(client.Config{
		BaseURL:    cfg.Search.BaseURL,
		UserAgent:  cfg.Client.UserAgent,
		Timeout:    cfg.Client.Timeout,
		MaxRetries: cfg.Client.MaxRetries,
		RateLimit:  cfg.Client.RateLimit,
		RateBurst:  cfg.Client.RateBurst,
		Cache:      store,
		CacheTTL:   cfg.Cache.TTL,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create search client")
		if store != nil {
			store.Close()
		}
		return exitFailed
	}
	defer searchClient.Close()

	if cfg.Metrics.Addr != "" {
		shutdown := startMetricsServer(cfg.Metrics.Addr, logger)
		defer shutdown()
	}

	logger.Debug().
		Str("base_url", searchClient.BaseURL()).
		Int("page_size", cfg.Search.PageSize).
		Bool("cache", store != nil).
		Msg("Search client ready")

	criteria := query.Criteria{Title: opts.title, Year: opts.year}

	switch {
	case opts.all:
		collector := pagination.NewCollector(searchClient, pagination.Config{
			PageSize:       cfg.Search.PageSize,
			MaxConcurrency: cfg.Client.MaxConcurrency,
		})
		return runCollect(ctx, collector, criteria, stdout, stderr)
	case opts.interactive:
		ctrl := search.NewController(searchClient, search.Options{PageSize: cfg.Search.PageSize, Logger: &logger})
		ctrl.SetCriteria(criteria)
		return runInteractive(ctx, ctrl, stdin, stdout)
	default:
		ctrl := search.NewController(searchClient, search.Options{PageSize: cfg.Search.PageSize, Logger: &logger})
		ctrl.SetCriteria(criteria)
		return runOnce(ctx, ctrl, opts.page, stdout, stderr)
	}
}

// newStore picks the result cache: Redis when configured and reachable,
// otherwise the in-process store, or none when caching is disabled.
func newStore(ctx context.Context, cfg config.CacheConfig, logger zerolog.Logger) cache.Store {
	if !cfg.Enabled() {
		return nil
	}

	if cfg.UseRedis() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			logger.Debug().Str("redis_addr", cfg.RedisAddr).Msg("Connected to Redis")
			return cache.NewRedisStore(redisClient, cfg.Prefix)
		}

		logger.Warn().Err(err).Str("redis_addr", cfg.RedisAddr).Msg("Redis unavailable - using in-memory cache")
		redisClient.Close()
	}

	return cache.NewMemoryStore(cfg.MemoryEntries)
}

// startMetricsServer serves /metrics and /health on addr and returns a
// function that shuts the listener down.
func startMetricsServer(addr string, logger zerolog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", healthHandler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("Metrics server shutdown")
		}
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// runOnce searches, optionally moves to page, and prints the result.
func runOnce(ctx context.Context, ctrl *search.Controller, page int, stdout, stderr io.Writer) int {
	ctrl.Submit(ctx)
	ctrl.Wait()

	if page > 1 && ctrl.State().Err == nil {
		if _, err := ctrl.SetPage(ctx, page); err != nil {
			fmt.Fprintf(stderr, "movie-search: page %d: %v\n", page, err)
			return exitUsage
		}
		ctrl.Wait()
	}

	state := ctrl.State()
	render(stdout, state)
	if state.Err != nil {
		return exitFailed
	}
	return exitOK
}

// runCollect prints every movie matching criteria.
func runCollect(ctx context.Context, collector *pagination.Collector, criteria query.Criteria, stdout, stderr io.Writer) int {
	result, err := collector.CollectAll(ctx, criteria)
	if err != nil {
		fmt.Fprintf(stderr, "Search failed: %v\n", err)
		return exitFailed
	}

	if result.Empty() {
		fmt.Fprintln(stdout, "No movies found")
		return exitOK
	}

	renderMovies(stdout, result.Movies)
	fmt.Fprintf(stdout, "%d of %d movies\n", len(result.Movies), result.Total)
	return exitOK
}

const interactiveHelp = `Commands:
  title <text>   set the title filter (empty clears it)
  year <text>    set the year filter (empty clears it)
  search         search from page 1
  page <n>       show page n
  next, prev     move one page
  show           print the current state
  quit           exit`

// runInteractive reads commands from stdin and prints each applied search.
func runInteractive(ctx context.Context, ctrl *search.Controller, stdin io.Reader, stdout io.Writer) int {
	out := &syncWriter{w: stdout}

	unsubscribe := ctrl.Subscribe(func(s search.State) {
		render(out, s)
	})
	defer unsubscribe()

	fmt.Fprintln(out, interactiveHelp)

	scanner := bufio.NewScanner(stdin)
loop:
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}

		cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		arg = strings.TrimSpace(arg)

		var err error
		switch strings.ToLower(cmd) {
		case "":
		case "title":
			ctrl.SetTitle(arg)
		case "year":
			ctrl.SetYear(arg)
		case "search", "s":
			ctrl.Submit(ctx)
		case "page":
			n, convErr := strconv.Atoi(arg)
			if convErr != nil {
				err = fmt.Errorf("page: %q is not a number", arg)
				break
			}
			_, err = ctrl.SetPage(ctx, n)
		case "next", "n":
			_, err = ctrl.NextPage(ctx)
		case "prev", "p":
			_, err = ctrl.PrevPage(ctx)
		case "show":
			render(out, ctrl.State())
		case "help", "?":
			fmt.Fprintln(out, interactiveHelp)
		case "quit", "q", "exit":
			break loop
		default:
			err = fmt.Errorf("unknown command %q (try help)", cmd)
		}

		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}

	ctrl.Wait()
	return exitOK
}

// render prints a controller snapshot the way the search page shows it.
func render(w io.Writer, s search.State) {
	if s.Err != nil {
		fmt.Fprintf(w, "Search failed: %v\n", s.Err)
	}

	switch {
	case s.Result == nil:
		if s.Err == nil {
			fmt.Fprintln(w, "Fill title and year to find movies")
		}
		return
	case s.Result.Empty():
		fmt.Fprintln(w, "No movies found")
	default:
		renderMovies(w, s.Result.Movies)
	}

	if total, ok := s.Pagination.TotalPages(); ok && total > 0 {
		fmt.Fprintf(w, "Page %d of %d (%d movies)\n", s.Pagination.CurrentPage, total, s.Pagination.TotalItems)
	}
}

func renderMovies(w io.Writer, movies []movie.Movie) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tYEAR\tIMDB")
	for _, m := range movies {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Title, m.Year, m.IMDbID)
	}
	tw.Flush()
}

// syncWriter serializes writes from listeners and the command loop.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

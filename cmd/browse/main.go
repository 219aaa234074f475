// Command browse is a terminal client for the listings API. It keeps its
// session in a JSON file so the access token is refreshed transparently
// across invocations.
//
//	browse login ana@example.com
//	browse properties type=house sort=price-asc page=2
//	browse hotels amenities=wifi,pool rating=4
//	browse dashboard
//	browse logout
package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"estatehub/internal/listing"
	"estatehub/internal/services"
	"estatehub/internal/session"
	"estatehub/internal/utils"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("browse", flag.ExitOnError)
	apiURL := fs.String("api", envOr("ESTATEHUB_API", "http://localhost:8080/api"), "API base URL")
	sessionPath := fs.String("session", envOr("ESTATEHUB_SESSION", defaultSessionPath()), "session file")
	sessionDSN := fs.String("session-dsn", os.Getenv("ESTATEHUB_SESSION_DSN"), "MySQL DSN to keep the session in instead of a file")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: browse [flags] login <email> | logout | whoami | properties [key=value...] | hotels [key=value...] | dashboard")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	level := "warn"
	if *verbose {
		level = "debug"
	}
	utils.SetupLogger(os.Stderr, level)

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	storage, closeStorage, err := openStorage(ctx, *sessionPath, *sessionDSN)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	err = run(ctx, *apiURL, storage, fs.Arg(0), fs.Args()[1:])
	closeStorage()
	if err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		os.Exit(1)
	}
}

// describeError turns transient transport failures into a retry hint.
func describeError(err error) string {
	if session.IsRetryable(err) {
		return "network error: check your connection and retry (" + err.Error() + ")"
	}
	return "error: " + err.Error()
}

func openStorage(ctx context.Context, path, dsn string) (session.Storage, func(), error) {
	if dsn == "" {
		return session.NewFileStorage(path), func() {}, nil
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open session db: %w", err)
	}
	st := session.NewSQLStorage(db)
	if err := st.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("prepare session table: %w", err)
	}
	return st, func() { db.Close() }, nil
}

func run(ctx context.Context, apiURL string, storage session.Storage, cmd string, args []string) error {
	mgr, err := session.New(ctx, session.Config{
		Auth:  session.NewAuthClient(apiURL),
		Store: session.NewStore(storage),
		OnExpired: func() {
			fmt.Fprintln(os.Stderr, "session expired, run `browse login` again")
		},
	})
	if err != nil {
		return err
	}
	defer mgr.Close()

	c := client{api: strings.TrimRight(apiURL, "/"), mgr: mgr}
	switch cmd {
	case "login":
		return c.login(ctx, args)
	case "logout":
		return mgr.Logout(ctx)
	case "whoami":
		return c.whoami()
	case "properties":
		return c.list(ctx, listing.KindProperty, args)
	case "hotels":
		return c.list(ctx, listing.KindHotel, args)
	case "dashboard":
		return c.dashboard(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

type client struct {
	api string
	mgr *session.Manager
}

func (c client) login(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: browse login <email>")
	}
	password := os.Getenv("ESTATEHUB_PASSWORD")
	if password == "" {
		fmt.Fprint(os.Stderr, "password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		password = strings.TrimRight(line, "\r\n")
	}
	p, err := c.mgr.Login(ctx, session.Credentials{Email: args[0], Password: password})
	if errors.Is(err, session.ErrInvalidCredentials) {
		return errors.New("wrong email or password")
	}
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s (%s)\n", p.Name, p.Role)
	return nil
}

func (c client) whoami() error {
	sess, ok := c.mgr.Session()
	if !ok || sess.User == nil {
		return session.ErrNotAuthenticated
	}
	fmt.Printf("%s <%s> role=%s token expires %s\n",
		sess.User.Name, sess.User.Email, sess.User.Role, sess.Expiry.Local().Format(time.RFC1123))
	return nil
}

func (c client) list(ctx context.Context, kind listing.Kind, args []string) error {
	q, err := url.ParseQuery(strings.Join(args, "&"))
	if err != nil {
		return fmt.Errorf("bad filter: %w", err)
	}
	f := listing.ParseFilterState(q)

	path := "/properties"
	if kind == listing.KindHotel {
		path = "/hotels"
	}
	if enc := f.Encode(); enc != "" {
		path += "?" + enc
	}

	var page services.ListingPage
	if err := c.getJSON(ctx, path, false, &page); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tCATEGORY\tLOCATION")
	for _, l := range page.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", l.ID, l.Title, services.PriceLabel(l), l.Category, l.Location)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("page %d of %d, %d matching\n", page.CurrentPage, page.TotalPages, page.TotalMatching)
	return nil
}

func (c client) dashboard(ctx context.Context) error {
	var sum services.DashboardSummary
	if err := c.getJSON(ctx, "/dashboard/summary", true, &sum); err != nil {
		return err
	}
	for _, cat := range sum.Catalogues {
		fmt.Printf("%s: %d listings, %d featured, average %s\n",
			cat.Kind, cat.Total, cat.Featured, utils.FormatPrice(cat.AveragePrice, ""))
		for _, l := range cat.Recent {
			fmt.Printf("  new: #%d %s (%s)\n", l.ID, l.Title, utils.FormatDate(l.DateAdded))
		}
	}
	return nil
}

// getJSON uses the session-aware client when auth is required and a plain
// one otherwise, so browsing works signed out.
func (c client) getJSON(ctx context.Context, path string, auth bool, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.api+path, nil)
	if err != nil {
		return err
	}
	var resp *http.Response
	if auth {
		resp, err = c.mgr.Do(req)
	} else {
		resp, err = http.DefaultClient.Do(req)
	}
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error == "" {
			body.Error = resp.Status
		}
		return fmt.Errorf("%s: %s", path, body.Error)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".estatehub-session.json"
	}
	return filepath.Join(dir, "estatehub", "session.json")
}

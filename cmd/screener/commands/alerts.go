package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/wonny/screener/backend/internal/alerts"
	"github.com/wonny/screener/backend/internal/session"
)

// alertsCmd represents the alerts command
var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Check watchlist target prices",
	Long: `Sign in, then report every watchlist item whose latest price is within
ALERT_TOLERANCE of its target.

Credentials come from --user with --password (or SCREENER_PASSWORD), or from an
existing access token via --token (or SCREENER_TOKEN). With --listen the command
then stays connected to the watchlist service and prints pushed notifications.

Example:
  SCREENER_PASSWORD=... go run ./cmd/screener alerts --user ayse
  go run ./cmd/screener alerts --token $TOKEN --listen`,
	RunE: runAlerts,
}

var (
	alertsUser     string
	alertsPassword string
	alertsToken    string
	alertsListen   bool
)

func init() {
	rootCmd.AddCommand(alertsCmd)

	alertsCmd.Flags().StringVar(&alertsUser, "user", "", "username")
	alertsCmd.Flags().StringVar(&alertsPassword, "password", "", "password (default SCREENER_PASSWORD)")
	alertsCmd.Flags().StringVar(&alertsToken, "token", "", "access token (default SCREENER_TOKEN)")
	alertsCmd.Flags().BoolVar(&alertsListen, "listen", false, "stay connected and print pushed notifications")
}

func runAlerts(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := newDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	sessions, checker := newAlertChecker(d)

	s, err := signIn(ctx, sessions)
	if err != nil {
		return err
	}
	defer sessions.Logout()

	if s.UserID == 0 {
		return fmt.Errorf("could not resolve a user id for %s", s.Username)
	}

	out := cmd.OutOrStdout()

	found, err := checker.Check(ctx, s.UserID)
	if err != nil {
		return fmt.Errorf("check alerts: %w", err)
	}
	printAlerts(out, found)

	if !alertsListen {
		return nil
	}

	listener := alerts.NewListener(d.cfg.WatchlistAPI.WSURL, s.UserID, d.log)
	listener.OnConnected(func() { fmt.Fprintf(out, "Listening on %s (Ctrl+C to stop)\n", listener.URL()) })
	listener.OnMessage(func(msg string) { fmt.Fprintf(out, "🔔 %s\n", msg) })

	if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// signIn restores a token when one is given, otherwise logs in with username and password
func signIn(ctx context.Context, sessions *session.Manager) (session.Session, error) {
	token := alertsToken
	if token == "" {
		token = os.Getenv("SCREENER_TOKEN")
	}
	if token != "" {
		return sessions.Restore(ctx, token)
	}

	if alertsUser == "" {
		return session.Session{}, session.ErrNoSession
	}
	password := alertsPassword
	if password == "" {
		password = os.Getenv("SCREENER_PASSWORD")
	}
	return sessions.Login(ctx, alertsUser, password)
}

func printAlerts(w io.Writer, found []alerts.Alert) {
	if len(found) == 0 {
		fmt.Fprintln(w, "No watchlist items near their target price")
		return
	}

	tw := newTable(w)
	tw.AppendHeader(table.Row{"Symbol", "Target", "Price", "Watchlist", "Message"})
	for _, a := range found {
		tw.AppendRow(table.Row{a.Symbol, a.Target.StringFixed(2), a.Price.StringFixed(2), a.WatchlistID, a.Message()})
	}
	tw.Render()
}

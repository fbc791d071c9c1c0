package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	"passenger-client/api"
	"passenger-client/booking"
	"passenger-client/bookings"
	"passenger-client/chat"
	"passenger-client/config"
	"passenger-client/geo"
	"passenger-client/matching"
	"passenger-client/models"
	"passenger-client/session"
	"passenger-client/storage"
)

type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  storage.Store
	client *api.Client
	mgr    *session.Manager
	sess   *session.Session
	in     *bufio.Reader
	out    io.Writer
}

// newApp opens local storage and restores the saved session. Every command
// runs after the restore has finished.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, in io.Reader, out io.Writer) (*app, error) {
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client := api.NewClient(cfg.Backend.BaseURL, cfg.HTTP.Timeout, logger)
	mgr := session.NewManager(store, client, logger)

	sess, err := mgr.Restore(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		client: client,
		mgr:    mgr,
		sess:   sess,
		in:     bufio.NewReader(in),
		out:    out,
	}, nil
}

func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func (a *app) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "signup":
		return a.signUp(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami()
	case "trips":
		return a.trips(ctx, args)
	case "book":
		return a.book(ctx, args)
	case "bookings":
		return a.bookings(ctx)
	case "rate":
		return a.rate(ctx, args)
	case "report":
		return a.report(ctx, args)
	case "chat":
		return a.chat(ctx)
	default:
		return fmt.Errorf("unknown command %q", name)
	}
}

func (a *app) signUp(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	email := fs.String("email", "", "Email address")
	username := fs.String("username", "", "Display name")
	phone := fs.String("phone", "", "Phone number")
	password := fs.String("password", "", "Password")
	confirm := fs.String("confirm", "", "Password again")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *username == "" || *password == "" {
		return errors.New("-email, -username and -password are required")
	}

	err := a.mgr.SignUp(ctx, models.Registration{
		Username:        *username,
		Email:           *email,
		PhoneNumber:     *phone,
		Password:        *password,
		ConfirmPassword: *confirm,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Account created. Log in with `passenger login`.")
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}
	if *password == "" {
		p, err := a.prompt("Password: ")
		if err != nil {
			return err
		}
		*password = p
	}

	sess, err := a.mgr.Login(ctx, models.Credentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	a.sess = sess
	fmt.Fprintf(a.out, "Welcome, %s!\n", sess.User.Username)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	err := a.mgr.Logout(ctx)
	a.sess = nil
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *app) whoami() error {
	if !a.sess.Active() {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	u := a.sess.User
	fmt.Fprintf(a.out, "%s <%s>\n", u.Username, u.Email)
	if u.PhoneNumber != "" {
		fmt.Fprintf(a.out, "Phone: %s\n", u.PhoneNumber)
	}
	if !a.sess.ExpiresAt.IsZero() {
		fmt.Fprintf(a.out, "Token expires: %s\n", a.sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func (a *app) trips(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trips", flag.ContinueOnError)
	near := fs.String("near", "", "Only trips starting near lat,lon")
	technique := fs.String("technique", string(geo.GeohashingTechnique), "Proximity search: geohashing or rtree")
	retries := fs.Int("retries", 3, "How many times to widen the search area")
	if err := fs.Parse(args); err != nil {
		return err
	}

	flow := booking.NewFlow(a.client, a.sess, a.logger)
	result := flow.LoadTrips(ctx)
	if result.State == models.ListFailed {
		return result.Err
	}
	trips := result.Items

	if *near != "" {
		lat, lon, err := parseLatLon(*near)
		if err != nil {
			return err
		}
		trips, err = matching.NearbyTrips(trips, lat, lon, geo.Technique(*technique), *retries)
		if errors.Is(err, geo.ErrNoNearbyPoints) {
			fmt.Fprintln(a.out, "No trips start near that location.")
			return nil
		}
		if err != nil {
			return err
		}
	}

	if len(trips) == 0 {
		fmt.Fprintln(a.out, "No trips available right now.")
		return nil
	}
	printTrips(a.out, trips)
	return nil
}

func printTrips(out io.Writer, trips []models.Trip) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tROUTE\tDATE\tSEATS\tPRICE\tDRIVER")
	for _, t := range trips {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\tRs. %.2f\t%s (%.1f)\n",
			t.ID, t.Title(), t.Date, t.SeatsAvailable, t.PricePerSeat, t.DriverName, t.Rating)
	}
	tw.Flush()
}

func (a *app) book(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("book", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "Confirm without prompting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: passenger book [-yes] <tripID> <seats>")
	}

	flow := booking.NewFlow(a.client, a.sess, a.logger)
	if result := flow.LoadTrips(ctx); result.State == models.ListFailed {
		return result.Err
	}
	trip, err := flow.SelectTrip(fs.Arg(0))
	if err != nil {
		return err
	}
	quote, err := flow.EnterSeats(fs.Arg(1))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s on %s\n", trip.Title(), trip.Date)
	fmt.Fprintf(a.out, "%d seat(s) x Rs. %.2f = Rs. %.2f\n", quote.Seats, trip.PricePerSeat, quote.TotalAmount)
	if !*yes {
		answer, err := a.prompt("Confirm booking? [y/N] ")
		if err != nil {
			return err
		}
		if ans := strings.ToLower(answer); ans != "y" && ans != "yes" {
			fmt.Fprintln(a.out, "Booking cancelled.")
			return nil
		}
	}

	outcome, err := flow.Confirm(ctx)
	if err != nil {
		if outcome.Message == "" {
			return err
		}
		return errors.New(outcome.Message)
	}
	fmt.Fprintln(a.out, outcome.Message)
	if outcome.Booking.ID != "" {
		fmt.Fprintf(a.out, "Booking %s\n", outcome.Booking.ID)
	}
	return nil
}

func (a *app) bookings(ctx context.Context) error {
	tracker := bookings.NewTracker(a.client, a.sess, a.logger)
	result := tracker.Load(ctx)
	switch result.State {
	case models.ListFailed:
		return result.Err
	case models.ListEmpty:
		fmt.Fprintln(a.out, "You have not booked any trips yet.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BOOKING\tROUTE\tDATE\tSEATS\tTOTAL\tSTATUS\tFEEDBACK")
	for _, bt := range result.Items {
		status := bt.Trip.Status
		if status == "" {
			status = models.TripStatusAvailable
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\tRs. %.2f\t%s\t%s\n",
			bt.Booking.ID, bt.Trip.Title(), bt.Trip.Date, bt.Booking.SeatsBooked,
			bt.Booking.TotalAmount, status, feedback(bt.Booking))
	}
	return tw.Flush()
}

func feedback(b models.Booking) string {
	var parts []string
	if b.HasRated {
		parts = append(parts, "rated")
	}
	if b.HasReported {
		parts = append(parts, "reported")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func (a *app) rate(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: passenger rate <bookingID> <stars>")
	}
	stars, err := strconv.Atoi(args[1])
	if err != nil {
		return bookings.ErrInvalidRating
	}

	tracker := bookings.NewTracker(a.client, a.sess, a.logger)
	if result := tracker.Load(ctx); result.State == models.ListFailed {
		return result.Err
	}
	if err := tracker.Rate(ctx, args[0], stars); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Thanks! You rated the driver %d/5 (%s).\n", stars, models.RatingFeedback(stars))
	return nil
}

func (a *app) report(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: passenger report <bookingID> <reason...>")
	}
	reason := strings.Join(args[1:], " ")

	tracker := bookings.NewTracker(a.client, a.sess, a.logger)
	if result := tracker.Load(ctx); result.State == models.ListFailed {
		return result.Err
	}
	if err := tracker.Report(ctx, args[0], reason); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Report submitted.")
	return nil
}

func (a *app) chat(ctx context.Context) error {
	conv := chat.NewConversation(chat.NewClient(a.cfg.Chat.BaseURL, a.cfg.HTTP.Timeout, a.logger), a.logger)
	fmt.Fprintln(a.out, "Chat with Thizzy. An empty line or EOF ends the conversation.")
	for {
		line, err := a.prompt("> ")
		if err != nil || line == "" {
			return nil
		}
		reply, err := conv.Say(ctx, line)
		if err != nil {
			fmt.Fprintln(a.out, "(assistant unavailable)")
			continue
		}
		if reply != nil {
			fmt.Fprintln(a.out, reply.Text)
		}
	}
}

// prompt reads one trimmed line. io.EOF is only returned when nothing was
// typed.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return line, nil
}

func parseLatLon(s string) (float64, float64, error) {
	latText, lonText, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("location %q: want lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("location %q: bad latitude", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonText), 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("location %q: bad longitude", s)
	}
	return lat, lon, nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Nishanth456/FinAdvisor/internal/config"
	apierrors "github.com/Nishanth456/FinAdvisor/internal/errors"
	"github.com/Nishanth456/FinAdvisor/profile"
	"github.com/Nishanth456/FinAdvisor/recommend"
	"github.com/Nishanth456/FinAdvisor/session"
	"github.com/Nishanth456/FinAdvisor/tokenstore"
	"github.com/Nishanth456/FinAdvisor/transport"
)

const usage = `Usage: finadvisor <command> [flags]

Commands:
  login            Sign in with an existing account
  signup           Create an account
  whoami           Restore the saved session and show the current user
  profile          Submit or update the financial profile
  recommendations  Show the current recommendation (use -generate to refresh)
  logout           Clear the local session
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)

	if len(args) == 0 {
		fmt.Print(usage)
		return nil
	}

	c := config.New()
	store, err := tokenstore.NewFileStore(c.GetDataFolder())
	if err != nil {
		return err
	}
	client, err := transport.New(c, store, transport.WithLogger(log.Logger))
	if err != nil {
		return err
	}
	mgr, err := session.NewManager(client, store, session.WithLogger(log.Logger))
	if err != nil {
		return err
	}

	ctx := context.Background()
	switch args[0] {
	case "login":
		return loginCmd(ctx, mgr, args[1:])
	case "signup":
		return signupCmd(ctx, mgr, args[1:])
	case "whoami":
		return whoamiCmd(ctx, mgr)
	case "profile":
		return profileCmd(ctx, mgr, args[1:])
	case "recommendations":
		return recommendationsCmd(ctx, recommend.NewClient(client), args[1:])
	case "logout":
		mgr.Logout()
		fmt.Println("Logged out.")
		return nil
	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func loginCmd(ctx context.Context, mgr *session.Manager, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res := mgr.Login(ctx, *email, *password)
	if res.ShouldSignup {
		fmt.Printf("No account exists for %s. Run 'finadvisor signup' first.\n", *email)
		return nil
	}
	if res.Err != nil {
		return errors.New(apierrors.UserMessage(res.Err))
	}
	displayBanner("FinAdvisor")
	fmt.Printf("Welcome back. Next: %s\n", res.Route)
	return nil
}

func signupCmd(ctx context.Context, mgr *session.Manager, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (8+ characters)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res := mgr.Signup(ctx, *name, *email, *password)
	if res.Err != nil {
		return errors.New(apierrors.UserMessage(res.Err))
	}
	displayBanner("FinAdvisor")
	fmt.Printf("Account created. Next: %s\n", res.Route)
	return nil
}

func whoamiCmd(ctx context.Context, mgr *session.Manager) error {
	res := mgr.Bootstrap(ctx)
	if res.Err != nil {
		if res.Route == session.RouteLogin {
			fmt.Println("Session expired. Please log in again.")
			return nil
		}
		return errors.New(apierrors.UserMessage(res.Err))
	}

	st := mgr.State()
	if st.CurrentUser == nil {
		fmt.Println("Not logged in.")
		return nil
	}
	fmt.Printf("%s <%s>\n", st.CurrentUser.Name, st.CurrentUser.Email)
	if !st.TokenExpiry.IsZero() {
		fmt.Printf("Session valid until %s\n", st.TokenExpiry.Format("2006-01-02 15:04"))
	}
	fmt.Printf("Next: %s\n", res.Route)
	return nil
}

func profileCmd(ctx context.Context, mgr *session.Manager, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	dob := fs.String("dob", "", "date of birth (YYYY-MM-DD)")
	income := fs.Float64("income", 0, "monthly income")
	expenses := fs.Float64("expenses", 0, "monthly expenses")
	risk := fs.String("risk", "", "risk appetite: low, medium, or high")
	horizon := fs.Int("horizon", 0, "investment horizon in years")
	goals := fs.String("goals", "", "comma-separated financial goals")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if res := mgr.Bootstrap(ctx); res.Err != nil {
		return errors.New(apierrors.UserMessage(res.Err))
	}

	var goalList []string
	for _, g := range strings.Split(*goals, ",") {
		if g = strings.TrimSpace(g); g != "" {
			goalList = append(goalList, g)
		}
	}
	res := mgr.UpdateProfile(ctx, profile.Profile{
		DateOfBirth:            *dob,
		MonthlyIncome:          *income,
		MonthlyExpenses:        *expenses,
		RiskAppetite:           *risk,
		InvestmentHorizonYears: *horizon,
		FinancialGoals:         goalList,
	})
	if res.Err != nil {
		return errors.New(apierrors.UserMessage(res.Err))
	}
	fmt.Println("Profile saved.")
	return nil
}

func recommendationsCmd(ctx context.Context, rc *recommend.Client, args []string) error {
	fs := flag.NewFlagSet("recommendations", flag.ExitOnError)
	generate := fs.Bool("generate", false, "generate a fresh recommendation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var rec *recommend.Recommendation
	if *generate {
		generated, err := rc.Generate(ctx)
		if err != nil {
			return errors.New(apierrors.UserMessage(err))
		}
		rec = generated
	} else {
		snapshot, err := rc.Snapshot(ctx)
		if errors.Is(err, recommend.ErrNoRecommendation) {
			fmt.Println("No recommendation yet. Run with -generate to create one.")
			return nil
		}
		if err != nil {
			return errors.New(apierrors.UserMessage(err))
		}
		rec = &snapshot.Recommendation
		if !snapshot.CreatedAt.IsZero() {
			fmt.Printf("As of %s\n", snapshot.CreatedAt.Format("2006-01-02 15:04"))
		}
	}

	printRecommendation(rec)
	return nil
}

func printRecommendation(rec *recommend.Recommendation) {
	if len(rec.AllocationSummary) > 0 {
		fmt.Println("Allocation:")
		for class, share := range rec.AllocationSummary {
			fmt.Printf("  %-16s %s\n", class, share)
		}
	}
	for _, s := range rec.Instruments.Stocks {
		fmt.Printf("  stock  %-28s %5.1f%%  %s\n", s.Name, s.AllocationPct, s.Reason)
	}
	for _, f := range rec.Instruments.MutualFunds {
		fmt.Printf("  fund   %-28s %5.1f%%  %s\n", f.Name, f.AllocationPct, f.Reason)
	}
	for _, d := range rec.Instruments.FixedDeposits {
		fmt.Printf("  fd     %-28s %5.1f%%  %.2f%% for %d months\n", d.Bank, d.AllocationPct, d.RatePct, d.TenureMonths)
	}
	if rec.Explanation != "" {
		fmt.Println("\n" + rec.Explanation)
	}
	if rec.ProjectedReturns.Narrative != "" {
		fmt.Println("\n" + rec.ProjectedReturns.Narrative)
	}
	for k, v := range rec.ProjectedReturns.Figures {
		fmt.Printf("  %-28s %s\n", k, v)
	}
}

func displayBanner(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

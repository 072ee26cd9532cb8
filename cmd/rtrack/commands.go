package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"refactortrack/internal/analytics"
	"refactortrack/internal/auth"
	"refactortrack/internal/candidates"
	"refactortrack/internal/clients"
	"refactortrack/internal/requisitions"
)

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("rtrack "+name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", os.Getenv("RTRACK_EMAIL"), "account email")
	password := fs.String("password", os.Getenv("RTRACK_PASSWORD"), "account password; read from stdin when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		fmt.Fprint(os.Stderr, "password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	result, err := a.rt.Session.Login(ctx, auth.LoginRequest{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	if result.MFARequired() {
		if err := a.savePendingMFA(ctx, *result.Challenge); err != nil {
			return fmt.Errorf("store MFA challenge: %w", err)
		}
		fmt.Fprintf(a.out, "MFA required (%s). Run `rtrack mfa -code <code>` before %s.\n",
			strings.Join(result.Challenge.Methods, ", "), result.Challenge.ExpiresAt.Local().Format(time.Kitchen))
		return nil
	}
	a.clearPendingMFA(ctx)
	return printSignedIn(a, result.Auth.User)
}

func runMFA(ctx context.Context, a *app, args []string) error {
	fs := newFlags("mfa")
	code := fs.String("code", "", "one-time code")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *code == "" {
		return errors.New("mfa: -code is required")
	}
	challenge, err := a.pendingMFA(ctx)
	if err != nil {
		return err
	}
	state, err := a.rt.Session.VerifyMFA(ctx, *challenge, *code)
	if err != nil {
		return err
	}
	a.clearPendingMFA(ctx)
	return printSignedIn(a, state.User)
}

func printSignedIn(a *app, u *auth.User) error {
	if ok, err := a.emitJSON(u); ok {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", u.Email, u.Role)
	return nil
}

func runLogout(ctx context.Context, a *app, args []string) error {
	fs := newFlags("logout")
	force := fs.Bool("force", false, "also purge the local read cache")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a.clearPendingMFA(ctx)
	if err := a.rt.Session.Logout(ctx, *force); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func runWhoami(ctx context.Context, a *app, _ []string) error {
	u, err := a.rt.Auth.Me(ctx)
	if err != nil {
		return err
	}
	if ok, err := a.emitJSON(u); ok {
		return err
	}
	w := a.table()
	fmt.Fprintf(w, "ID\t%s\n", u.ID)
	fmt.Fprintf(w, "Email\t%s\n", u.Email)
	fmt.Fprintf(w, "Name\t%s %s\n", u.FirstName, u.LastName)
	fmt.Fprintf(w, "Role\t%s\n", u.Role)
	fmt.Fprintf(w, "MFA\t%t\n", u.MFAEnabled)
	return w.Flush()
}

func runStatus(ctx context.Context, a *app, _ []string) error {
	valid := a.rt.Session.ValidateSession(ctx)
	state := a.rt.Session.State()

	if ok, err := a.emitJSON(map[string]any{
		"authenticated":      valid,
		"mfa_pending":        state.MFAPending,
		"user":               state.User,
		"session_expires_at": state.SessionExpiresAt,
		"device_id":          a.rt.DeviceID,
	}); ok {
		return err
	}

	w := a.table()
	fmt.Fprintf(w, "Authenticated\t%t\n", valid)
	if state.User != nil {
		fmt.Fprintf(w, "User\t%s (%s)\n", state.User.Email, state.User.Role)
	}
	if !state.SessionExpiresAt.IsZero() {
		fmt.Fprintf(w, "Session expires\t%s\n", state.SessionExpiresAt.Local().Format(time.RFC1123))
	}
	if _, err := a.pendingMFA(ctx); err == nil {
		fmt.Fprintf(w, "MFA\tchallenge pending\n")
	}
	fmt.Fprintf(w, "Device\t%s\n", a.rt.DeviceID)
	return w.Flush()
}

func runReset(ctx context.Context, a *app, args []string) error {
	fs := newFlags("reset")
	email := fs.String("email", "", "request a reset link for this email")
	token := fs.String("token", "", "confirm a reset with this token")
	password := fs.String("password", "", "new password, used with -token")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		resp *auth.MessageResponse
		err  error
	)
	switch {
	case *token != "":
		resp, err = a.rt.Auth.ConfirmPasswordReset(ctx, *token, *password)
	case *email != "":
		resp, err = a.rt.Auth.RequestPasswordReset(ctx, *email)
	default:
		return errors.New("reset: pass -email to request or -token and -password to confirm")
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, resp.Message)
	return nil
}

func runClients(ctx context.Context, a *app, args []string) error {
	fs := newFlags("clients")
	id := fs.String("id", "", "show one client")
	var f clients.ClientFilters
	fs.IntVar(&f.Page, "page", 1, "page number")
	fs.IntVar(&f.Limit, "limit", 20, "page size")
	fs.StringVar(&f.Search, "search", "", "company or contact name")
	status := fs.String("status", "", "active, inactive or prospect")
	fs.StringVar(&f.Industry, "industry", "", "industry")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f.Status = clients.ClientStatus(*status)

	if *id != "" {
		c, err := a.rt.Clients.GetClient(ctx, *id)
		if err != nil {
			return err
		}
		if ok, err := a.emitJSON(c); ok {
			return err
		}
		w := a.table()
		fmt.Fprintf(w, "ID\t%s\nCompany\t%s\nIndustry\t%s\nContact\t%s <%s>\nStatus\t%s\n",
			c.ID, c.CompanyName, c.Industry, c.ContactName, c.ContactEmail, c.Status)
		return w.Flush()
	}

	page, err := a.rt.Clients.GetClients(ctx, f)
	if err != nil {
		return err
	}
	if ok, err := a.emitJSON(page); ok {
		return err
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tCOMPANY\tINDUSTRY\tSTATUS")
	for _, c := range page.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.CompanyName, c.Industry, c.Status)
	}
	fmt.Fprintf(w, "\npage %d of %d, %d total\n", page.Page, page.TotalPages, page.Total)
	return w.Flush()
}

func runCandidates(ctx context.Context, a *app, args []string) error {
	fs := newFlags("candidates")
	var f candidates.CandidateFilters
	fs.IntVar(&f.Page, "page", 1, "page number")
	fs.IntVar(&f.Limit, "limit", 20, "page size")
	fs.StringVar(&f.Search, "search", "", "name or email")
	skills := fs.String("skills", "", "comma separated skills")
	status := fs.String("status", "", "active, interviewing, placed or inactive")
	fs.StringVar(&f.Location, "location", "", "location")
	fs.IntVar(&f.MinExperience, "min-experience", 0, "minimum years of experience")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f.Status = candidates.CandidateStatus(*status)
	f.Skills = splitList(*skills)

	page, err := a.rt.Candidates.GetCandidates(ctx, f)
	if err != nil {
		return err
	}
	if ok, err := a.emitJSON(page); ok {
		return err
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tYEARS\tSKILLS")
	for _, c := range page.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", c.ID, c.FullName(), c.Status, c.ExperienceYears, strings.Join(c.Skills, ", "))
	}
	fmt.Fprintf(w, "\npage %d of %d, %d total\n", page.Page, page.TotalPages, page.Total)
	return w.Flush()
}

func runRequisitions(ctx context.Context, a *app, args []string) error {
	fs := newFlags("requisitions")
	id := fs.String("id", "", "show one requisition")
	closeID := fs.String("close", "", "close this requisition")
	reason := fs.String("reason", "filled", "close reason: filled, cancelled, client_withdrawn or duplicate")
	var f requisitions.RequisitionFilters
	fs.IntVar(&f.Page, "page", 1, "page number")
	fs.IntVar(&f.Limit, "limit", 20, "page size")
	fs.StringVar(&f.Search, "search", "", "title")
	status := fs.String("status", "", "draft, open, on_hold, filled or closed")
	priority := fs.String("priority", "", "low, medium, high or urgent")
	fs.StringVar(&f.ClientID, "client", "", "client id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f.Status = requisitions.RequisitionStatus(*status)
	f.Priority = requisitions.Priority(*priority)

	var (
		one *requisitions.Requisition
		err error
	)
	switch {
	case *closeID != "":
		one, err = a.rt.Requisitions.Close(ctx, *closeID, requisitions.CloseRequisitionRequest{Reason: *reason})
	case *id != "":
		one, err = a.rt.Requisitions.GetRequisition(ctx, *id)
	}
	if err != nil {
		return err
	}
	if one != nil {
		if ok, err := a.emitJSON(one); ok {
			return err
		}
		w := a.table()
		fmt.Fprintf(w, "ID\t%s\nTitle\t%s\nClient\t%s\nStatus\t%s\nPriority\t%s\nOpenings\t%d\nSkills\t%s\nRate\t%.2f - %.2f\n",
			one.ID, one.Title, one.ClientName, one.Status, one.Priority, one.Openings,
			strings.Join(one.RequiredSkills, ", "), one.RateMin, one.RateMax)
		if one.Deadline != nil {
			fmt.Fprintf(w, "Deadline\t%s\n", one.Deadline.Format(time.DateOnly))
		}
		return w.Flush()
	}

	page, err := a.rt.Requisitions.GetRequisitions(ctx, f)
	if err != nil {
		return err
	}
	if ok, err := a.emitJSON(page); ok {
		return err
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tTITLE\tCLIENT\tSTATUS\tPRIORITY\tOPENINGS")
	for _, r := range page.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", r.ID, r.Title, r.ClientName, r.Status, r.Priority, r.Openings)
	}
	fmt.Fprintf(w, "\npage %d of %d, %d total\n", page.Page, page.TotalPages, page.Total)
	return w.Flush()
}

func runDashboard(ctx context.Context, a *app, args []string) error {
	fs := newFlags("dashboard")
	days := fs.Int("days", 90, "length of the period, ending now")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *days < 1 {
		return errors.New("dashboard: -days must be positive")
	}

	d, err := a.rt.Analytics.Dashboard(ctx, analytics.LastDays(time.Now(), *days))
	if err != nil {
		return err
	}
	if ok, err := a.emitJSON(d); ok {
		return err
	}

	w := a.table()
	fmt.Fprintf(w, "Period\t%s to %s\n", d.Period.StartDate.Format(time.DateOnly), d.Period.EndDate.Format(time.DateOnly))
	if d.Performance != nil {
		fmt.Fprintf(w, "Time to hire\t%.1f days mean, trend %s\n", d.Performance.TimeToHire.Mean, d.Performance.TimeToHire.Direction)
		if fill, ok := d.Performance.Trends["requisition_fill_rate"]; ok {
			fmt.Fprintf(w, "Fill rate\t%.1f%% mean, trend %s\n", fill.Mean, fill.Direction)
		}
	}
	if critical := d.CriticalSkills(); len(critical) > 0 {
		fmt.Fprintf(w, "Critical skills\t%s\n", strings.Join(critical, ", "))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if d.Metrics != nil && len(d.Metrics.Items) > 0 {
		fmt.Fprintln(a.out)
		w = a.table()
		fmt.Fprintln(w, "WEEK\tTOTAL\tFILLED\tFILL %\tTIME TO HIRE")
		for _, m := range d.Metrics.Items {
			fmt.Fprintf(w, "%s\t%d\t%d\t%.1f\t%.1f\n", m.PeriodStart.Format(time.DateOnly),
				m.TotalRequisitions, m.FilledRequisitions, m.RequisitionFillRate, m.AverageTimeToHire)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	if d.Performance != nil && len(d.Performance.Recommendations) > 0 {
		fmt.Fprintln(a.out, "\nRecommendations:")
		for _, r := range d.Performance.Recommendations {
			fmt.Fprintf(a.out, "  [%s] %s: %s\n", r.Severity, r.Category, r.Recommendation)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

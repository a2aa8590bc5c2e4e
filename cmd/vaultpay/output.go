package main

import (
	"errors"
	"fmt"
	"html"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/ericfisherdev/vaultpay/internal/adapter/driven/bankapi"
	"github.com/ericfisherdev/vaultpay/internal/application"
	"github.com/ericfisherdev/vaultpay/internal/domain/model"
)

// textPolicy strips all markup from server-supplied text before it reaches
// the terminal.
var textPolicy = bluemonday.StrictPolicy()

// sanitize removes HTML and control characters from s.
func sanitize(s string) string {
	s = html.UnescapeString(textPolicy.Sanitize(s))
	s = strings.Map(func(r rune) rune {
		if (r < 0x20 && r != '\t') || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// userMessage turns an error into the line printed on exit.
func userMessage(err error) string {
	if errors.Is(err, application.ErrSessionExpired) {
		return application.ErrSessionExpired.Error()
	}

	var apiErr *bankapi.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s (HTTP %d)", sanitize(apiErr.Message), apiErr.StatusCode)
	}
	return sanitize(err.Error())
}

func printMessage(w io.Writer, msg, fallback string) {
	msg = sanitize(msg)
	if msg == "" {
		msg = fallback
	}
	fmt.Fprintln(w, msg)
}

func printUser(w io.Writer, u model.User) {
	fmt.Fprintf(w, "ID:             %d\n", u.ID)
	fmt.Fprintf(w, "Email:          %s\n", sanitize(u.Email))
	fmt.Fprintf(w, "Email verified: %s\n", yesNo(u.IsEmailVerified))
	fmt.Fprintf(w, "MFA enabled:    %s\n", yesNo(u.IsMFAEnabled))
	if u.IsActive != nil {
		fmt.Fprintf(w, "Active:         %s\n", yesNo(*u.IsActive))
	}
	if u.LastLoginAt != "" {
		fmt.Fprintf(w, "Last login:     %s\n", sanitize(u.LastLoginAt))
	}
	if u.CreatedAt != "" {
		fmt.Fprintf(w, "Member since:   %s\n", sanitize(u.CreatedAt))
	}
}

func printStatus(w io.Writer, info model.SessionInfo, now time.Time) {
	switch {
	case info.State.LoggedIn():
		fmt.Fprintln(w, "Logged in")
	case info.State == model.SessionAbsent:
		fmt.Fprintln(w, "Not logged in")
	default:
		fmt.Fprintf(w, "Not logged in (stored session is %s)\n", strings.ReplaceAll(string(info.State), "_", " "))
	}

	if info.Subject != "" {
		fmt.Fprintf(w, "User:    %s\n", sanitize(info.Subject))
	}
	if !info.ExpiresAt.IsZero() {
		note := ""
		if info.Expired(now) {
			note = " (expired)"
		}
		fmt.Fprintf(w, "Expires: %s%s\n", info.ExpiresAt.Local().Format(time.RFC1123), note)
	}
}

// printDiagnostics writes every counter in reg, one labelled sample per line.
func printDiagnostics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering diagnostics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, m := range mf.GetMetric() {
			lines = append(lines, fmt.Sprintf("%s%s %g", mf.GetName(), formatLabels(m.GetLabel()), m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)

	fmt.Fprintln(w, "Diagnostics:")
	for _, l := range lines {
		fmt.Fprintf(w, "  %s\n", l)
	}
	return nil
}

func formatLabels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%q", p.GetName(), p.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

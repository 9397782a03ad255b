package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate trims and dedupes list fields, then checks the
// result. The normalized copy is what should be saved and used.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Email.Senders = trimList(out.Email.Senders)

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if out.Polling.IntervalSeconds < 0 {
		res.addErr("polling.interval_seconds must be >= 0 (0 disables the background poll)")
	} else if out.Polling.IntervalSeconds > 0 && out.Polling.IntervalSeconds < 60 {
		res.addWarn("polling.interval_seconds is very low (%d) and may trip IMAP rate limits.", out.Polling.IntervalSeconds)
	}

	if out.Email.WindowDays < 0 {
		res.addErr("email.window_days must be >= 0 (0 means no date bound)")
	}

	// password is not part of the file; it lives in the OS keychain
	if out.Email.Enabled {
		if strings.TrimSpace(out.Email.IMAPHost) == "" {
			res.addErr("email.imap_host is required when email.enabled=true")
		}
		if out.Email.IMAPPort == 0 {
			res.addErr("email.imap_port is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Username) == "" {
			res.addErr("email.username is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Mailbox) == "" {
			res.addErr("email.mailbox is required when email.enabled=true")
		}
		if len(out.Email.Senders) == 0 {
			res.addWarn("email.senders is empty; every unread message in the mailbox will be scanned.")
		}
	}

	return out, res
}

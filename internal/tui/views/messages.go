package views

import "github.com/rendis/geogrid/internal/session"

// StartScanMsg carries a prepared scan to the progress view. The session
// stays open until the program exits; its owner closes it.
type StartScanMsg struct {
	Session *session.Session
}

// NavigateToHome returns to the main menu.
type NavigateToHome struct{}

// NavigateToSearch opens the new scan form.
type NavigateToSearch struct{}

// NavigateToRecent opens the recent databases list.
type NavigateToRecent struct{}

// NavigateToReport opens a scan report. An empty ScanID means the latest
// scan in the database.
type NavigateToReport struct {
	DBPath string
	ScanID string
}

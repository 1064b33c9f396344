package common

import "time"

const (
	// CommandSource runs external commands to print and clean the log
	CommandSource = "command"
	// FileSource reads the log file directly
	FileSource = "file"
	// MocksSource for tests
	MocksSource = "mocks"

	// NoLogData is shown when the source has nothing to show
	NoLogData = "No log data."

	// DefaultScript is the mosdns helper shipped with luci-app-mosdns
	DefaultScript = "/usr/share/mosdns/mosdns.sh"
	// DefaultLogFile .
	DefaultLogFile = "/var/log/mosdns.log"
	// DefaultAPIAddr is where the daemon listens and the client commands dial
	DefaultAPIAddr = "127.0.0.1:7520"

	DefaultMaxLines = 1000
	DefaultMaxBytes = 1 << 20

	DefaultPollInterval    = 5 * time.Second
	DefaultCommandTimeout  = 10 * time.Second
	DefaultShutdownTimeout = 3 * time.Second
	DefaultSessionTTL      = 30 * time.Minute

	DateTimeFormat = "2006-01-02 15:04:05"
)

// DefaultPrintCommand .
var DefaultPrintCommand = []string{DefaultScript, "printlog"}

// DefaultClearCommand .
var DefaultClearCommand = []string{DefaultScript, "cleanlog"}

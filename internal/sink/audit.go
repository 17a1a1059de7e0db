package sink

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"devicescanner/internal/domain"
)

// AuditTimeLayout is the timestamp written at the start of each audit line
const AuditTimeLayout = "2006-01-02 15:04:05.000000"

// AuditLog appends the raw addresses of every scan to a text file
type AuditLog struct {
	path string
	mu   sync.Mutex
}

// NewAuditLog creates an audit log appending to path
func NewAuditLog(path string) *AuditLog {
	return &AuditLog{path: path}
}

// Path returns the log file path
func (a *AuditLog) Path() string {
	return a.path
}

// Append writes one line for obs: the local timestamp, then the addresses as
// the scanner reported them, all separated by semicolons. A scan that saw nothing writes "<timestamp>;".
func (a *AuditLog) Append(obs domain.Observation) error {
	line := FormatAuditLine(obs)

	a.mu.Lock()
	defer a.mu.Unlock()

	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}

	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("append audit log: %w", err)
	}
	return f.Close()
}

// FormatAuditLine renders the audit line for obs, including the newline
func FormatAuditLine(obs domain.Observation) string {
	var b strings.Builder
	b.WriteString(obs.At.Local().Format(AuditTimeLayout))
	b.WriteString(";")
	b.WriteString(strings.Join(domain.AddressStrings(obs.Reported), ";"))
	b.WriteString("\n")
	return b.String()
}

package adapter

import (
	"errors"
	"os"
	"os/user"
)

// ErrUnprivileged is returned by CheckPrivileges when not running as root
var ErrUnprivileged = errors.New("not running as root: nmap will not report MAC addresses and pcap may fail to open the interface")

// Privileges describes who the process runs as
type Privileges struct {
	EffectiveUID int
	Username     string
	IsRoot       bool
}

// DetectPrivileges reports the effective user of the process
func DetectPrivileges() Privileges {
	euid := os.Geteuid()
	p := Privileges{
		EffectiveUID: euid,
		IsRoot:       euid == 0,
	}
	if u, err := user.Current(); err == nil {
		p.Username = u.Username
	}
	return p
}

// CheckPrivileges returns ErrUnprivileged unless p is root. Both scanners
// need raw network access to see hardware addresses.
func CheckPrivileges(p Privileges) error {
	if p.IsRoot {
		return nil
	}
	return ErrUnprivileged
}

package domain

import "time"

// Observation is the interpreted result of one scan. It lives for a single
// cycle and is never stored.
type Observation struct {
	At time.Time `json:"at"`
	// Reported is the scanner output before canonicalization
	Reported   []HardwareAddress `json:"reported"`
	Raw        []HardwareAddress `json:"raw"`
	Identities []Identity        `json:"identities"`
	Unknown    []HardwareAddress `json:"unknown"`
	// ScanErr is set when the scan failed and Raw is empty because of it
	ScanErr error `json:"-"`
}

// NewObservation resolves canonical scan output against a mapping. Reported is
// left for the caller to fill in.
func NewObservation(at time.Time, raw []HardwareAddress, mapping *IdentityMapping) Observation {
	identities, unknown := mapping.Resolve(raw)
	return Observation{
		At:         at,
		Raw:        raw,
		Identities: identities,
		Unknown:    unknown,
	}
}

// Failed returns true if the scan behind this observation failed
func (o Observation) Failed() bool {
	return o.ScanErr != nil
}

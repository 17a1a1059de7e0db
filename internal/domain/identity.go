package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Identity is the label of a person or entity tracked for presence
type Identity string

// String returns the identity as a plain string
func (i Identity) String() string {
	return string(i)
}

// ErrDuplicateAddress is matched by AddressConflict errors
var ErrDuplicateAddress = errors.New("address assigned to more than one identity")

// AddressConflict records an address listed under more than one identity.
// Owner is the identity that kept the address after construction.
type AddressConflict struct {
	Address    HardwareAddress
	Identities []Identity
	Owner      Identity
}

// Error implements error
func (c AddressConflict) Error() string {
	names := make([]string, len(c.Identities))
	for i, id := range c.Identities {
		names[i] = string(id)
	}
	return fmt.Sprintf("address %s listed under %s (kept by %s)", c.Address, strings.Join(names, ", "), c.Owner)
}

// Is reports ErrDuplicateAddress
func (c AddressConflict) Is(target error) bool {
	return target == ErrDuplicateAddress
}

// IdentityMapping resolves hardware addresses to the identities that own them.
// It is built once from configuration and never mutated.
type IdentityMapping struct {
	people    map[Identity][]HardwareAddress
	reverse   map[HardwareAddress]Identity
	conflicts []AddressConflict
}

// NewIdentityMapping builds the reverse lookup from identity -> addresses.
//
// Identities are applied in lexical order and a later identity overwrites an
// earlier one for a shared address, so the lexically greatest identity owns
// it. Every such overwrite is recorded and available from Conflicts.
func NewIdentityMapping(people map[string][]string) (*IdentityMapping, error) {
	names := make([]string, 0, len(people))
	for name := range people {
		names = append(names, name)
	}
	sort.Strings(names)

	m := &IdentityMapping{
		people:  make(map[Identity][]HardwareAddress, len(people)),
		reverse: make(map[HardwareAddress]Identity),
	}

	claimed := make(map[HardwareAddress][]Identity)
	for _, name := range names {
		id := Identity(strings.TrimSpace(name))
		if id == "" {
			return nil, fmt.Errorf("identity with addresses %v has an empty name", people[name])
		}
		if _, dup := m.people[id]; dup {
			return nil, fmt.Errorf("identity %q is listed twice after trimming spaces", string(id))
		}

		addrs := NormalizeAddresses(people[name])
		if len(addrs) != len(people[name]) {
			for _, raw := range people[name] {
				if NormalizeAddress(raw) == "" {
					return nil, fmt.Errorf("identity %s has an empty address", id)
				}
			}
		}

		m.people[id] = addrs
		for _, addr := range addrs {
			claimed[addr] = append(claimed[addr], id)
			m.reverse[addr] = id
		}
	}

	for addr, ids := range claimed {
		if len(ids) > 1 {
			m.conflicts = append(m.conflicts, AddressConflict{
				Address:    addr,
				Identities: ids,
				Owner:      m.reverse[addr],
			})
		}
	}
	sort.Slice(m.conflicts, func(i, j int) bool {
		return m.conflicts[i].Address < m.conflicts[j].Address
	})

	return m, nil
}

// Lookup returns the identity owning an address
func (m *IdentityMapping) Lookup(addr HardwareAddress) (Identity, bool) {
	id, ok := m.reverse[addr]
	return id, ok
}

// Identities returns all configured identities, sorted
func (m *IdentityMapping) Identities() []Identity {
	ids := make([]Identity, 0, len(m.people))
	for id := range m.people {
		ids = append(ids, id)
	}
	sortIdentities(ids)
	return ids
}

// Conflicts returns addresses that were listed under several identities
func (m *IdentityMapping) Conflicts() []AddressConflict {
	out := make([]AddressConflict, len(m.conflicts))
	copy(out, m.conflicts)
	return out
}

// Resolve partitions addresses into the identities that own them and the
// addresses nobody owns. Several addresses of one identity collapse into a
// single entry. Both results are deduplicated and sorted.
func (m *IdentityMapping) Resolve(addrs []HardwareAddress) ([]Identity, []HardwareAddress) {
	idSet := make(map[Identity]struct{})
	unknownSet := make(map[HardwareAddress]struct{})

	for _, addr := range addrs {
		if id, ok := m.Lookup(addr); ok {
			idSet[id] = struct{}{}
		} else {
			unknownSet[addr] = struct{}{}
		}
	}

	identities := make([]Identity, 0, len(idSet))
	for id := range idSet {
		identities = append(identities, id)
	}
	sortIdentities(identities)

	unknown := make([]HardwareAddress, 0, len(unknownSet))
	for addr := range unknownSet {
		unknown = append(unknown, addr)
	}
	sortAddresses(unknown)

	return identities, unknown
}

// IdentityStrings converts identities to strings for encoding
func IdentityStrings(ids []Identity) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func sortIdentities(ids []Identity) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

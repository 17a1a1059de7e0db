// Package presence tracks which identities are currently present.
//
// A Registry keeps the last time each identity was resolved from a scan.
// Every cycle calls Touch with the identities seen, then Evict with the
// retention window. An identity stays present for the retention window after
// its latest sighting and disappears on the first eviction pass at or after
// expiry. No background timer is involved; eviction follows the poll cadence.
package presence

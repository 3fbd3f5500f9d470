package delegation

import "errors"

// ErrZoneNotFound is returned when no suffix of a domain matches any zone in
// the root index.
var ErrZoneNotFound = errors.New("zone not found")

// ErrNoNameserver is returned when a live referral attempt exhausts every
// candidate parent nameserver without producing a usable address.
var ErrNoNameserver = errors.New("nameserver not found")

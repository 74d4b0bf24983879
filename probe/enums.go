// SPDX-License-Identifier: GPL-3.0-or-later

package probe

import (
	"fmt"
	"strings"
)

// Status is the outcome of a probe.
type Status uint8

const (
	// StatusSuccess means we received at least one byte.
	StatusSuccess Status = iota

	// StatusNoResponse means we sent the payload but the peer never replied.
	StatusNoResponse

	// StatusTimeout means we timed out while connecting or sending.
	StatusTimeout

	// StatusRefused means the peer actively rejected the connection.
	StatusRefused

	// StatusError means any other failure; see [Result.Err].
	StatusError
)

var statusNames = [...]string{
	StatusSuccess:    "SUCCESS",
	StatusNoResponse: "NO_RESPONSE",
	StatusTimeout:    "TIMEOUT",
	StatusRefused:    "REFUSED",
	StatusError:      "ERROR",
}

// String implements [fmt.Stringer].
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// ParseStatus parses the string representation of a [Status].
func ParseStatus(s string) (Status, error) {
	for idx, name := range statusNames {
		if strings.EqualFold(s, name) {
			return Status(idx), nil
		}
	}
	return 0, fmt.Errorf("unknown probe status %q", s)
}

// Family is the protocol family a probe belongs to.
type Family uint8

const (
	// FamilyOther is for probes outside the known families.
	FamilyOther Family = iota

	// FamilyDNS is the DNS family.
	FamilyDNS

	// FamilySSH is the SSH family.
	FamilySSH

	// FamilyTLS is the TLS family.
	FamilyTLS
)

var familyNames = [...]string{
	FamilyOther: "OTHER",
	FamilyDNS:   "DNS",
	FamilySSH:   "SSH",
	FamilyTLS:   "TLS",
}

// String implements [fmt.Stringer].
func (f Family) String() string {
	if int(f) < len(familyNames) {
		return familyNames[f]
	}
	return fmt.Sprintf("Family(%d)", uint8(f))
}

// ParseFamily parses a [Family]. The empty string maps to [FamilyOther].
func ParseFamily(s string) (Family, error) {
	if s == "" {
		return FamilyOther, nil
	}
	for idx, name := range familyNames {
		if strings.EqualFold(s, name) {
			return Family(idx), nil
		}
	}
	return 0, fmt.Errorf("unknown probe family %q", s)
}

// Kind is the role of the payload within its family.
type Kind uint8

const (
	// KindValid is a protocol-correct payload.
	KindValid Kind = iota

	// KindRandom is a random payload of the same nominal size.
	KindRandom

	// KindFake is a structurally plausible but suspicious payload.
	KindFake

	// KindEntropy is a large high-entropy payload.
	KindEntropy
)

var kindNames = [...]string{
	KindValid:   "valid",
	KindRandom:  "random",
	KindFake:    "fake",
	KindEntropy: "entropy",
}

// String implements [fmt.Stringer].
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind parses a [Kind]. The empty string maps to [KindValid].
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return KindValid, nil
	}
	for idx, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(idx), nil
		}
	}
	return 0, fmt.Errorf("unknown probe kind %q", s)
}

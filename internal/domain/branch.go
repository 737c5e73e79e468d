package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidBranch = errors.New("invalid branch")
	ErrInvalidCampus = errors.New("invalid campus")
)

type Branch string

const (
	BranchEdison      Branch = "EDISON"
	BranchBridgewater Branch = "BRIDGEWATER"
	BranchPrinceton   Branch = "PRINCETON"
	BranchPiscataway  Branch = "PISCATAWAY"
	BranchWarren      Branch = "WARREN"
)

type branchInfo struct {
	zip    string
	code   string
	county string
}

var branches = map[Branch]branchInfo{
	BranchEdison:      {zip: "08817", code: "100", county: "Middlesex"},
	BranchBridgewater: {zip: "08807", code: "200", county: "Somerset"},
	BranchPrinceton:   {zip: "08542", code: "300", county: "Mercer"},
	BranchPiscataway:  {zip: "08854", code: "400", county: "Middlesex"},
	BranchWarren:      {zip: "07057", code: "500", county: "Somerset"},
}

func ParseBranch(name string) (Branch, error) {
	b := Branch(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := branches[b]; !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidBranch, name)
	}
	return b, nil
}

func (b Branch) Valid() bool {
	_, ok := branches[b]
	return ok
}

func (b Branch) Zip() string    { return branches[b].zip }
func (b Branch) Code() string   { return branches[b].code }
func (b Branch) County() string { return branches[b].county }

func (b Branch) String() string { return string(b) }

func branchByCode(code string) (Branch, bool) {
	for b, info := range branches {
		if info.code == code {
			return b, true
		}
	}
	return "", false
}

type Campus string

const (
	CampusNewBrunswick Campus = "NEW_BRUNSWICK"
	CampusNewark       Campus = "NEWARK"
	CampusCamden       Campus = "CAMDEN"
)

var campusCodes = map[string]Campus{
	"0": CampusNewBrunswick,
	"1": CampusNewark,
	"2": CampusCamden,
}

// ParseCampus accepts either the numeric campus code or the campus name.
func ParseCampus(s string) (Campus, error) {
	s = strings.TrimSpace(s)
	if c, ok := campusCodes[s]; ok {
		return c, nil
	}
	c := Campus(strings.ToUpper(s))
	if c.Valid() {
		return c, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidCampus, s)
}

func (c Campus) Valid() bool {
	switch c {
	case CampusNewBrunswick, CampusNewark, CampusCamden:
		return true
	}
	return false
}

func (c Campus) String() string { return string(c) }

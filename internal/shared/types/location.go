package types

// CFI is an opaque, order-comparable locator for a point or range inside a
// rendered document. CFIs are only comparable within the same document.
type CFI string

// String returns the raw locator
func (c CFI) String() string { return string(c) }

// Empty reports whether the locator is unset
func (c CFI) Empty() bool { return c == "" }

// Displayed holds the renderer's page counters for a location point
type Displayed struct {
	Page  int `json:"page"`
	Total int `json:"total"`
}

// LocationPoint is one edge of a relocation
type LocationPoint struct {
	CFI        CFI        `json:"cfi"`
	Href       string     `json:"href,omitempty"`
	Index      int        `json:"index"`
	Location   int        `json:"location,omitempty"`
	Percentage float64    `json:"percentage,omitempty"`
	Displayed  *Displayed `json:"displayed,omitempty"`
}

// Location is produced by the renderer on every relocation and is never
// mutated afterwards.
type Location struct {
	Start   LocationPoint `json:"start"`
	End     LocationPoint `json:"end"`
	AtStart bool          `json:"atStart,omitempty"`
	AtEnd   bool          `json:"atEnd,omitempty"`
}

// SameRange reports whether both locations cover the same start and end CFIs
func (l Location) SameRange(other Location) bool {
	return l.Start.CFI == other.Start.CFI && l.End.CFI == other.End.CFI
}

// NavigationIndex is the cached, restorable list of CFIs partitioning a
// document into fixed-size reading units.
type NavigationIndex struct {
	Locations      []CFI  `json:"locations"`
	TotalLocations int    `json:"totalLocations"`
	BookKey        string `json:"bookKey,omitempty"`
}

// Empty reports whether the index carries no locations
func (n NavigationIndex) Empty() bool {
	return len(n.Locations) == 0
}

// Progress returns the fractional position of cfi inside the index, using the
// same rule as the renderer: the index of the last location not after cfi,
// divided by the last index. Numeric steps compare by value.
func (n NavigationIndex) Progress(cfi CFI) float64 {
	total := len(n.Locations)
	if total == 0 {
		return 0
	}
	if total == 1 {
		return 1
	}

	pos := 0
	for i, loc := range n.Locations {
		if compareCFI(loc, cfi) > 0 {
			break
		}
		pos = i
	}
	return float64(pos) / float64(total-1)
}

// compareCFI orders two locators step by step so that "/10" sorts after "/4"
func compareCFI(a, b CFI) int {
	as, bs := string(a), string(b)
	i, j := 0, 0
	for i < len(as) && j < len(bs) {
		ca, cb := as[i], bs[j]
		if isDigit(ca) && isDigit(cb) {
			si := i
			for i < len(as) && isDigit(as[i]) {
				i++
			}
			sj := j
			for j < len(bs) && isDigit(bs[j]) {
				j++
			}
			na, nb := trimZeros(as[si:i]), trimZeros(bs[sj:j])
			if len(na) != len(nb) {
				if len(na) < len(nb) {
					return -1
				}
				return 1
			}
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
			continue
		}
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case len(as)-i < len(bs)-j:
		return -1
	case len(as)-i > len(bs)-j:
		return 1
	}
	return 0
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func trimZeros(s string) string {
	for len(s) > 1 && s[0] == '0' {
		s = s[1:]
	}
	return s
}

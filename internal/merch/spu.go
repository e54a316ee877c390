package merch

import (
	"fmt"
	"strconv"
	"strings"
)

// SPU is a parsed product code. Fast Fish SPU codes pack the line, season,
// category and a sequence number into three dash-separated segments:
//
//	M25S-TS-0142
//	^^^^ ^^ ^^^^
//	|    |  sequence within the category
//	|    category token (see CategoryName)
//	gender line, 2-digit year, season code
type SPU struct {
	Code     string
	Gender   byte   // 'M', 'W' or 'K'
	Year     int    // full year, e.g. 2025
	Season   byte   // 'S' spring/summer, 'F' fall/winter, 'A' all-season
	Category string // two-letter category token, e.g. "TS"
	Sequence int
}

var categoryNames = map[string]string{
	"TS": "t-shirts",
	"SH": "shirts",
	"PT": "pants",
	"JN": "jeans",
	"JK": "jackets",
	"SW": "sweaters",
	"DR": "dresses",
	"SK": "skirts",
	"UW": "underwear",
	"AC": "accessories",
}

// ParseSPU parses a product code like "M25S-TS-0142". The error names the
// offending segment so bad rows in sales extracts are easy to trace.
func ParseSPU(code string) (SPU, error) {
	parts := strings.Split(strings.TrimSpace(code), "-")
	if len(parts) != 3 {
		return SPU{}, fmt.Errorf("invalid SPU code %q: want 3 dash-separated segments", code)
	}

	head := parts[0]
	if len(head) != 4 {
		return SPU{}, fmt.Errorf("invalid SPU line segment %q in %q", head, code)
	}
	gender := head[0]
	if gender != 'M' && gender != 'W' && gender != 'K' {
		return SPU{}, fmt.Errorf("invalid SPU gender %q in %q: want M, W or K", string(gender), code)
	}
	yy, err := strconv.Atoi(head[1:3])
	if err != nil {
		return SPU{}, fmt.Errorf("invalid SPU year %q in %q", head[1:3], code)
	}
	season := head[3]
	if season != 'S' && season != 'F' && season != 'A' {
		return SPU{}, fmt.Errorf("invalid SPU season %q in %q: want S, F or A", string(season), code)
	}

	cat := parts[1]
	if len(cat) != 2 || cat != strings.ToUpper(cat) {
		return SPU{}, fmt.Errorf("invalid SPU category token %q in %q", cat, code)
	}

	seq, err := strconv.Atoi(parts[2])
	if err != nil || len(parts[2]) != 4 {
		return SPU{}, fmt.Errorf("invalid SPU sequence %q in %q", parts[2], code)
	}

	return SPU{
		Code:     strings.TrimSpace(code),
		Gender:   gender,
		Year:     2000 + yy,
		Season:   season,
		Category: cat,
		Sequence: seq,
	}, nil
}

// CategoryName returns the display name for a category token, or the token
// itself if it is not one of the known categories.
func CategoryName(token string) string {
	if name, ok := categoryNames[token]; ok {
		return name
	}
	return token
}

// CategoryOf is a convenience for callers that only need the category
// token of a code and tolerate unparseable codes (returns "" on error).
func CategoryOf(code string) string {
	spu, err := ParseSPU(code)
	if err != nil {
		return ""
	}
	return spu.Category
}

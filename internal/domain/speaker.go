package domain

// Speaker is a cached projection of a member's identity at lookup time.
type Speaker struct {
	MemberID     int64
	PersonID     int64
	Title        string
	FirstName    string
	LastName     string
	House        int
	Constituency string
	Party        string
	URL          string

	// Offices holds the positions active on the sitting date of the item
	// the speaker was looked up for.
	Offices []Office
}

// Office is one ministerial or committee position.
type Office struct {
	Dept     string
	Position string
	Source   string
}

// MemberRow is the raw member record as stored.
type MemberRow struct {
	MemberID     int64
	PersonID     int64
	Title        string
	FirstName    string
	LastName     string
	House        int
	Constituency string
	Party        string
}

// OfficeRow is the raw office record as stored.
type OfficeRow struct {
	Dept     string
	Position string
	Source   string
}

// partyNames normalizes stored party codes for display.
var partyNames = map[string]string{
	"Con":  "Conservative",
	"Lab":  "Labour",
	"LDem": "Liberal Democrat",
	"SNP":  "Scottish National Party",
	"PC":   "Plaid Cymru",
	"SPK":  "Speaker",
	"CWM":  "Chairman of Ways and Means",
	"DCWM": "Deputy Chairman of Ways and Means",
}

// PartyName returns the display name for a stored party code, or the code
// itself when no alias exists.
func PartyName(code string) string {
	if name, ok := partyNames[code]; ok {
		return name
	}
	return code
}

package archive

import "time"

// Layout mirrors the en-IN locale string, e.g. "19/10/2026, 3:04:05 pm".
const Layout = "2/1/2006, 3:04:05 pm"

// Timestamper renders exchange timestamps in a fixed zone.
type Timestamper struct {
	loc *time.Location
}

// NewTimestamper uses loc, defaulting to India Standard Time.
func NewTimestamper(loc *time.Location) *Timestamper {
	if loc == nil {
		loc = indiaStandardTime()
	}
	return &Timestamper{loc: loc}
}

// LoadTimestamper resolves an IANA zone name. Asia/Kolkata falls back to a
// fixed +05:30 offset when the zone database is unavailable.
func LoadTimestamper(name string) (*Timestamper, error) {
	if name == "" || name == "Asia/Kolkata" {
		return NewTimestamper(indiaStandardTime()), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	return NewTimestamper(loc), nil
}

func (t *Timestamper) Format(at time.Time) string {
	return at.In(t.loc).Format(Layout)
}

func indiaStandardTime() *time.Location {
	if loc, err := time.LoadLocation("Asia/Kolkata"); err == nil {
		return loc
	}
	return time.FixedZone("IST", 5*60*60+30*60)
}

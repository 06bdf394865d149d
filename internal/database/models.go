package database

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// AccountType identifies which side of the marketplace a profile belongs to.
type AccountType string

// The two marketplace roles. The pair (display_name, account_type) is the
// natural key for profiles; the same display name under a different account
// type is an independent profile.
const (
	AccountCreator AccountType = "Creator"
	AccountAgency  AccountType = "Agency"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	return t == AccountCreator || t == AccountAgency
}

// Complement returns the opposite role: the role a viewer browses.
func (t AccountType) Complement() AccountType {
	if t == AccountCreator {
		return AccountAgency
	}
	return AccountCreator
}

// StringList is a multi-value field stored as a CSV-encoded TEXT column.
// A nil list round-trips as SQL NULL, which keeps the opposite role's
// columns absent rather than empty.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return strings.Join(l, ","), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}

	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}

	if raw == "" {
		*l = StringList{}
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make(StringList, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*l = out
	return nil
}

// Contains reports whether the list holds v.
func (l StringList) Contains(v string) bool {
	for _, item := range l {
		if item == v {
			return true
		}
	}
	return false
}

// Intersects reports whether the list shares at least one element with other.
func (l StringList) Intersects(other []string) bool {
	for _, v := range other {
		if l.Contains(v) {
			return true
		}
	}
	return false
}

// Profile represents one marketplace profile. A single row carries both
// role's columns; the columns belonging to the opposite role stay NULL.
type Profile struct {
	ID          int64       `db:"id"`
	AccountType AccountType `db:"account_type"`
	DisplayName string      `db:"display_name"`
	Created     time.Time   `db:"created"`

	Niche            string `db:"niche"`
	LocationCurrent  string `db:"location_current"`
	LocationHometown string `db:"location_hometown"`
	Bio              string `db:"bio"`
	Verified         bool   `db:"verified"`
	SelfieUploaded   bool   `db:"selfie_uploaded"`

	CreatorPersonality    sql.NullString `db:"creator_personality"`
	CreatorPlatformHandle sql.NullString `db:"creator_platform_handle"`
	CreatorPlatformURL    sql.NullString `db:"creator_platform_url"`
	CreatorAutofill       bool           `db:"creator_autofill"`
	CreatorEarningsBand   sql.NullString `db:"creator_earnings_band"`
	CreatorContentTypes   StringList     `db:"creator_content_types"`
	CreatorPhotos         StringList     `db:"creator_photos"`

	AgencyName               sql.NullString `db:"agency_name"`
	AgencyWebsite            sql.NullString `db:"agency_website"`
	AgencySuccessStory       sql.NullString `db:"agency_success_story"`
	AgencyServices           StringList     `db:"agency_services"`
	AgencyContentSpecialties StringList     `db:"agency_content_specialties"`
	AgencyPaymentModel       sql.NullString `db:"agency_payment_model"`
	AgencyFeeBand            sql.NullString `db:"agency_fee_band"`
	AgencyCommissionBand     sql.NullString `db:"agency_commission_band"`
	AgencyPaymentOther       sql.NullString `db:"agency_payment_other"`
}

// Title returns the name shown on marketplace cards: the agency name when
// present, the display name otherwise.
func (p *Profile) Title() string {
	if p.AccountType == AccountAgency && p.AgencyName.Valid && p.AgencyName.String != "" {
		return p.AgencyName.String
	}
	return p.DisplayName
}

// Message represents one direct message between two profiles. Messages are
// append-only; there is no edit, delete, or read state.
type Message struct {
	ID         int64     `db:"id"`
	SenderID   int64     `db:"sender_id"`
	ReceiverID int64     `db:"receiver_id"`
	Body       string    `db:"body"`
	Created    time.Time `db:"created"`
}

// Connection records that one party expressed interest in another. The pair
// is unordered and stored normalized (low id first); one-sided insertion is
// sufficient to connect.
type Connection struct {
	ID          int64     `db:"id"`
	ProfileLow  int64     `db:"profile_low"`
	ProfileHigh int64     `db:"profile_high"`
	Created     time.Time `db:"created"`
}

// Other returns the connection member that is not viewer.
func (c *Connection) Other(viewer int64) int64 {
	if c.ProfileLow == viewer {
		return c.ProfileHigh
	}
	return c.ProfileLow
}

// NullStr wraps s as a valid sql.NullString. Owning-role columns store the
// empty string rather than NULL; only the opposite role's columns are NULL.
func NullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

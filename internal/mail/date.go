package mail

import (
	stdmail "net/mail"
	"time"
)

// mailDateFormat is the fecha_correo column format.
const mailDateFormat = "2006-01-02 15:04:05"

// FormatMailDate converts a Date header into loc, formatted for the
// ledger. Unparseable dates fall back to the current local time; a bad
// header must never drop the row.
func FormatMailDate(raw string, loc *time.Location) string {
	t, err := stdmail.ParseDate(raw)
	if err != nil {
		return time.Now().Local().Format(mailDateFormat)
	}
	return t.In(loc).Format(mailDateFormat)
}

package caldav

// Calendar represents one calendar collection on the server
type Calendar struct {
	ID          string // Calendar ID usable as CALENDAR_ID, e.g. "personal"
	DisplayName string
	URL         string // DAV path of the collection
}

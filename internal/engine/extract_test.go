package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhate/icsync/internal/domain"
)

const feedFixture = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Acme//Feed//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:event-1@acme.test\r\n" +
	"SUMMARY:Standup\r\n" +
	"DTSTAMP:20260301T080000Z\r\n" +
	"DTSTART:20260302T090000Z\r\n" +
	"LAST-MODIFIED:20260301T120000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:dir/event-2@acme.test\r\n" +
	"SUMMARY:Review\r\n" +
	"DTSTAMP:20260301T080000Z\r\n" +
	"DTSTART:20260303T140000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VTODO\r\n" +
	"UID:todo-1@acme.test\r\n" +
	"SUMMARY:Not an event\r\n" +
	"DTSTAMP:20260301T080000Z\r\n" +
	"END:VTODO\r\n" +
	"END:VCALENDAR\r\n"

func TestParseCalendar(t *testing.T) {
	cal, err := ParseCalendar([]byte(feedFixture))
	require.NoError(t, err)
	assert.Len(t, cal.Children, 3)
}

func TestParseCalendarMalformed(t *testing.T) {
	_, err := ParseCalendar([]byte("this is not a calendar"))
	assert.Error(t, err)
}

func TestExtractEventsSource(t *testing.T) {
	cal, err := ParseCalendar([]byte(feedFixture))
	require.NoError(t, err)

	set := ExtractEvents(cal, true)
	require.Len(t, set, 2)

	// Plain UID kept, event tagged as managed.
	event := set["event-1@acme.test"]
	require.NotNil(t, event)
	assert.True(t, event.Managed())

	ts, ok := event.LastModified()
	require.True(t, ok)
	assert.True(t, ts.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))

	// Slash UID normalized; key and stored UID property agree.
	event = set["dir-event-2@acme.test"]
	require.NotNil(t, event)
	assert.Equal(t, "dir-event-2@acme.test", event.Component.Props.Get(ical.PropUID).Value)
	assert.True(t, event.Managed())
}

func TestExtractEventsTargetReadBackAsIs(t *testing.T) {
	cal, err := ParseCalendar([]byte(feedFixture))
	require.NoError(t, err)

	set := ExtractEvents(cal, false)
	require.Len(t, set, 2)

	// No normalization, no tagging on the target side.
	event := set["dir/event-2@acme.test"]
	require.NotNil(t, event)
	assert.False(t, event.Managed())
	assert.False(t, set["event-1@acme.test"].Managed())
}

func buildCalendar(events ...*ical.Component) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//icsync//Test//EN")
	cal.Children = append(cal.Children, events...)
	return cal
}

func buildEvent(uid, summary string) *ical.Component {
	comp := ical.NewComponent(ical.CompEvent)
	if uid != "" {
		comp.Props.SetText(ical.PropUID, uid)
	}
	comp.Props.SetText(ical.PropSummary, summary)
	comp.Props.SetDateTime(ical.PropDateTimeStamp, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	return comp
}

func TestExtractEventsSkipsMissingUID(t *testing.T) {
	cal := buildCalendar(
		buildEvent("", "no uid"),
		buildEvent("kept", "has uid"),
	)

	set := ExtractEvents(cal, true)
	require.Len(t, set, 1)
	assert.NotNil(t, set["kept"])
}

func TestExtractEventsDuplicateUIDLastWins(t *testing.T) {
	cal := buildCalendar(
		buildEvent("dup", "first"),
		buildEvent("dup", "second"),
	)

	set := ExtractEvents(cal, false)
	require.Len(t, set, 1)
	assert.Equal(t, "second", set["dup"].Component.Props.Get(ical.PropSummary).Value)
}

func TestSerializeEvent(t *testing.T) {
	event := &domain.Event{UID: "ser-1", Component: buildEvent("ser-1", "Serialized")}

	data, err := SerializeEvent(event)
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "BEGIN:VCALENDAR"))
	assert.Contains(t, text, "UID:ser-1")
	assert.Contains(t, text, "SUMMARY:Serialized")

	// A serialized document must parse back into a single-event calendar.
	cal, err := ParseCalendar(data)
	require.NoError(t, err)
	set := ExtractEvents(cal, false)
	require.Len(t, set, 1)
}

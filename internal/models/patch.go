package models

// EventPatch is a partial Event. Nil fields are left untouched by Apply.
type EventPatch struct {
	Name               *string
	EventType          *EventType
	Month              *int
	Year               *int
	FixedDate          *string
	FixedTime          *string
	Participants       []Participant
	ReminderDaysBefore **int
	ReminderScheduled  *bool
	Archived           *bool
	Finalized          *bool
	FinalizedDate      *string
	TeamLeader         *string
	TeamLeaderPhone    *string
	MeetingType        *MeetingType
	VenueName          *string
	VenueAddress       *string
	VenueContact       *string
	VenuePhone         *string
	MeetingLink        *string
	RSVPDeadline       *string
	MeetingNotes       *string
	AttendanceRecords  []AttendanceRecord
}

// Apply shallow-merges the set fields of p over e.
func (p EventPatch) Apply(e *Event) {
	setIf(&e.Name, p.Name)
	setIf(&e.EventType, p.EventType)
	setIf(&e.Month, p.Month)
	setIf(&e.Year, p.Year)
	setIf(&e.FixedDate, p.FixedDate)
	setIf(&e.FixedTime, p.FixedTime)
	if p.Participants != nil {
		e.Participants = p.Participants
	}
	setIf(&e.ReminderDaysBefore, p.ReminderDaysBefore)
	setIf(&e.ReminderScheduled, p.ReminderScheduled)
	setIf(&e.Archived, p.Archived)
	setIf(&e.Finalized, p.Finalized)
	setIf(&e.FinalizedDate, p.FinalizedDate)
	setIf(&e.TeamLeader, p.TeamLeader)
	setIf(&e.TeamLeaderPhone, p.TeamLeaderPhone)
	setIf(&e.MeetingType, p.MeetingType)
	setIf(&e.VenueName, p.VenueName)
	setIf(&e.VenueAddress, p.VenueAddress)
	setIf(&e.VenueContact, p.VenueContact)
	setIf(&e.VenuePhone, p.VenuePhone)
	setIf(&e.MeetingLink, p.MeetingLink)
	setIf(&e.RSVPDeadline, p.RSVPDeadline)
	setIf(&e.MeetingNotes, p.MeetingNotes)
	if p.AttendanceRecords != nil {
		e.AttendanceRecords = p.AttendanceRecords
	}
}

// TouchesChildren reports whether the patch replaces the participant list.
func (p EventPatch) TouchesChildren() bool { return p.Participants != nil }

// GroupTemplatePatch is a partial GroupTemplate.
type GroupTemplatePatch struct {
	Name             *string
	ParticipantNames []string
}

func (p GroupTemplatePatch) Apply(t *GroupTemplate) {
	setIf(&t.Name, p.Name)
	if p.ParticipantNames != nil {
		t.ParticipantNames = p.ParticipantNames
	}
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T { return &v }

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

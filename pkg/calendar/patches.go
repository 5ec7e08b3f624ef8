package calendar

// LocalEventPatch is a partial update of a LocalEventRecord. Nil fields are left unchanged.
// An empty EndDate removes the end date.
type LocalEventPatch struct {
	Title       *string  `json:"title,omitempty"`
	Date        *string  `json:"date,omitempty"`
	EndDate     *string  `json:"endDate,omitempty"`
	AllDay      *bool    `json:"allDay,omitempty"`
	EventType   *string  `json:"eventType,omitempty"`
	Color       *string  `json:"color,omitempty"`
	Recurrence  *string  `json:"recurrence,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
	Location    *string  `json:"location,omitempty"`
	Weight      *float64 `json:"weight,omitempty"`
	ClearWeight bool     `json:"clearWeight,omitempty"`
	Course      *string  `json:"course,omitempty"`
	CourseId    *string  `json:"courseId,omitempty"`
}

func (p LocalEventPatch) IsEmpty() bool {
	return p == LocalEventPatch{}
}

func (p LocalEventPatch) ApplyTo(rec LocalEventRecord) LocalEventRecord {
	setString(&rec.Title, p.Title)
	setString(&rec.Date, p.Date)
	if p.EndDate != nil {
		if *p.EndDate == "" {
			rec.EndDate = nil
		} else {
			end := *p.EndDate
			rec.EndDate = &end
		}
	}
	if p.AllDay != nil {
		allDay := *p.AllDay
		rec.AllDay = &allDay
	}
	setString(&rec.EventType, p.EventType)
	setString(&rec.Color, p.Color)
	setString(&rec.Recurrence, p.Recurrence)
	setString(&rec.Notes, p.Notes)
	setString(&rec.Location, p.Location)
	switch {
	case p.ClearWeight:
		rec.Weight = nil
	case p.Weight != nil:
		weight := *p.Weight
		rec.Weight = &weight
	}
	setString(&rec.Course, p.Course)
	setString(&rec.CourseId, p.CourseId)
	return rec
}

// ExternalEventPatch is a partial update of an external event, shaped like the calendar
// provider's patch request. Nil fields are left unchanged.
type ExternalEventPatch struct {
	Summary      *string        `json:"summary,omitempty"`
	Description  *string        `json:"description,omitempty"`
	Location     *string        `json:"location,omitempty"`
	Start        *EventDateTime `json:"start,omitempty"`
	End          *EventDateTime `json:"end,omitempty"`
	Recurrence   *[]string      `json:"recurrence,omitempty"`
	ColorId      *string        `json:"colorId,omitempty"`
	Attendees    *[]Attendee    `json:"attendees,omitempty"`
	Visibility   *string        `json:"visibility,omitempty"`
	Transparency *string        `json:"transparency,omitempty"`
	Reminders    *Reminders     `json:"reminders,omitempty"`
	// PrivateProperties are merged into the existing private extended properties.
	PrivateProperties map[string]string `json:"privateProperties,omitempty"`
}

func (p ExternalEventPatch) IsEmpty() bool {
	return p.Summary == nil && p.Description == nil && p.Location == nil &&
		p.Start == nil && p.End == nil && p.Recurrence == nil && p.ColorId == nil &&
		p.Attendees == nil && p.Visibility == nil && p.Transparency == nil &&
		p.Reminders == nil && len(p.PrivateProperties) == 0
}

func (p ExternalEventPatch) ApplyTo(rec ExternalEventRecord) ExternalEventRecord {
	setString(&rec.Summary, p.Summary)
	setString(&rec.Description, p.Description)
	setString(&rec.Location, p.Location)
	if p.Start != nil {
		rec.Start = *p.Start
	}
	if p.End != nil {
		rec.End = *p.End
	}
	if p.Recurrence != nil {
		rec.Recurrence = append([]string(nil), (*p.Recurrence)...)
	}
	setString(&rec.ColorId, p.ColorId)
	if p.Attendees != nil {
		rec.Attendees = append([]Attendee(nil), (*p.Attendees)...)
	}
	setString(&rec.Visibility, p.Visibility)
	setString(&rec.Transparency, p.Transparency)
	if p.Reminders != nil {
		reminders := *p.Reminders
		rec.Reminders = &reminders
	}
	if len(p.PrivateProperties) > 0 {
		merged := make(map[string]string, len(rec.PrivateProperties)+len(p.PrivateProperties))
		for k, v := range rec.PrivateProperties {
			merged[k] = v
		}
		for k, v := range p.PrivateProperties {
			merged[k] = v
		}
		rec.PrivateProperties = merged
	}
	return rec
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = *value
	}
}

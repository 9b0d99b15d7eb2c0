package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Booking is one reservation request. Records are never mutated after creation.
type Booking struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	EventType string `json:"eventType"`
	Date      string `json:"date"`
	Guests    Guests `json:"guests"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"createdAt"`
}

// Columns is the fixed export column order.
var Columns = []string{"id", "name", "phone", "email", "eventType", "date", "guests", "notes", "createdAt"}

// Values returns the record's fields in Columns order.
func (b Booking) Values() []string {
	return []string{
		b.ID,
		b.Name,
		b.Phone,
		b.Email,
		b.EventType,
		b.Date,
		string(b.Guests),
		b.Notes,
		b.CreatedAt,
	}
}

// EventTypes lists the options offered by the booking form.
var EventTypes = []string{"Wedding", "Birthday", "Engagement", "Reception", "Corporate", "Other"}

// BookingForm carries the raw values submitted by the booking form.
type BookingForm struct {
	Name      string `json:"name" form:"name" validate:"required"`
	Phone     string `json:"phone" form:"phone" validate:"required"`
	Email     string `json:"email" form:"email"`
	EventType string `json:"eventType" form:"eventType"`
	Date      string `json:"date" form:"date" validate:"required,isodate"`
	Guests    Guests `json:"guests" form:"guests" validate:"required"`
	Notes     string `json:"notes" form:"notes"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (f BookingForm) Trimmed() BookingForm {
	return BookingForm{
		Name:      strings.TrimSpace(f.Name),
		Phone:     strings.TrimSpace(f.Phone),
		Email:     strings.TrimSpace(f.Email),
		EventType: strings.TrimSpace(f.EventType),
		Date:      strings.TrimSpace(f.Date),
		Guests:    Guests(strings.TrimSpace(string(f.Guests))),
		Notes:     strings.TrimSpace(f.Notes),
	}
}

// Guests is the guest count as typed. It decodes from a JSON string or number;
// any other JSON value is kept as its raw text so one odd record does not
// spoil the whole collection.
type Guests string

func (g *Guests) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*g = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*g = Guests(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		*g = Guests(data)
		return nil
	}
	*g = Guests(n.String())
	return nil
}

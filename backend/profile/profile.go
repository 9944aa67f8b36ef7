// Package profile holds the directory entry record shared by the store, the
// list pipeline and both screens.
package profile

import (
	"fmt"
	"strings"
)

// Field names in form declaration order. Validation reports the first empty
// one in this order.
const (
	FieldName          = "name"
	FieldPhotographURL = "photographUrl"
	FieldDescription   = "description"
	FieldLongitude     = "longitude"
	FieldLatitude      = "latitude"
	FieldContactInfo   = "contactInfo"
	FieldInterest      = "interest"
)

// Fields lists the editable fields in form declaration order.
var Fields = []string{
	FieldName,
	FieldPhotographURL,
	FieldDescription,
	FieldLongitude,
	FieldLatitude,
	FieldContactInfo,
	FieldInterest,
}

// Profile is a single directory entry. Coordinates are kept as the raw
// strings the store holds; mapview converts them for rendering.
type Profile struct {
	ID            string `json:"id" bson:"-"`
	Name          string `json:"name" bson:"name"`
	PhotographURL string `json:"photographUrl" bson:"photographUrl"`
	Description   string `json:"description" bson:"description"`
	Longitude     string `json:"longitude" bson:"longitude"`
	Latitude      string `json:"latitude" bson:"latitude"`
	ContactInfo   string `json:"contactInfo" bson:"contactInfo"`
	Interest      string `json:"interest" bson:"interest"`
}

// Fields returns the editable part of p, without the id.
func (p Profile) Fields() Profile {
	p.ID = ""
	return p
}

// WithID returns a copy of p carrying id.
func (p Profile) WithID(id string) Profile {
	p.ID = id
	return p
}

// Get returns the value of the named field.
func (p Profile) Get(field string) (string, error) {
	switch field {
	case FieldName:
		return p.Name, nil
	case FieldPhotographURL:
		return p.PhotographURL, nil
	case FieldDescription:
		return p.Description, nil
	case FieldLongitude:
		return p.Longitude, nil
	case FieldLatitude:
		return p.Latitude, nil
	case FieldContactInfo:
		return p.ContactInfo, nil
	case FieldInterest:
		return p.Interest, nil
	}
	return "", fmt.Errorf("unknown profile field %q", field)
}

// Set overwrites the named field with value. Values are stored as typed; the
// trim only happens during validation.
func (p *Profile) Set(field, value string) error {
	switch field {
	case FieldName:
		p.Name = value
	case FieldPhotographURL:
		p.PhotographURL = value
	case FieldDescription:
		p.Description = value
	case FieldLongitude:
		p.Longitude = value
	case FieldLatitude:
		p.Latitude = value
	case FieldContactInfo:
		p.ContactInfo = value
	case FieldInterest:
		p.Interest = value
	default:
		return fmt.Errorf("unknown profile field %q", field)
	}
	return nil
}

// IsKnownField reports whether field is one of the editable fields.
func IsKnownField(field string) bool {
	for _, f := range Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Label is the human form label for a field.
func Label(field string) string {
	switch field {
	case FieldName:
		return "Name"
	case FieldPhotographURL:
		return "Photograph URL"
	case FieldDescription:
		return "Description"
	case FieldLongitude:
		return "Longitude"
	case FieldLatitude:
		return "Latitude"
	case FieldContactInfo:
		return "Contact Info"
	case FieldInterest:
		return "Interest"
	}
	return strings.TrimSpace(field)
}

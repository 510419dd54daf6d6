package moderation

import "github.com/khanghh/alumnet/model"

// Kind describes how one type of user content is moderated.
type Kind[T any] struct {
	Name        string // singular, used in activity actions and messages
	Plural      string
	OwnerColumn string
	// SoftDelete hides rows through is_active instead of deleting them.
	SoftDelete bool
	// Files lists the stored files of an item removed on hard delete.
	Files func(item *T) []string
	// ScheduleColumn is the start time column matched by ListFilter.StartsFrom.
	ScheduleColumn string
}

var PostKind = Kind[model.Post]{
	Name:        "post",
	Plural:      "posts",
	OwnerColumn: "user_id",
	Files:       func(p *model.Post) []string { return p.Images },
}

var EventKind = Kind[model.Event]{
	Name:           "event",
	Plural:         "events",
	OwnerColumn:    "created_by",
	SoftDelete:     true,
	ScheduleColumn: "starts_at",
}

var NewsletterKind = Kind[model.Newsletter]{
	Name:        "newsletter",
	Plural:      "newsletters",
	OwnerColumn: "uploaded_by",
	SoftDelete:  true,
}

// Title is the capitalized singular name, as used in messages.
func (k Kind[T]) Title() string {
	return capitalize(k.Name)
}

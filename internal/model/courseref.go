package model

import "strconv"

// CourseRef identifies a course either by its numeric WordPress post id or by
// its slug. Entitlement entries coming back from WordPress are messy (raw ids,
// numeric strings, slugs, or ACF relation objects wrapping an id), so every
// entry is funneled through this type before any comparison.
type CourseRef struct {
	id     int
	slug   string
	isSlug bool
}

func CourseByID(id int) CourseRef {
	return CourseRef{id: id}
}

func CourseBySlug(slug string) CourseRef {
	return CourseRef{slug: slug, isSlug: true}
}

func (r CourseRef) ID() (int, bool) {
	if r.isSlug {
		return 0, false
	}
	return r.id, true
}

func (r CourseRef) Slug() (string, bool) {
	if !r.isSlug {
		return "", false
	}
	return r.slug, true
}

func (r CourseRef) Equal(o CourseRef) bool {
	if r.isSlug != o.isSlug {
		return false
	}
	if r.isSlug {
		return r.slug == o.slug
	}
	return r.id == o.id
}

// Entry is the value written back into the acf purchased_courses list.
func (r CourseRef) Entry() any {
	if r.isSlug {
		return r.slug
	}
	return r.id
}

func (r CourseRef) String() string {
	if r.isSlug {
		return r.slug
	}
	return strconv.Itoa(r.id)
}

// ParseExternalReference interprets a payment's external_reference. The
// checkout flow historically set either the numeric course id or the course
// slug, so a value that parses as an integer is taken as the id and anything
// else as a slug.
func ParseExternalReference(ref string) CourseRef {
	if id, err := strconv.Atoi(ref); err == nil {
		return CourseByID(id)
	}
	return CourseBySlug(ref)
}

func parseEntitlementEntry(entry any) (CourseRef, bool) {
	switch v := entry.(type) {
	case map[string]any:
		if id, ok := v["ID"]; ok {
			return parseEntitlementEntry(id)
		}
		if id, ok := v["id"]; ok {
			return parseEntitlementEntry(id)
		}
		return CourseRef{}, false
	case float64:
		return CourseByID(int(v)), true
	case int:
		return CourseByID(v), true
	case int64:
		return CourseByID(int(v)), true
	case string:
		if v == "" {
			return CourseRef{}, false
		}
		return ParseExternalReference(v), true
	default:
		return CourseRef{}, false
	}
}

// NormalizeEntitlements maps a raw purchased_courses list to canonical refs,
// dropping entries that carry no usable identifier.
func NormalizeEntitlements(raw []any) []CourseRef {
	refs := make([]CourseRef, 0, len(raw))
	for _, entry := range raw {
		if ref, ok := parseEntitlementEntry(entry); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// EntitlementEntries converts canonical refs back to the wire representation
// expected by the WordPress user update.
func EntitlementEntries(refs []CourseRef) []any {
	entries := make([]any, len(refs))
	for i, ref := range refs {
		entries[i] = ref.Entry()
	}
	return entries
}

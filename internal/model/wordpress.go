package model

// RenderedField is the {rendered: "..."} wrapper WordPress uses for post titles.
type RenderedField struct {
	Rendered string `json:"rendered"`
}

type CourseACF struct {
	Price    string `json:"price"`
	Duration string `json:"duration"`
	Category string `json:"category"`
}

// Course is a "cursos" custom post as exposed by the WordPress REST API.
type Course struct {
	ID    int           `json:"id"`
	Slug  string        `json:"slug"`
	Title RenderedField `json:"title"`
	Link  string        `json:"link"`
	ACF   CourseACF     `json:"acf"`
}

type UserACF struct {
	// PurchasedCourses is a list field whose entries WordPress returns in
	// several shapes: raw ids, numeric strings, slugs, or relation objects.
	// Decode as any and normalize via NormalizeEntitlements.
	PurchasedCourses []any `json:"purchased_courses"`
}

// User is a WordPress user fetched with context=edit so that email and acf
// fields are included.
type User struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Slug  string  `json:"slug"`
	ACF   UserACF `json:"acf"`
}

// NewUser is the body for creating a WordPress account.
type NewUser struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Name     string   `json:"name"`
	Roles    []string `json:"roles"`
}

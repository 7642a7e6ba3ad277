package client

import (
	"bytes"
	"context"
	"elearning-storefront/internal/config"
	"elearning-storefront/internal/model"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/hashicorp/go-retryablehttp"
)

// WordPressClient talks to the headless WordPress REST API that owns courses,
// users and the per-user purchased_courses entitlement field.
type WordPressClient interface {
	ListCourses(ctx context.Context) ([]model.Course, error)
	FindCourseBySlug(ctx context.Context, slug string) (*model.Course, error)
	SearchUsersByEmail(ctx context.Context, email string) ([]model.User, error)
	GetUser(ctx context.Context, userID int) (*model.User, error)
	UpdateUserCourses(ctx context.Context, userID int, courses []any) (*model.User, error)
	CreateUser(ctx context.Context, user *model.NewUser) (*model.User, error)
}

type wordPressClientImpl struct {
	httpClient *http.Client
	baseURL    string
	authHeader string
}

func NewWordPressClient(wpCfg *config.WordPress) WordPressClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil
	rc.HTTPClient.Timeout = 15 * time.Second

	// WordPress displays application passwords with spaces, strip them
	// before encoding.
	pass := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, wpCfg.AdminAppPassword)

	auth := base64.StdEncoding.EncodeToString([]byte(wpCfg.AdminUser + ":" + pass))

	return &wordPressClientImpl{
		httpClient: rc.StandardClient(),
		baseURL:    strings.TrimRight(wpCfg.BaseURL, "/"),
		authHeader: "Basic " + auth,
	}
}

func (c *wordPressClientImpl) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request payload: %w", err)
		}
		body = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/wp-json/wp/v2"+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("wordpress error %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *wordPressClientImpl) ListCourses(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	if err := c.doJSON(ctx, http.MethodGet, "/cursos?_embed&acf_format=standard", nil, &courses); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

func (c *wordPressClientImpl) FindCourseBySlug(ctx context.Context, slug string) (*model.Course, error) {
	var courses []model.Course
	path := "/cursos?slug=" + url.QueryEscape(slug)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &courses); err != nil {
		return nil, fmt.Errorf("find course by slug %q: %w", slug, err)
	}
	if len(courses) == 0 {
		return nil, nil
	}
	return &courses[0], nil
}

func (c *wordPressClientImpl) SearchUsersByEmail(ctx context.Context, email string) ([]model.User, error) {
	var users []model.User
	// context=edit is required for the email and acf fields to be present
	path := "/users?search=" + url.QueryEscape(email) + "&context=edit"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &users); err != nil {
		return nil, fmt.Errorf("search users by email: %w", err)
	}
	return users, nil
}

func (c *wordPressClientImpl) GetUser(ctx context.Context, userID int) (*model.User, error) {
	var user model.User
	path := fmt.Sprintf("/users/%d?context=edit", userID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &user); err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	return &user, nil
}

func (c *wordPressClientImpl) UpdateUserCourses(ctx context.Context, userID int, courses []any) (*model.User, error) {
	payload := map[string]any{
		"acf": map[string]any{
			"purchased_courses": courses,
		},
	}

	var user model.User
	path := fmt.Sprintf("/users/%d", userID)
	if err := c.doJSON(ctx, http.MethodPost, path, payload, &user); err != nil {
		return nil, fmt.Errorf("update user %d courses: %w", userID, err)
	}
	return &user, nil
}

func (c *wordPressClientImpl) CreateUser(ctx context.Context, newUser *model.NewUser) (*model.User, error) {
	var user model.User
	if err := c.doJSON(ctx, http.MethodPost, "/users", newUser, &user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

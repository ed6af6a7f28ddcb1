package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/MacJediWizard/certvault/internal/auth"
	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type mockCourseStore struct {
	courses   map[int64]*models.Course
	nextID    int64
	createErr error
}

func (m *mockCourseStore) ListCourses(_ context.Context) ([]*models.Course, error) {
	var out []*models.Course
	for _, c := range m.courses {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCourseStore) GetCourseByID(_ context.Context, id int64) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, models.ErrNotFound
}

func (m *mockCourseStore) CreateCourse(_ context.Context, course *models.Course) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	course.ID = m.nextID
	m.courses[course.ID] = course
	return nil
}

func newMockCourseStore() *mockCourseStore {
	return &mockCourseStore{
		courses: map[int64]*models.Course{1: {ID: 1, Name: "Introduction to Programming"}},
		nextID:  1,
	}
}

func setupCoursesTestRouter(store CourseStore, identity *auth.Identity) *gin.Engine {
	return setupTestRouter(identity, func(api *gin.RouterGroup) {
		NewCoursesHandler(store, zerolog.Nop()).RegisterRoutes(api)
	})
}

func TestListCourses(t *testing.T) {
	r := setupCoursesTestRouter(newMockCourseStore(), testIdentity(4, models.UserRoleStudent))

	w := doJSON(r, "GET", "/api/courses", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp struct {
		Courses []*models.Course `json:"courses"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if len(resp.Courses) != 1 || resp.Courses[0].Name != "Introduction to Programming" {
		t.Fatalf("unexpected courses %+v", resp.Courses)
	}
}

func TestGetCourse(t *testing.T) {
	r := setupCoursesTestRouter(newMockCourseStore(), testIdentity(4, models.UserRoleStudent))

	if w := doJSON(r, "GET", "/api/courses/1", nil); w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if w := doJSON(r, "GET", "/api/courses/9", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
	if w := doJSON(r, "GET", "/api/courses/x", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestCreateCourse(t *testing.T) {
	body := CreateCourseRequest{Name: "Distributed Systems", Description: "Consensus and replication"}

	t.Run("instructor creates", func(t *testing.T) {
		store := newMockCourseStore()
		r := setupCoursesTestRouter(store, testIdentity(3, models.UserRoleInstructor))

		w := doJSON(r, "POST", "/api/courses", body)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
		}
		if _, ok := store.courses[2]; !ok {
			t.Fatal("expected course to be stored")
		}
	})

	t.Run("student forbidden", func(t *testing.T) {
		store := newMockCourseStore()
		r := setupCoursesTestRouter(store, testIdentity(4, models.UserRoleStudent))

		w := doJSON(r, "POST", "/api/courses", body)

		if w.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", w.Code)
		}
		if len(store.courses) != 1 {
			t.Fatal("no course should have been created")
		}
	})

	t.Run("blank name", func(t *testing.T) {
		r := setupCoursesTestRouter(newMockCourseStore(), testIdentity(1, models.UserRoleSystemAdmin))

		w := doJSON(r, "POST", "/api/courses", CreateCourseRequest{Name: "   "})

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		store := newMockCourseStore()
		store.createErr = errors.New("boom")
		r := setupCoursesTestRouter(store, testIdentity(1, models.UserRoleSystemAdmin))

		w := doJSON(r, "POST", "/api/courses", body)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status 500, got %d", w.Code)
		}
	})
}

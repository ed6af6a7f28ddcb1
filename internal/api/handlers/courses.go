package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/MacJediWizard/certvault/internal/api/middleware"
	"github.com/MacJediWizard/certvault/internal/auth"
	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CourseStore defines the interface for course persistence operations.
type CourseStore interface {
	ListCourses(ctx context.Context) ([]*models.Course, error)
	GetCourseByID(ctx context.Context, id int64) (*models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) error
}

// CoursesHandler handles course-related HTTP endpoints.
type CoursesHandler struct {
	store  CourseStore
	logger zerolog.Logger
}

// NewCoursesHandler creates a new CoursesHandler.
func NewCoursesHandler(store CourseStore, logger zerolog.Logger) *CoursesHandler {
	return &CoursesHandler{
		store:  store,
		logger: logger.With().Str("component", "courses_handler").Logger(),
	}
}

// RegisterRoutes registers course routes on the given router group.
func (h *CoursesHandler) RegisterRoutes(r *gin.RouterGroup) {
	courses := r.Group("/courses")
	{
		courses.GET("", middleware.RequirePermission(auth.OpCourseRead, h.logger), h.List)
		courses.POST("", middleware.RequirePermission(auth.OpCourseCreate, h.logger), h.Create)
		courses.GET("/:id", middleware.RequirePermission(auth.OpCourseRead, h.logger), h.Get)
	}
}

// CreateCourseRequest is the request body for creating a course.
type CreateCourseRequest struct {
	Name               string `json:"courseName" binding:"required,min=1,max=255"`
	Description        string `json:"description"`
	CompletionCriteria string `json:"completionCriteria"`
	TemplateID         *int64 `json:"templateId"`
}

// List returns all courses.
//
//	@Summary		List courses
//	@Tags			Courses
//	@Produce		json
//	@Success		200	{object}	map[string][]models.Course
//	@Failure		401	{object}	map[string]string
//	@Security		BearerAuth
//	@Router			/api/courses [get]
func (h *CoursesHandler) List(c *gin.Context) {
	courses, err := h.store.ListCourses(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list courses")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// Get returns a specific course by ID.
//
//	@Summary		Get course
//	@Tags			Courses
//	@Produce		json
//	@Param			id	path		int	true	"Course ID"
//	@Success		200	{object}	models.Course
//	@Failure		400	{object}	map[string]string
//	@Failure		401	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Security		BearerAuth
//	@Router			/api/courses/{id} [get]
func (h *CoursesHandler) Get(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course ID"})
		return
	}

	course, err := h.store.GetCourseByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
			return
		}
		h.logger.Error().Err(err).Int64("course_id", id).Msg("failed to get course")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, course)
}

// Create creates a new course.
//
//	@Summary		Create course
//	@Description	Requires SYSTEM_ADMIN, CERTIFICATE_ADMIN or INSTRUCTOR.
//	@Tags			Courses
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateCourseRequest	true	"Course details"
//	@Success		201		{object}	models.Course
//	@Failure		400		{object}	map[string]string
//	@Failure		401		{object}	map[string]string
//	@Failure		403		{object}	map[string]string
//	@Security		BearerAuth
//	@Router			/api/courses [post]
func (h *CoursesHandler) Create(c *gin.Context) {
	identity := middleware.RequireIdentity(c)
	if identity == nil {
		return
	}

	var req CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	course := models.NewCourse(req.Name, req.Description, req.CompletionCriteria, req.TemplateID)
	if course.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "courseName is required"})
		return
	}

	if err := h.store.CreateCourse(c.Request.Context(), course); err != nil {
		h.logger.Error().Err(err).Str("name", course.Name).Msg("failed to create course")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	h.logger.Info().
		Int64("course_id", course.ID).
		Int64("created_by", identity.UserID).
		Msg("course created")

	c.JSON(http.StatusCreated, course)
}
